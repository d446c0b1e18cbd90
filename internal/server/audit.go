package server

import (
	"net/http"
	"strconv"

	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) adminListAudit(c *gin.Context) {
	req := auditdomain.ListRequest{Action: c.Query("action")}
	if raw := c.Query("target_id"); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		req.TargetID = id
	}
	req.Limit, _ = strconv.Atoi(c.Query("limit"))

	entries, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}
