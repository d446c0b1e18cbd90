package server

import (
	"net/http"
	"strconv"

	quotadomain "github.com/emploihub/emploihub/internal/quota/domain"
	usagedomain "github.com/emploihub/emploihub/internal/usage/domain"
	"github.com/gin-gonic/gin"
)

type consumeUsageRequest struct {
	FeatureType usagedomain.FeatureType `json:"feature_type" binding:"required"`
	Count       int64                   `json:"count"`
}

func (s *Server) consumeUsage(c *gin.Context) {
	accountID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req consumeUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	decision, err := s.quotaSvc.CheckAndConsume(c.Request.Context(), quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   req.FeatureType,
		Count:     req.Count,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Denials are a normal outcome for the caller, not an error.
	s.metrics.RecordUsageDecision(string(req.FeatureType), decision.Allowed, string(decision.Source))
	c.JSON(http.StatusOK, decision)
}

func (s *Server) listUsage(c *gin.Context) {
	accountID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	req := usagedomain.ListRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureType(c.Query("feature_type")),
		Limit:     limit,
	}
	events, err := s.usageSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": events})
}
