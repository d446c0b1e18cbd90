package server

import (
	"net/http"

	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) listSubscriptions(c *gin.Context) {
	accountID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	subs, err := s.subscriptionSvc.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": subs})
}

func (s *Server) listPacks(c *gin.Context) {
	accountID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	grants, err := s.packSvc.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": grants})
}

type approveSubscriptionRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) adminApproveSubscription(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req approveSubscriptionRequest
	_ = c.ShouldBindJSON(&req)

	sub, err := s.subscriptionSvc.Approve(c.Request.Context(), id, s.adminID(c), req.Notes)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordSubscriptionAudit(c, "subscription_approved", sub.ID)
	c.JSON(http.StatusOK, sub)
}

func (s *Server) adminRejectSubscription(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	sub, err := s.subscriptionSvc.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordSubscriptionAudit(c, "subscription_rejected", sub.ID)
	c.JSON(http.StatusOK, sub)
}

func (s *Server) adminCancelSubscription(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	sub, err := s.subscriptionSvc.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordSubscriptionAudit(c, "subscription_cancelled", sub.ID)
	c.JSON(http.StatusOK, sub)
}

func (s *Server) recordSubscriptionAudit(c *gin.Context, action string, id snowflake.ID) {
	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorType:  auditdomain.ActorAdmin,
		ActorID:    s.adminID(c),
		Action:     action,
		TargetType: "subscription",
		TargetID:   id,
	})
}
