package server

import (
	"net/http"

	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) createPurchase(c *gin.Context) {
	var req purchasedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	purchase, err := s.purchaseSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"purchase_id":       purchase.ID.String(),
		"payment_reference": purchase.PaymentReference,
		"amount":            purchase.Amount,
		"currency":          purchase.Currency,
		"status":            purchase.Status,
	})
}

func (s *Server) getPurchase(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	purchase, err := s.purchaseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func (s *Server) listPurchases(c *gin.Context) {
	accountID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	purchases, err := s.purchaseSvc.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": purchases})
}

type attachProofRequest struct {
	ProofURL string `json:"proof_url" binding:"required"`
}

func (s *Server) attachProof(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req attachProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	purchase, err := s.purchaseSvc.AttachProof(c.Request.Context(), id, req.ProofURL)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) cancelPurchase(c *gin.Context) {
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

	purchase, err := s.purchaseSvc.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

type completePurchaseRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) adminCompletePurchase(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req completePurchaseRequest
	_ = c.ShouldBindJSON(&req)

	purchase, err := s.purchaseSvc.Complete(c.Request.Context(), purchasedomain.CompleteRequest{
		ID:      id,
		AdminID: s.adminID(c),
		Notes:   req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordPurchaseCompleted(string(purchase.Kind))
	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorType:  auditdomain.ActorAdmin,
		ActorID:    s.adminID(c),
		Action:     "purchase_completed",
		TargetType: "purchase",
		TargetID:   purchase.ID,
	})
	c.JSON(http.StatusOK, purchase)
}

func (s *Server) adminRejectPurchase(c *gin.Context) {
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

	purchase, err := s.purchaseSvc.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorType:  auditdomain.ActorAdmin,
		ActorID:    s.adminID(c),
		Action:     "purchase_rejected",
		TargetType: "purchase",
		TargetID:   purchase.ID,
	})
	c.JSON(http.StatusOK, purchase)
}
