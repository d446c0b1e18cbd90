package server

import (
	"net/http"

	cartdomain "github.com/emploihub/emploihub/internal/cart/domain"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) listCart(c *gin.Context) {
	recruiterID, err := parseID(c.Param("recruiter_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.cartSvc.List(c.Request.Context(), cartdomain.ListRequest{
		RecruiterID: recruiterID,
		LiveOnly:    c.Query("include_history") != "true",
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type addCartItemRequest struct {
	CandidateID      string                     `json:"candidate_id" binding:"required"`
	PriceAtSelection int64                      `json:"price_at_selection" binding:"required"`
	ExperienceLevel  cartdomain.ExperienceLevel `json:"experience_level" binding:"required"`
}

func (s *Server) addCartItem(c *gin.Context) {
	recruiterID, err := parseID(c.Param("recruiter_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	candidateID, err := parseID(req.CandidateID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.cartSvc.Add(c.Request.Context(), cartdomain.AddRequest{
		RecruiterID:      recruiterID,
		CandidateID:      candidateID,
		PriceAtSelection: req.PriceAtSelection,
		ExperienceLevel:  req.ExperienceLevel,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) removeCartItem(c *gin.Context) {
	recruiterID, err := parseID(c.Param("recruiter_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	itemID, err := parseID(c.Param("item_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.cartSvc.Remove(c.Request.Context(), recruiterID, itemID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type convertCartRequest struct {
	CatalogID     string                       `json:"catalog_id" binding:"required"`
	PaymentMethod purchasedomain.PaymentMethod `json:"payment_method" binding:"required"`
}

func (s *Server) convertCart(c *gin.Context) {
	recruiterID, err := parseID(c.Param("recruiter_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req convertCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	catalogID, err := parseID(req.CatalogID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	purchase, err := s.cartSvc.ConvertToPurchase(c.Request.Context(), cartdomain.ConvertRequest{
		RecruiterID:   recruiterID,
		CatalogID:     catalogID,
		PaymentMethod: req.PaymentMethod,
	})
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
