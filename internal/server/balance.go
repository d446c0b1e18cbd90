package server

import (
	"net/http"

	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	"github.com/emploihub/emploihub/pkg/db/pagination"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

func (s *Server) getBalance(c *gin.Context) {
	accountID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	balance, err := s.balanceSvc.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id":      accountID.String(),
		"credits_balance": balance,
	})
}

func (s *Server) listTransactions(c *gin.Context) {
	accountID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.balanceSvc.ListTransactions(c.Request.Context(), balancedomain.ListTransactionsRequest{
		AccountID:  accountID,
		Pagination: page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type adjustBalanceRequest struct {
	Type        balancedomain.TransactionType `json:"type" binding:"required"`
	Amount      int64                         `json:"amount" binding:"required"`
	Description string                        `json:"description"`
}

func (s *Server) adminAdjustBalance(c *gin.Context) {
	accountID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req adjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if req.Type != balancedomain.TransactionTypeAdminAdd && req.Type != balancedomain.TransactionTypeAdminRemove {
		AbortWithError(c, balancedomain.ErrInvalidType)
		return
	}

	txn, err := s.balanceSvc.ApplyTransaction(c.Request.Context(), balancedomain.ApplyTransactionRequest{
		AccountID:   accountID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorType:  auditdomain.ActorAdmin,
		ActorID:    s.adminID(c),
		Action:     "balance_adjusted",
		TargetType: "account",
		TargetID:   accountID,
		Detail:     datatypes.JSON([]byte(`{"type":"` + string(req.Type) + `"}`)),
	})
	c.JSON(http.StatusOK, txn)
}
