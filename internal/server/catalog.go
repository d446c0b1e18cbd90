package server

import (
	"net/http"

	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) listCatalog(c *gin.Context) {
	entries, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListEntriesRequest{
		Kind:       catalogdomain.Kind(c.Query("kind")),
		ActiveOnly: true,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func (s *Server) adminListCatalog(c *gin.Context) {
	entries, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListEntriesRequest{
		Kind:       catalogdomain.Kind(c.Query("kind")),
		ActiveOnly: c.Query("include_inactive") != "true",
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func (s *Server) adminCreateCatalog(c *gin.Context) {
	var req catalogdomain.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	entry, err := s.catalogSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorType:  auditdomain.ActorAdmin,
		ActorID:    s.adminID(c),
		Action:     "catalog_created",
		TargetType: "catalog_entry",
		TargetID:   entry.ID,
	})
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) adminUpdateCatalog(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req catalogdomain.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = id

	entry, err := s.catalogSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorType:  auditdomain.ActorAdmin,
		ActorID:    s.adminID(c),
		Action:     "catalog_updated",
		TargetType: "catalog_entry",
		TargetID:   entry.ID,
	})
	c.JSON(http.StatusOK, entry)
}

func (s *Server) adminDeactivateCatalog(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.catalogSvc.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorType:  auditdomain.ActorAdmin,
		ActorID:    s.adminID(c),
		Action:     "catalog_deactivated",
		TargetType: "catalog_entry",
		TargetID:   id,
	})
	c.Status(http.StatusNoContent)
}
