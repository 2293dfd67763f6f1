package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleStatuses(c *gin.Context) {
	rows, err := s.deps.Refs.Statuses(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleSites(c *gin.Context) {
	rows, err := s.deps.Refs.Sites(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleCategories(c *gin.Context) {
	rows, err := s.deps.Refs.Categories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleAssets(c *gin.Context) {
	rows, err := s.deps.Refs.Assets(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleVendors(c *gin.Context) {
	rows, err := s.deps.Refs.Vendors(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
