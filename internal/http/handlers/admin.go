package handlers

import (
	"net/http"

	"github.com/MarcMahler/gamehub-backend/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes read-only storage introspection.
type AdminHandler struct {
	repo *repository.AdminRepository
}

func NewAdminHandler(repo *repository.AdminRepository) *AdminHandler {
	return &AdminHandler{repo: repo}
}

// Structure handles GET /admin/database/structure.
func (h *AdminHandler) Structure(c *gin.Context) {
	st, err := h.repo.Structure(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to inspect database"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// TableDetail handles GET /admin/database/tables/:name.
func (h *AdminHandler) TableDetail(c *gin.Context) {
	d, err := h.repo.TableDetail(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}
