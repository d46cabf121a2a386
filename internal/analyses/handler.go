package analyses

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fraud-digest-backend/internal/shared/server/respond"
)

// Handler exposes read access to stored records.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analyses", h.lookup)
}

func (h *Handler) lookup(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "url is required", []map[string]string{
			{"field": "url", "issue": "required"},
		})
		return
	}

	rec, err := h.Repo.FindByURL(c.Request.Context(), url)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "no analysis for url", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load analysis", nil)
		return
	}
	if rec.Entities == nil {
		rec.Entities = []Entity{}
	}
	respond.OK(c, rec)
}
