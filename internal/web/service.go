package web

import (
	"net/http"
	"time"

	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/capirelay-lab/project-capirelay/internal/core/storage"
	"github.com/capirelay-lab/project-capirelay/internal/trigger"
	"github.com/gin-gonic/gin"
)

// AccountResolver derives the acting account from ambient session state.
// Returning nil means anonymous; the pipeline performs no authentication of
// its own.
type AccountResolver func(r *http.Request) *commerce.Account

// Service exposes the browser-facing tracking endpoints.
type Service struct {
	tracker          *trigger.Tracker
	catalog          storage.CatalogStore
	resolveAccount   AccountResolver
	maxBodySizeBytes int
	nowFn            func() time.Time
}

// NewService creates the web tracking service.
func NewService(tracker *trigger.Tracker, catalog storage.CatalogStore, resolveAccount AccountResolver, maxBodySizeMB int) *Service {
	if tracker == nil {
		panic("web: tracker must not be nil")
	}
	if catalog == nil {
		panic("web: catalog must not be nil")
	}
	if resolveAccount == nil {
		resolveAccount = func(*http.Request) *commerce.Account { return nil }
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		tracker:          tracker,
		catalog:          catalog,
		resolveAccount:   resolveAccount,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn:            time.Now,
	}
}

// RegisterRoutes registers the tracking service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	// Deferred browser POST fired a couple of seconds after page load.
	r.POST("/v1/track/view-content", s.ViewContentHandler)

	// Browser-pixel bootstrap snippets for page embedding.
	r.GET("/v1/pixel", s.PixelHandler)
}
