package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/capirelay-lab/project-capirelay/internal/pipeline"
	"github.com/gin-gonic/gin"
)

// Browser-pixel bootstrap snippets. {{pixel_id}} is substituted before the
// snippet is handed to the page.
const (
	pixelScriptCode = "!function(f,b,e,v,n,t,s) {if(f.fbq)return;n=f.fbq=function(){n.callMethod? n.callMethod.apply(n,arguments):n.queue.push(arguments)}; if(!f._fbq)f._fbq=n;n.push=n;n.loaded=!0;n.version='2.0'; n.queue=[];t=b.createElement(e);t.async=!0; t.src=v;s=b.getElementsByTagName(e)[0]; s.parentNode.insertBefore(t,s)}(window, document,'script', 'https://connect.facebook.net/en_US/fbevents.js'); fbq('init', '{{pixel_id}}'); fbq('track', 'PageView');"

	pixelNoScriptCode = `<noscript><img height="1" width="1" style="display:none" src="https://www.facebook.com/tr?id={{pixel_id}}&ev=PageView&noscript=1"/></noscript>`
)

// pixelResponse tells the page whether to embed the browser pixel and, if
// so, with which snippets.
type pixelResponse struct {
	Enabled  bool   `json:"enabled"`
	Script   string `json:"script,omitempty"`
	NoScript string `json:"noscript,omitempty"`
}

// PixelHandler serves the browser-pixel snippets for the current request.
// Disabled tracking or a missing pixel id yields enabled:false with no
// snippets, so no identifiers leak to excluded callers.
func (s *Service) PixelHandler(c *gin.Context) {
	rc := pipeline.NewRequestContext(c.Request, s.resolveAccount(c.Request), s.nowFn())

	pixelID := strings.TrimSpace(s.tracker.Config().PixelID)
	if !s.tracker.Active(rc) || pixelID == "" {
		c.JSON(http.StatusOK, pixelResponse{Enabled: false})
		return
	}

	slog.Debug("Serving pixel snippets", "path", rc.Path)
	c.JSON(http.StatusOK, pixelResponse{
		Enabled:  true,
		Script:   strings.ReplaceAll(pixelScriptCode, "{{pixel_id}}", pixelID),
		NoScript: strings.ReplaceAll(pixelNoScriptCode, "{{pixel_id}}", pixelID),
	})
}
