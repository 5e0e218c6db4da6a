package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	httperr "github.com/capirelay-lab/project-capirelay/internal/core/errors"
	"github.com/capirelay-lab/project-capirelay/internal/core/storage"
	"github.com/capirelay-lab/project-capirelay/internal/pipeline"
	"github.com/gin-gonic/gin"
)

const (
	msgTrackingOff    = "The request was not sent because tracking is not enabled."
	msgInvalidBody    = "The request was not sent because the request body is not valid JSON."
	msgIDNotNumeric   = "The request was not sent because the product_variation_id parameter is not numeric."
	msgUnknownEntity  = "The request was not sent because the product variation cannot be found."
	msgDispatchOK     = "The request has been sent to the Conversions API."
	msgDispatchFailed = "The request failed to be sent to the Conversions API."
	msgLookupFailed   = "The request was not sent because the product variation could not be loaded."
)

// viewContentRequest is the deferred browser payload. The id is accepted as
// either a JSON number or a numeric string.
type viewContentRequest struct {
	ProductVariationID interface{} `json:"product_variation_id"`
	SourceURL          string      `json:"source_url"`
}

// ViewContentHandler responds to the "ViewContent" event sent from the
// storefront JavaScript. Validation failures and dispatch failures both
// answer 400; the response always carries a human-readable message.
func (s *Service) ViewContentHandler(c *gin.Context) {
	rc := pipeline.NewRequestContext(c.Request, s.resolveAccount(c.Request), s.nowFn())

	if !s.tracker.Active(rc) {
		slog.Warn(msgTrackingOff)
		writeError(c, httperr.HttpTrackingOffError, msgTrackingOff)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(s.maxBodySizeBytes)))
	if err != nil {
		writeError(c, httperr.HttpInvalidJsonError, msgInvalidBody)
		return
	}

	var req viewContentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		slog.Warn("Invalid view-content body", "error", err)
		writeError(c, httperr.HttpInvalidJsonError, msgInvalidBody)
		return
	}

	id, ok := numericID(req.ProductVariationID)
	if !ok {
		slog.Error(msgIDNotNumeric)
		writeError(c, httperr.HttpInvalidRequestError, msgIDNotNumeric)
		return
	}

	variation, err := s.catalog.GetVariation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.Error(msgUnknownEntity, "product_variation_id", id)
			writeError(c, httperr.HttpUnknownEntityError, msgUnknownEntity)
			return
		}
		slog.Error("Failed to load product variation", "error", err, "product_variation_id", id)
		writeError(c, httperr.HttpInternalError, msgLookupFailed)
		return
	}

	sent := s.tracker.VariationViewed(c.Request.Context(), rc, variation, req.SourceURL)
	if sent {
		c.JSON(http.StatusOK, gin.H{"message": msgDispatchOK})
		return
	}

	writeError(c, httperr.HttpDispatchFailedError, msgDispatchFailed)
}

// numericID normalizes the client-supplied variation id. JSON numbers
// unmarshal to float64; numeric strings are also accepted.
func numericID(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case float64:
		id := int64(val)
		if float64(id) != val || id <= 0 {
			return 0, false
		}
		return id, true
	case string:
		id, err := strconv.ParseInt(val, 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

// writeError answers 400 with the structured error shape. The message field
// is what the storefront JavaScript surfaces.
func writeError(c *gin.Context, errorType, message string) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: errorType,
		Message:   message,
	})
}
