package errors

const (
	HttpInternalError       = "internal_error"
	HttpInvalidJsonError    = "invalid_json"
	HttpTrackingOffError    = "tracking_disabled"
	HttpUnknownEntityError  = "unknown_product_variation"
	HttpDispatchFailedError = "dispatch_failed"
	HttpInvalidRequestError = "invalid_request"
)

// ErrorResponse is the error response body for tracking endpoint errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
