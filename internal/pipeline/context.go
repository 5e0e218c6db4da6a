package pipeline

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/capirelay-lab/project-capirelay/internal/commerce"
)

// Cookie names the browser pixel sets for attribution.
const (
	CookieFBP = "_fbp"
	CookieFBC = "_fbc"
)

// RequestContext is the per-request state the pipeline needs, captured once
// at the trigger boundary and threaded explicitly into each call. The
// builder and extractor never reach for ambient request or user singletons.
type RequestContext struct {
	ClientIP   string
	UserAgent  string
	FBP        string // _fbp cookie value, empty when absent
	FBC        string // _fbc cookie value, empty when absent
	RequestURL string
	Path       string // route path, used by the gating policy
	Account    *commerce.Account

	// Time is the server's request time. Every event built under this
	// context stamps it as event_time; client-supplied times are ignored.
	Time time.Time
}

// NewRequestContext captures the relevant request state. now is the server
// clock reading for this request.
func NewRequestContext(r *http.Request, account *commerce.Account, now time.Time) RequestContext {
	rc := RequestContext{
		Account: account,
		Time:    now,
	}

	if r == nil {
		return rc
	}

	rc.ClientIP = clientIP(r)
	rc.UserAgent = r.UserAgent()
	rc.RequestURL = requestURL(r)
	rc.Path = r.URL.Path

	if c, err := r.Cookie(CookieFBP); err == nil {
		rc.FBP = c.Value
	}
	if c, err := r.Cookie(CookieFBC); err == nil {
		rc.FBC = c.Value
	}

	return rc
}

// clientIP prefers the first X-Forwarded-For hop, falling back to RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestURL reconstructs the absolute URL of the current request.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
