package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	v1 "github.com/capirelay-lab/project-capirelay/internal/api/v1"
)

// clickIDParam is the ad-click query parameter used to synthesize a click
// identifier when the _fbc cookie is absent.
const clickIDParam = "fbclid"

// ExtractUserSignals derives the user data block from the request context.
// Pure function of its inputs: no network calls, no hidden state.
//
// The click identifier is taken from the _fbc cookie when present; otherwise
// it is synthesized from the source URL's fbclid parameter in the
// "fb.1.<event_time>.<fbclid>" format. The cookie value always wins.
func ExtractUserSignals(rc RequestContext, sourceURL string) *v1.UserData {
	u := &v1.UserData{
		ClientIPAddress: rc.ClientIP,
		ClientUserAgent: rc.UserAgent,
		FBP:             rc.FBP,
		FBC:             rc.FBC,
	}

	if u.FBC == "" && sourceURL != "" {
		if clickID := clickIDFromURL(sourceURL); clickID != "" {
			u.FBC = fmt.Sprintf("fb.1.%d.%s", rc.Time.Unix(), clickID)
		}
	}

	if rc.Account.Authenticated() {
		u.ExternalID = fmt.Sprintf("%d", rc.Account.ID)
		if rc.Account.Email != "" {
			u.Email = HashEmail(rc.Account.Email)
		}
	}

	return u
}

// clickIDFromURL parses the fbclid query parameter out of a source URL.
// Malformed URLs yield no click id rather than an error.
func clickIDFromURL(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get(clickIDParam)
}

// HashEmail normalizes (trim, lowercase) and sha256-hashes an email address,
// the form the Conversions API matches on. Raw addresses never leave the
// process.
func HashEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
