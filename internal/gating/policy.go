// Package gating decides whether conversion tracking is active for a
// request. The policy is consulted before any event is built, so disabled
// tracking costs no work and leaks no signals.
package gating

import (
	"strings"

	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/capirelay-lab/project-capirelay/internal/core/config"
)

// Policy evaluates the tracking gate.
type Policy struct{}

// NewPolicy creates a gating policy.
func NewPolicy() *Policy {
	return &Policy{}
}

// Active reports whether tracking applies to this request. Evaluation order:
// administrative routes are always excluded, then the global enable flag,
// then the role toggle. An unrecognized toggle value fails closed.
func (p *Policy) Active(requestPath string, account *commerce.Account, cfg config.TrackingConfig) bool {
	if isAdminPath(requestPath, cfg.AdminPaths) {
		return false
	}

	if !cfg.Enabled {
		return false
	}

	switch cfg.RoleToggle {
	case config.RoleToggleExcludeListed:
		return !account.HasAnyRole(cfg.Roles)
	case config.RoleToggleIncludeListed:
		return account.HasAnyRole(cfg.Roles)
	default:
		return false
	}
}

// isAdminPath reports whether the path falls under a configured admin prefix.
func isAdminPath(path string, adminPaths []string) bool {
	for _, prefix := range adminPaths {
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
