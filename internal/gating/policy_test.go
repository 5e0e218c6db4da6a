package gating

import (
	"testing"

	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/capirelay-lab/project-capirelay/internal/core/config"
	"github.com/stretchr/testify/require"
)

func enabledConfig() config.TrackingConfig {
	return config.TrackingConfig{
		Enabled:    true,
		RoleToggle: config.RoleToggleExcludeListed,
		AdminPaths: []string{"/admin"},
	}
}

func TestActive_AdminRouteAlwaysExcluded(t *testing.T) {
	p := NewPolicy()
	cfg := enabledConfig()

	require.False(t, p.Active("/admin", nil, cfg))
	require.False(t, p.Active("/admin/settings", nil, cfg))
	require.True(t, p.Active("/product/7", nil, cfg))
	// Prefix match is per path segment, not per substring.
	require.True(t, p.Active("/administrator-biographies", nil, cfg))
}

func TestActive_GlobalFlagOff(t *testing.T) {
	p := NewPolicy()
	cfg := enabledConfig()
	cfg.Enabled = false

	require.False(t, p.Active("/product/7", nil, cfg))
}

func TestActive_RoleToggle(t *testing.T) {
	p := NewPolicy()
	editor := &commerce.Account{ID: 1, Roles: []string{"editor", "authenticated"}}
	viewer := &commerce.Account{ID: 2, Roles: []string{"authenticated"}}

	tests := []struct {
		name    string
		toggle  string
		roles   []string
		account *commerce.Account
		want    bool
	}{
		{name: "exclude listed hits", toggle: config.RoleToggleExcludeListed, roles: []string{"editor"}, account: editor, want: false},
		{name: "exclude listed misses", toggle: config.RoleToggleExcludeListed, roles: []string{"editor"}, account: viewer, want: true},
		{name: "exclude listed anonymous", toggle: config.RoleToggleExcludeListed, roles: []string{"editor"}, account: nil, want: true},
		{name: "include listed hits", toggle: config.RoleToggleIncludeListed, roles: []string{"editor"}, account: editor, want: true},
		{name: "include listed misses", toggle: config.RoleToggleIncludeListed, roles: []string{"editor"}, account: viewer, want: false},
		{name: "include listed anonymous", toggle: config.RoleToggleIncludeListed, roles: []string{"editor"}, account: nil, want: false},
		{name: "unknown toggle fails closed", toggle: "everyone", roles: nil, account: editor, want: false},
		{name: "empty toggle fails closed", toggle: "", roles: nil, account: editor, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := enabledConfig()
			cfg.RoleToggle = tc.toggle
			cfg.Roles = tc.roles
			require.Equal(t, tc.want, p.Active("/product/7", tc.account, cfg))
		})
	}
}
