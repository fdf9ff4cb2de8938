package config

import (
	"regexp"
	"strings"
)

// DefaultAgentName is used when a provided agent name normalizes to nothing.
const DefaultAgentName = "default"

var (
	validSlugRe  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	invalidRunRe = regexp.MustCompile(`[^a-z0-9_-]+`)
	edgeDashRe   = regexp.MustCompile(`^-+|-+$`)
)

// NormalizeAgentName converts a user-provided agent name into the slug used
// to locate its file under the agents directory: lowercase, max 64 chars,
// only [a-z0-9_-], invalid runs collapsed to "-", edge dashes stripped.
func NormalizeAgentName(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return DefaultAgentName
	}
	if validSlugRe.MatchString(trimmed) {
		return trimmed
	}

	slug := invalidRunRe.ReplaceAllString(trimmed, "-")
	slug = edgeDashRe.ReplaceAllString(slug, "")
	if len(slug) > 64 {
		slug = slug[:64]
	}
	if slug == "" {
		return DefaultAgentName
	}
	return slug
}
