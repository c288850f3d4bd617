package auth

import "github.com/Abraxas-365/cae/pkg/iam/user"

const (
	ScopeAll           = "*"
	ScopeDashboardView = "dashboard:view"
)

// HasScope reports whether any granted scope covers required
func HasScope(granted []string, required string) bool {
	for _, g := range granted {
		if user.MatchScope(g, required) {
			return true
		}
	}
	return false
}
