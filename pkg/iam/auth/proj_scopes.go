package auth

import "github.com/Abraxas-365/cae/pkg/iam/user"

// ============================================================================
// DOMAIN-SPECIFIC SCOPES - CAE (contractor coordination)
// ============================================================================

const (
	// Company scopes
	ScopeCompaniesAll    = "companies:*"
	ScopeCompaniesRead   = "companies:read"
	ScopeCompaniesWrite  = "companies:write"
	ScopeCompaniesStatus = "companies:status" // Activate/suspend/archive

	// Worker scopes
	ScopeWorkersAll    = "workers:*"
	ScopeWorkersRead   = "workers:read"
	ScopeWorkersWrite  = "workers:write"
	ScopeWorkersDelete = "workers:delete"

	// Document scopes
	ScopeDocumentsAll    = "documents:*"
	ScopeDocumentsRead   = "documents:read"
	ScopeDocumentsUpload = "documents:upload"
	ScopeDocumentsReview = "documents:review" // Manual approve/reject
	ScopeDocumentsExpire = "documents:expire" // Trigger expiry sweep

	// Access control scopes
	ScopeAccessAll      = "access:*"
	ScopeAccessRead     = "access:read"
	ScopeAccessRegister = "access:register" // Turnstile / gate operators
)

// DomainScopeCategories organizes domain-specific scopes
var DomainScopeCategories = map[string][]string{
	"Companies": {
		ScopeCompaniesAll,
		ScopeCompaniesRead,
		ScopeCompaniesWrite,
		ScopeCompaniesStatus,
	},
	"Workers": {
		ScopeWorkersAll,
		ScopeWorkersRead,
		ScopeWorkersWrite,
		ScopeWorkersDelete,
	},
	"Documents": {
		ScopeDocumentsAll,
		ScopeDocumentsRead,
		ScopeDocumentsUpload,
		ScopeDocumentsReview,
		ScopeDocumentsExpire,
	},
	"Access": {
		ScopeAccessAll,
		ScopeAccessRead,
		ScopeAccessRegister,
	},
}

// DomainScopeDescriptions provides descriptions for domain scopes
var DomainScopeDescriptions = map[string]string{
	ScopeCompaniesAll:    "Full access to the contractor registry",
	ScopeCompaniesRead:   "View companies and subcontracting chains",
	ScopeCompaniesWrite:  "Register and edit companies",
	ScopeCompaniesStatus: "Activate, suspend and archive companies",

	ScopeWorkersAll:    "Full access to contractor personnel",
	ScopeWorkersRead:   "View workers",
	ScopeWorkersWrite:  "Register and edit workers",
	ScopeWorkersDelete: "Delete workers",

	ScopeDocumentsAll:    "Full access to compliance documents",
	ScopeDocumentsRead:   "View and download documents",
	ScopeDocumentsUpload: "Upload documents",
	ScopeDocumentsReview: "Approve or reject documents",
	ScopeDocumentsExpire: "Run the document expiry sweep",

	ScopeAccessAll:      "Full access to site access control",
	ScopeAccessRead:     "View access logs",
	ScopeAccessRegister: "Register entries and exits",
}

// RoleScopes is the closed mapping from user role to granted scopes
var RoleScopes = map[user.Role][]string{
	user.RoleAdmin: {
		ScopeAll,
	},
	user.RoleCoordinator: {
		ScopeCompaniesRead,
		ScopeCompaniesStatus,
		ScopeWorkersRead,
		ScopeDocumentsRead,
		ScopeDocumentsReview,
		ScopeAccessAll,
		ScopeDashboardView,
	},
	user.RoleCompany: {
		ScopeCompaniesRead,
		ScopeCompaniesWrite,
		ScopeWorkersAll,
		ScopeDocumentsRead,
		ScopeDocumentsUpload,
		ScopeAccessRead,
	},
}

// ScopesFor merges the role's scopes with the user's extra grants
func ScopesFor(u *user.User) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(RoleScopes[u.Role])+len(u.Scopes))
	for _, list := range [][]string{RoleScopes[u.Role], u.Scopes} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
