package company

import (
	"time"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

// CreateCompanyRequest - DTO for registering a contractor
type CreateCompanyRequest struct {
	ParentID *kernel.CompanyID  `json:"parent_id,omitempty"`
	Name     kernel.CompanyName `json:"name"`
	TaxID    kernel.TaxID       `json:"tax_id"`
	Email    kernel.Email       `json:"email"`
	Phone    kernel.Phone       `json:"phone"`
	Address  kernel.Address     `json:"address"`
	Activity string             `json:"activity"`
}

// UpdateCompanyRequest - DTO for editing a contractor. The CIF is immutable.
type UpdateCompanyRequest struct {
	Name     *kernel.CompanyName `json:"name,omitempty"`
	Email    *kernel.Email       `json:"email,omitempty"`
	Phone    *kernel.Phone       `json:"phone,omitempty"`
	Address  *kernel.Address     `json:"address,omitempty"`
	Activity *string             `json:"activity,omitempty"`
	ParentID *kernel.CompanyID   `json:"parent_id,omitempty"`
	// DetachParent moves the company to the top level
	DetachParent bool `json:"detach_parent,omitempty"`
}

// ListCompaniesRequest - filters for listing
type ListCompaniesRequest struct {
	Query      string                   `json:"query,omitempty"`
	Status     CompanyStatus            `json:"status,omitempty"`
	ParentID   *kernel.CompanyID        `json:"parent_id,omitempty"`
	IDs        []kernel.CompanyID       `json:"-"`
	Pagination kernel.PaginationOptions `json:"pagination"`
}

// SortColumns whitelists the columns a list can be ordered by
var SortColumns = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"status":     "status",
}

// CompanyNode is one company in a subcontracting tree
type CompanyNode struct {
	Company
	Depth    int            `json:"depth"`
	Children []*CompanyNode `json:"children"`
}

// CompanyStatsResponse - per company summary
type CompanyStatsResponse struct {
	CompanyID            kernel.CompanyID   `json:"company_id"`
	Name                 kernel.CompanyName `json:"name"`
	Status               CompanyStatus      `json:"status"`
	Depth                int                `json:"depth"`
	DirectSubcontractors int                `json:"direct_subcontractors"`
	TotalSubcontractors  int                `json:"total_subcontractors"`
	Workers              int                `json:"workers"`
	ActiveWorkers        int                `json:"active_workers"`
	CreatedAt            time.Time          `json:"created_at"`
}
