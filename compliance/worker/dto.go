package worker

import "github.com/Abraxas-365/cae/pkg/kernel"

// CreateWorkerRequest - DTO for registering a worker
type CreateWorkerRequest struct {
	CompanyID   kernel.CompanyID   `json:"company_id"`
	FirstName   kernel.FirstName   `json:"first_name"`
	LastName    kernel.LastName    `json:"last_name"`
	PersonID    kernel.PersonID    `json:"person_id"`
	Email       kernel.Email       `json:"email,omitempty"`
	Phone       kernel.Phone       `json:"phone,omitempty"`
	JobPosition kernel.JobPosition `json:"job_position,omitempty"`
}

// UpdateWorkerRequest - DTO for editing a worker
type UpdateWorkerRequest struct {
	FirstName   *kernel.FirstName   `json:"first_name,omitempty"`
	LastName    *kernel.LastName    `json:"last_name,omitempty"`
	PersonID    *kernel.PersonID    `json:"person_id,omitempty"`
	Email       *kernel.Email       `json:"email,omitempty"`
	Phone       *kernel.Phone       `json:"phone,omitempty"`
	JobPosition *kernel.JobPosition `json:"job_position,omitempty"`
}

// ListWorkersRequest - filters for listing
type ListWorkersRequest struct {
	CompanyID  *kernel.CompanyID        `json:"company_id,omitempty"`
	CompanyIDs []kernel.CompanyID       `json:"-"`
	Query      string                   `json:"query,omitempty"`
	Status     WorkerStatus             `json:"status,omitempty"`
	Pagination kernel.PaginationOptions `json:"pagination"`
}

// SortColumns whitelists the columns a list can be ordered by
var SortColumns = map[string]string{
	"last_name":  "last_name",
	"created_at": "created_at",
	"status":     "status",
}
