package access

import (
	"time"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

// RegisterAccessRequest - what the gate terminal sends
type RegisterAccessRequest struct {
	PersonID  string        `json:"person_id"`
	SiteID    kernel.SiteID `json:"site_id"`
	Direction Direction     `json:"direction"`
}

// ListAccessLogsRequest - filters for listing
type ListAccessLogsRequest struct {
	SiteID     *kernel.SiteID           `json:"site_id,omitempty"`
	WorkerID   *kernel.WorkerID         `json:"worker_id,omitempty"`
	CompanyID  *kernel.CompanyID        `json:"company_id,omitempty"`
	CompanyIDs []kernel.CompanyID       `json:"-"`
	Direction  Direction                `json:"direction,omitempty"`
	Result     Result                   `json:"result,omitempty"`
	From       *time.Time               `json:"from,omitempty"`
	To         *time.Time               `json:"to,omitempty"`
	Pagination kernel.PaginationOptions `json:"pagination"`
}

// SortColumns whitelists the columns a list can be ordered by
var SortColumns = map[string]string{
	"occurred_at": "occurred_at",
	"result":      "result",
	"site_id":     "site_id",
}

// DecisionResponse - the log plus a message for the gate display
type DecisionResponse struct {
	AccessLog
	Message string `json:"message,omitempty"`
}
