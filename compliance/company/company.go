package company

import (
	"time"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

// CompanyStatus represents where a contractor is in its lifecycle
type CompanyStatus string

const (
	CompanyStatusPending   CompanyStatus = "PENDING"   // Registered, documentation not reviewed yet
	CompanyStatusActive    CompanyStatus = "ACTIVE"    // Allowed to work on site
	CompanyStatusSuspended CompanyStatus = "SUSPENDED" // Temporarily blocked
	CompanyStatusArchived  CompanyStatus = "ARCHIVED"  // No longer a contractor
)

func (s CompanyStatus) IsValid() bool {
	switch s {
	case CompanyStatusPending, CompanyStatusActive, CompanyStatusSuspended, CompanyStatusArchived:
		return true
	}
	return false
}

// MaxChainDepth is the longest subcontracting chain allowed; the
// principal contractor sits at depth 1.
const MaxChainDepth = 3

type Company struct {
	ID        kernel.CompanyID   `db:"id" json:"id"`
	TenantID  kernel.TenantID    `db:"tenant_id" json:"tenant_id"`
	ParentID  *kernel.CompanyID  `db:"parent_id" json:"parent_id,omitempty"`
	Name      kernel.CompanyName `db:"name" json:"name"`
	TaxID     kernel.TaxID       `db:"tax_id" json:"tax_id"`
	Email     kernel.Email       `db:"email" json:"email"`
	Phone     kernel.Phone       `db:"phone" json:"phone"`
	Address   kernel.Address     `db:"address" json:"address"`
	Activity  string             `db:"activity" json:"activity"`
	Status    CompanyStatus      `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
}

// ============================================================================
// Domain Methods
// ============================================================================

func (c *Company) IsActive() bool {
	return c.Status == CompanyStatusActive
}

func (c *Company) IsArchived() bool {
	return c.Status == CompanyStatusArchived
}

func (c *Company) IsTopLevel() bool {
	return c.ParentID == nil
}

// Activate allows the company on site. Pending and suspended companies can be activated.
func (c *Company) Activate() error {
	switch c.Status {
	case CompanyStatusActive:
		return ErrInvalidStatusTransition().
			WithDetail("from", c.Status).
			WithDetail("to", CompanyStatusActive)
	case CompanyStatusArchived:
		return ErrCompanyArchived()
	}
	c.Status = CompanyStatusActive
	c.UpdatedAt = time.Now()
	return nil
}

// Suspend blocks an active company
func (c *Company) Suspend() error {
	if c.Status != CompanyStatusActive {
		return ErrInvalidStatusTransition().
			WithDetail("from", c.Status).
			WithDetail("to", CompanyStatusSuspended)
	}
	c.Status = CompanyStatusSuspended
	c.UpdatedAt = time.Now()
	return nil
}

// Archive retires the company. Archived companies are read only.
func (c *Company) Archive() error {
	if c.IsArchived() {
		return ErrCompanyArchived()
	}
	c.Status = CompanyStatusArchived
	c.UpdatedAt = time.Now()
	return nil
}

// UpdateDetails overwrites the non-empty fields
func (c *Company) UpdateDetails(name kernel.CompanyName, email kernel.Email, phone kernel.Phone, address kernel.Address, activity string) {
	if name != "" {
		c.Name = name
	}
	if email != "" {
		c.Email = email.Normalize()
	}
	if phone != "" {
		c.Phone = phone
	}
	if address != "" {
		c.Address = address
	}
	if activity != "" {
		c.Activity = activity
	}
	c.UpdatedAt = time.Now()
}
