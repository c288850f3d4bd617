package worker

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/taxid"
)

// WorkerStatus represents whether a worker may be on site
type WorkerStatus string

const (
	WorkerStatusActive   WorkerStatus = "ACTIVE"   // Registered and working for the company
	WorkerStatusInactive WorkerStatus = "INACTIVE" // Left the company or on leave
)

func (s WorkerStatus) IsValid() bool {
	return s == WorkerStatusActive || s == WorkerStatusInactive
}

type Worker struct {
	ID           kernel.WorkerID    `db:"id" json:"id"`
	TenantID     kernel.TenantID    `db:"tenant_id" json:"tenant_id"`
	CompanyID    kernel.CompanyID   `db:"company_id" json:"company_id"`
	FirstName    kernel.FirstName   `db:"first_name" json:"first_name"`
	LastName     kernel.LastName    `db:"last_name" json:"last_name"`
	PersonID     kernel.PersonID    `db:"person_id" json:"person_id"`
	PersonIDKind taxid.Kind         `db:"person_id_kind" json:"person_id_kind"`
	Email        kernel.Email       `db:"email" json:"email"`
	Phone        kernel.Phone       `db:"phone" json:"phone"`
	JobPosition  kernel.JobPosition `db:"job_position" json:"job_position"`
	Status       WorkerStatus       `db:"status" json:"status"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// ============================================================================
// Domain Methods
// ============================================================================

func (w *Worker) IsActive() bool {
	return w.Status == WorkerStatusActive
}

func (w *Worker) GetFullName() string {
	return fmt.Sprintf("%s %s", w.FirstName, w.LastName)
}

// SetPersonID validates, normalizes and classifies a DNI or NIE
func (w *Worker) SetPersonID(id kernel.PersonID) error {
	if !id.IsValid() {
		return ErrInvalidPersonID().WithDetail("person_id", id.Mask())
	}
	w.PersonID = id.Normalize()
	w.PersonIDKind = w.PersonID.Kind()
	return nil
}

func (w *Worker) Activate() error {
	if w.IsActive() {
		return ErrWorkerAlreadyActive()
	}
	w.Status = WorkerStatusActive
	w.UpdatedAt = time.Now()
	return nil
}

func (w *Worker) Deactivate() error {
	if !w.IsActive() {
		return ErrWorkerAlreadyInactive()
	}
	w.Status = WorkerStatusInactive
	w.UpdatedAt = time.Now()
	return nil
}
