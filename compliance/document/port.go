package document

import (
	"context"
	"time"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error

	Update(ctx context.Context, d *Document) error

	GetByID(ctx context.Context, tenantID kernel.TenantID, id kernel.DocumentID) (*Document, error)

	List(ctx context.Context, tenantID kernel.TenantID, req ListDocumentsRequest) (*kernel.Paginated[Document], error)

	// ListCurrentByOwner returns every non-superseded document of an owner
	ListCurrentByOwner(ctx context.Context, tenantID kernel.TenantID, ownerType OwnerType, ownerID string) ([]Document, error)

	// ListExpirable returns VALID documents of any tenant whose expiry is before now
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]Document, error)

	CountByStatus(ctx context.Context, tenantID kernel.TenantID) (map[DocumentStatus]int, error)

	// CountExpiringBetween counts VALID documents expiring in [from, to)
	CountExpiringBetween(ctx context.Context, tenantID kernel.TenantID, from, to time.Time) (int, error)
}

// JobQueue carries validation jobs to the workers
type JobQueue interface {
	Enqueue(ctx context.Context, jobID kernel.JobID, payload any) error

	// Dequeue blocks up to timeout; (nil, nil) means no job was ready
	Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error)

	EnqueueDelayed(ctx context.Context, jobID kernel.JobID, payload any, delay time.Duration) error

	// MoveDelayedToReady promotes delayed jobs whose time has come
	MoveDelayedToReady(ctx context.Context) (int, error)

	Stats(ctx context.Context) (QueueStats, error)
}

// QueueStats is the validation backlog at one point in time
type QueueStats struct {
	Ready   int64 `json:"ready"`
	Delayed int64 `json:"delayed"`
}

// InspectRequest is the raw file handed to the inspector
type InspectRequest struct {
	Type     DocumentType
	FileType string
	Data     []byte
}

// Inspector reads a document file and extracts the fields the rules need
type Inspector interface {
	Inspect(ctx context.Context, req InspectRequest) (*Extraction, error)
}
