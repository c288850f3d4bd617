package document

import (
	"time"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

// DefaultMaxAttempts is how many times a validation job runs before the
// document is rejected
const DefaultMaxAttempts = 3

// ValidationJob is the queue payload. Progress lives on the document row,
// so the job only carries identity and retry state.
type ValidationJob struct {
	ID          kernel.JobID      `json:"id"`
	TenantID    kernel.TenantID   `json:"tenant_id"`
	DocumentID  kernel.DocumentID `json:"document_id"`
	Attempt     int               `json:"attempt"`
	MaxAttempts int               `json:"max_attempts"`
	EnqueuedAt  time.Time         `json:"enqueued_at"`
}

// RetryDelay is the exponential backoff before attempt n+1: 2^n minutes
func RetryDelay(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Minute
}
