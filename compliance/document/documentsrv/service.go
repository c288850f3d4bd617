package documentsrv

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/pkg/audit"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/fsx"
	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/logx"
	"github.com/Abraxas-365/cae/pkg/metrics"
	"github.com/google/uuid"
)

// sweepBatch bounds how many documents one expiry query loads
const sweepBatch = 100

// Service provides document upload, validation and review
type Service struct {
	repo        document.Repository
	queue       document.JobQueue
	files       fsx.FileSystem
	companyRepo company.Repository
	workerRepo  worker.Repository
	inspector   document.Inspector
	publisher   audit.Publisher
	metrics     *metrics.Metrics
	maxAttempts int
}

// NewService creates a new document service
func NewService(
	repo document.Repository,
	queue document.JobQueue,
	files fsx.FileSystem,
	companyRepo company.Repository,
	workerRepo worker.Repository,
	inspector document.Inspector,
	publisher audit.Publisher,
	m *metrics.Metrics,
	maxAttempts int,
) *Service {
	if maxAttempts <= 0 {
		maxAttempts = document.DefaultMaxAttempts
	}
	return &Service{
		repo:        repo,
		queue:       queue,
		files:       files,
		companyRepo: companyRepo,
		workerRepo:  workerRepo,
		inspector:   inspector,
		publisher:   publisher,
		metrics:     m,
		maxAttempts: maxAttempts,
	}
}

// ============================================================================
// Upload
// ============================================================================

// ResolveOwner finds the company a document owner belongs to and the tax
// identifier the document must be issued to
func (s *Service) ResolveOwner(ctx context.Context, tenantID kernel.TenantID, ownerType document.OwnerType, ownerID string) (kernel.CompanyID, document.Subject, error) {
	switch ownerType {
	case document.OwnerCompany:
		c, err := s.companyRepo.GetByID(ctx, tenantID, kernel.CompanyID(ownerID))
		if err != nil {
			return "", document.Subject{}, ownerLookupError(err, company.CodeCompanyNotFound, ownerID)
		}
		return c.ID, document.Subject{OwnerType: ownerType, TaxID: c.TaxID.String()}, nil
	case document.OwnerWorker:
		w, err := s.workerRepo.GetByID(ctx, tenantID, kernel.WorkerID(ownerID))
		if err != nil {
			return "", document.Subject{}, ownerLookupError(err, worker.CodeWorkerNotFound, ownerID)
		}
		return w.CompanyID, document.Subject{OwnerType: ownerType, TaxID: w.PersonID.String()}, nil
	default:
		return "", document.Subject{}, document.ErrInvalidRequest().WithDetail("owner_type", string(ownerType))
	}
}

func ownerLookupError(err error, notFound errx.Code, ownerID string) error {
	if errx.IsCode(err, notFound) {
		return document.ErrOwnerNotFound().WithDetail("owner_id", ownerID)
	}
	return errx.Wrap(err, "failed to resolve document owner", errx.TypeInternal)
}

// FileType returns the normalized extension of name if it is accepted
func FileType(name string) (string, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return ext, slices.Contains(document.SupportedFileTypes, ext)
}

// Upload stores the file, records the document and queues it for validation.
// Older documents of the same owner and type are superseded.
func (s *Service) Upload(ctx context.Context, tenantID kernel.TenantID, req document.UploadRequest, content io.Reader) (*document.Document, error) {
	entry, ok := document.Lookup(req.Type)
	if !ok || entry.Owner != req.OwnerType {
		return nil, document.ErrInvalidType().
			WithDetail("type", string(req.Type)).
			WithDetail("owner_type", string(req.OwnerType))
	}
	if req.FileSize > document.MaxFileSize {
		return nil, document.ErrFileTooLarge().
			WithDetail("size", req.FileSize).
			WithDetail("max_size", document.MaxFileSize)
	}
	fileType, ok := FileType(req.FileName)
	if !ok {
		return nil, document.ErrUnsupportedFile().
			WithDetail("file_name", req.FileName).
			WithDetail("supported_types", document.SupportedFileTypes)
	}

	companyID, _, err := s.ResolveOwner(ctx, tenantID, req.OwnerType, req.OwnerID)
	if err != nil {
		return nil, err
	}

	// Format: documents/{tenant}/{owner_type}/{owner}/{yyyy}/{mm}/{uuid}.{ext}
	now := time.Now()
	id := uuid.NewString()
	filePath := s.files.Join(
		"documents",
		tenantID.String(),
		strings.ToLower(string(req.OwnerType)),
		req.OwnerID,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		id+"."+fileType,
	)
	if err := s.files.WriteFileStream(ctx, filePath, content); err != nil {
		return nil, document.ErrStorageFailed(err).WithDetail("file_name", req.FileName)
	}

	doc := &document.Document{
		ID:         kernel.NewDocumentID(id),
		TenantID:   tenantID,
		CompanyID:  companyID,
		OwnerType:  req.OwnerType,
		OwnerID:    req.OwnerID,
		Type:       req.Type,
		FileName:   req.FileName,
		FilePath:   filePath,
		FileType:   fileType,
		FileSize:   req.FileSize,
		Status:     document.StatusPending,
		IssuedAt:   req.IssuedAt,
		ExpiresAt:  req.ExpiresAt,
		UploadedBy: req.UploadedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		_ = s.files.DeleteFile(ctx, filePath)
		return nil, errx.Wrap(err, "failed to create document", errx.TypeInternal)
	}

	s.supersedeOlder(ctx, doc)
	s.metrics.IncDocumentUploaded(string(doc.Type))
	s.publish(ctx, audit.EventDocumentUploaded, doc, req.UploadedBy, map[string]any{"file_type": fileType})

	if err := s.enqueue(ctx, doc); err != nil {
		return nil, err
	}

	logx.Infof("Document %s (%s) uploaded for %s %s", doc.ID, doc.Type, doc.OwnerType, doc.OwnerID)
	return doc, nil
}

func (s *Service) supersedeOlder(ctx context.Context, doc *document.Document) {
	current, err := s.repo.ListCurrentByOwner(ctx, doc.TenantID, doc.OwnerType, doc.OwnerID)
	if err != nil {
		logx.Warnf("Failed to load previous documents of %s %s: %v", doc.OwnerType, doc.OwnerID, err)
		return
	}
	for i := range current {
		old := &current[i]
		if old.ID == doc.ID || old.Type != doc.Type || old.Status == document.StatusValidating {
			continue
		}
		if err := old.Supersede(); err != nil {
			continue
		}
		if err := s.repo.Update(ctx, old); err != nil {
			logx.Warnf("Failed to supersede document %s: %v", old.ID, err)
		}
	}
}

func (s *Service) enqueue(ctx context.Context, doc *document.Document) error {
	job := document.ValidationJob{
		ID:          kernel.NewJobID(uuid.NewString()),
		TenantID:    doc.TenantID,
		DocumentID:  doc.ID,
		MaxAttempts: s.maxAttempts,
		EnqueuedAt:  time.Now(),
	}
	if err := s.queue.Enqueue(ctx, job.ID, job); err != nil {
		doc.LastError = "enqueue_failed"
		if updateErr := s.repo.Update(ctx, doc); updateErr != nil {
			logx.Errorf("Failed to record enqueue failure of document %s: %v", doc.ID, updateErr)
		}
		return document.ErrQueueEnqueueFailed(err).WithDetail("document_id", doc.ID.String())
	}
	return nil
}

// RetryValidation re-queues a document stuck in PENDING, e.g. after the
// queue was unavailable at upload time
func (s *Service) RetryValidation(ctx context.Context, tenantID kernel.TenantID, id kernel.DocumentID) (*document.Document, error) {
	doc, err := s.GetDocument(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != document.StatusPending {
		return nil, document.ErrInvalidStatusTransition().
			WithDetail("status", string(doc.Status)).
			WithDetail("required_status", string(document.StatusPending))
	}
	if err := s.enqueue(ctx, doc); err != nil {
		return nil, err
	}
	logx.Infof("Document %s re-queued for validation", doc.ID)
	return doc, nil
}

// ============================================================================
// Validation job
// ============================================================================

// ProcessJob runs one validation attempt. Jobs for documents that moved on
// (superseded, already decided) are dropped.
func (s *Service) ProcessJob(ctx context.Context, job *document.ValidationJob) error {
	start := time.Now()
	log := logx.With("job_id", job.ID.String(), "document_id", job.DocumentID.String())

	doc, err := s.repo.GetByID(ctx, job.TenantID, job.DocumentID)
	if err != nil {
		if errx.IsCode(err, document.CodeDocumentNotFound) {
			log.Warnf("Dropping job for missing document")
			return nil
		}
		return errx.Wrap(err, "failed to load document", errx.TypeInternal)
	}
	if doc.Status != document.StatusPending {
		log.Infof("Skipping job, document is %s", doc.Status)
		return nil
	}

	log.Infof("Validating %s, attempt %d/%d", doc.Type, job.Attempt+1, job.MaxAttempts)
	if err := doc.StartValidation(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return errx.Wrap(err, "failed to mark document validating", errx.TypeInternal)
	}

	_, subject, err := s.ResolveOwner(ctx, doc.TenantID, doc.OwnerType, doc.OwnerID)
	if err != nil {
		return s.fail(ctx, doc, "owner_not_found", start)
	}

	data, err := s.files.ReadFile(ctx, doc.FilePath)
	if err != nil {
		return s.handleJobError(ctx, doc, job, "file_read_failed", err)
	}

	extraction, err := s.inspector.Inspect(ctx, document.InspectRequest{
		Type:     doc.Type,
		FileType: doc.FileType,
		Data:     data,
	})
	if err != nil {
		return s.handleJobError(ctx, doc, job, "inspection_failed", err)
	}

	validation := document.Evaluate(doc.Type, subject, *extraction, time.Now())
	if err := doc.ApplyValidation(validation); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return errx.Wrap(err, "failed to save validation result", errx.TypeInternal)
	}

	s.metrics.ObserveValidation(string(doc.Status), start)
	s.publish(ctx, audit.EventDocumentStatusChanged, doc, "system", map[string]any{
		"status": doc.Status,
		"issues": validation.Issues,
	})
	log.Infof("Document validated: %s %v", doc.Status, validation.Issues)
	return nil
}

// handleJobError retries with exponential backoff until attempts run out,
// then rejects the document
func (s *Service) handleJobError(ctx context.Context, doc *document.Document, job *document.ValidationJob, errorType string, cause error) error {
	job.Attempt++

	details := map[string]any{
		"error":        cause.Error(),
		"error_type":   errorType,
		"attempt":      job.Attempt,
		"max_attempts": job.MaxAttempts,
		"document_id":  doc.ID.String(),
	}

	if job.Attempt >= job.MaxAttempts {
		logx.Errorf("Document validation permanently failed: DocumentID=%s, Error=%s, Attempts=%d/%d",
			doc.ID, errorType, job.Attempt, job.MaxAttempts)
		if err := s.fail(ctx, doc, errorType, time.Now()); err != nil {
			return err
		}
		return document.ErrMaxRetriesReached().WithCause(cause).WithDetails(details)
	}

	retryDelay := document.RetryDelay(job.Attempt)
	logx.Warnf("Document validation failed, will retry: DocumentID=%s, Attempt=%d/%d, NextRetryIn=%s, Error=%s",
		doc.ID, job.Attempt, job.MaxAttempts, retryDelay, errorType)

	if err := doc.Requeue(errorType); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		logx.Errorf("Failed to update document for retry: %v", err)
	}

	if err := s.queue.EnqueueDelayed(ctx, job.ID, job, retryDelay); err != nil {
		logx.Errorf("Failed to enqueue for retry: %v", err)
		// Requeue moved the document back to PENDING; go through VALIDATING to reject it
		if startErr := doc.StartValidation(); startErr == nil {
			_ = s.fail(ctx, doc, errorType+" (retry enqueue failed)", time.Now())
		}
		return document.ErrQueueEnqueueFailed(err).WithDetails(details)
	}

	s.metrics.IncJobRetry()
	return document.ErrInspectionFailed(cause).
		WithDetail("will_retry", true).
		WithDetail("retry_in", retryDelay.String()).
		WithDetails(details)
}

func (s *Service) fail(ctx context.Context, doc *document.Document, reason string, start time.Time) error {
	if err := doc.FailValidation(reason); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return errx.Wrap(err, "failed to reject document", errx.TypeInternal)
	}
	s.metrics.ObserveValidation(string(doc.Status), start)
	s.publish(ctx, audit.EventDocumentStatusChanged, doc, "system", map[string]any{
		"status": doc.Status,
		"reason": reason,
	})
	return nil
}

// ============================================================================
// Queries and review
// ============================================================================

// GetDocument retrieves a document by ID
func (s *Service) GetDocument(ctx context.Context, tenantID kernel.TenantID, id kernel.DocumentID) (*document.Document, error) {
	doc, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errx.IsCode(err, document.CodeDocumentNotFound) {
			return nil, document.ErrDocumentNotFound().WithDetail("document_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to get document", errx.TypeInternal)
	}
	return doc, nil
}

// ListDocuments lists documents; companies restricts to a set of owners, nil means any
func (s *Service) ListDocuments(ctx context.Context, tenantID kernel.TenantID, req document.ListDocumentsRequest, companies []kernel.CompanyID) (*kernel.Paginated[document.Document], error) {
	if req.Status != "" && !req.Status.IsValid() {
		return nil, document.ErrInvalidRequest().WithDetail("status", string(req.Status))
	}
	if req.Type != "" && !req.Type.IsValid() {
		return nil, document.ErrInvalidType().WithDetail("type", string(req.Type))
	}
	if req.OwnerType != "" && !req.OwnerType.IsValid() {
		return nil, document.ErrInvalidRequest().WithDetail("owner_type", string(req.OwnerType))
	}
	req.Pagination = req.Pagination.Sanitize()
	req.CompanyIDs = companies

	page, err := s.repo.List(ctx, tenantID, req)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list documents", errx.TypeInternal)
	}
	return page, nil
}

// Download opens the stored file of a document
func (s *Service) Download(ctx context.Context, tenantID kernel.TenantID, id kernel.DocumentID) (io.ReadCloser, *document.Document, error) {
	doc, err := s.GetDocument(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.ReadFileStream(ctx, doc.FilePath)
	if err != nil {
		if errx.IsCode(err, fsx.CodeFileNotFound) {
			return nil, nil, err
		}
		return nil, nil, document.ErrStorageFailed(err).WithDetail("document_id", id.String())
	}
	return rc, doc, nil
}

// Approve accepts a document waiting for review
func (s *Service) Approve(ctx context.Context, tenantID kernel.TenantID, id kernel.DocumentID, reviewer string, req document.ApproveRequest) (*document.Document, error) {
	return s.review(ctx, tenantID, id, reviewer, func(d *document.Document) error {
		return d.Approve(reviewer, req.ExpiresAt)
	})
}

// Reject refuses a document waiting for review
func (s *Service) Reject(ctx context.Context, tenantID kernel.TenantID, id kernel.DocumentID, reviewer string, req document.RejectRequest) (*document.Document, error) {
	return s.review(ctx, tenantID, id, reviewer, func(d *document.Document) error {
		return d.Reject(reviewer, strings.TrimSpace(req.Reason))
	})
}

func (s *Service) review(ctx context.Context, tenantID kernel.TenantID, id kernel.DocumentID, reviewer string, apply func(*document.Document) error) (*document.Document, error) {
	doc, err := s.GetDocument(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(doc); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, errx.Wrap(err, "failed to save review", errx.TypeInternal)
	}

	s.publish(ctx, audit.EventDocumentStatusChanged, doc, reviewer, map[string]any{
		"status": doc.Status,
		"reason": doc.RejectionReason,
		"manual": true,
	})
	logx.Infof("Document %s reviewed by %s: %s", doc.ID, reviewer, doc.Status)
	return doc, nil
}

// SweepExpired marks every VALID document whose expiry passed as EXPIRED
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired := 0
	for {
		batch, err := s.repo.ListExpirable(ctx, now, sweepBatch)
		if err != nil {
			return expired, errx.Wrap(err, "failed to list expirable documents", errx.TypeInternal)
		}

		progressed := 0
		for i := range batch {
			doc := &batch[i]
			if err := doc.Expire(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, doc); err != nil {
				logx.Errorf("Failed to expire document %s: %v", doc.ID, err)
				continue
			}
			progressed++
			s.publish(ctx, audit.EventDocumentExpired, doc, "system", map[string]any{
				"expires_at": doc.ExpiresAt,
			})
		}
		expired += progressed

		// A short batch is the last one; a batch with no progress would loop forever
		if len(batch) < sweepBatch || progressed == 0 {
			break
		}
	}

	s.metrics.AddExpired(expired)
	if expired > 0 {
		logx.Infof("Expired %d documents", expired)
	}
	return expired, nil
}

// Summary checks an owner's current documents against the required catalog
func (s *Service) Summary(ctx context.Context, tenantID kernel.TenantID, ownerType document.OwnerType, ownerID string) (*document.ComplianceSummary, error) {
	if !ownerType.IsValid() {
		return nil, document.ErrInvalidRequest().WithDetail("owner_type", string(ownerType))
	}
	docs, err := s.repo.ListCurrentByOwner(ctx, tenantID, ownerType, ownerID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to load owner documents", errx.TypeInternal)
	}
	return document.Summarize(ownerType, ownerID, docs, time.Now()), nil
}

// CountByStatus is used by the dashboard
func (s *Service) CountByStatus(ctx context.Context, tenantID kernel.TenantID) (map[document.DocumentStatus]int, error) {
	counts, err := s.repo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to count documents", errx.TypeInternal)
	}
	return counts, nil
}

// CountExpiringWithin counts VALID documents expiring between now and now+window
func (s *Service) CountExpiringWithin(ctx context.Context, tenantID kernel.TenantID, window time.Duration) (int, error) {
	now := time.Now()
	n, err := s.repo.CountExpiringBetween(ctx, tenantID, now, now.Add(window))
	if err != nil {
		return 0, errx.Wrap(err, "failed to count expiring documents", errx.TypeInternal)
	}
	return n, nil
}

// Catalog lists the document types with labels in the given locale
func Catalog(locale i18n.Locale) []document.DocumentTypeResponse {
	entries := document.Catalog()
	out := make([]document.DocumentTypeResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, document.DocumentTypeResponse{
			Type:           entry.Type,
			Owner:          entry.Owner,
			RequiresExpiry: entry.RequiresExpiry,
			Label:          i18n.T(locale, entry.Label),
		})
	}
	return out
}

func (s *Service) publish(ctx context.Context, t audit.EventType, doc *document.Document, actor string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["type"] = doc.Type
	payload["owner_type"] = doc.OwnerType
	payload["owner_id"] = doc.OwnerID
	payload["company_id"] = doc.CompanyID

	if err := s.publisher.Publish(ctx, audit.Event{
		Type:       t,
		TenantID:   doc.TenantID,
		ActorID:    actor,
		Subject:    "document:" + doc.ID.String(),
		Payload:    payload,
		OccurredAt: time.Now(),
	}); err != nil {
		logx.Warnf("Failed to publish %s for document %s: %v", t, doc.ID, err)
	}
}
