package accesssrv

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/compliance/access"
	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/pkg/audit"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/logx"
	"github.com/Abraxas-365/cae/pkg/metrics"
	"github.com/Abraxas-365/cae/pkg/taxid"
	"github.com/google/uuid"
)

// AccessService decides and logs site entries and exits
type AccessService struct {
	accessRepo  access.Repository
	workerRepo  worker.Repository
	companyRepo company.Repository
	compliance  access.ComplianceChecker
	publisher   audit.Publisher
	metrics     *metrics.Metrics
}

// NewAccessService creates a new instance of the access service
func NewAccessService(
	accessRepo access.Repository,
	workerRepo worker.Repository,
	companyRepo company.Repository,
	compliance access.ComplianceChecker,
	publisher audit.Publisher,
	m *metrics.Metrics,
) *AccessService {
	return &AccessService{
		accessRepo:  accessRepo,
		workerRepo:  workerRepo,
		companyRepo: companyRepo,
		compliance:  compliance,
		publisher:   publisher,
		metrics:     m,
	}
}

// RegisterAccess decides whether a person may cross the gate and records
// the attempt. Denials are not errors: the log carries the reason.
func (s *AccessService) RegisterAccess(ctx context.Context, tenantID kernel.TenantID, req access.RegisterAccessRequest, recordedBy string) (*access.AccessLog, error) {
	direction := access.Direction(strings.ToUpper(string(req.Direction)))
	if !direction.IsValid() {
		return nil, access.ErrInvalidDirection().WithDetail("direction", string(req.Direction))
	}
	if req.SiteID.IsEmpty() {
		return nil, access.ErrSiteRequired()
	}

	personID := taxid.Normalize(req.PersonID)
	log := &access.AccessLog{
		ID:         kernel.NewAccessLogID(uuid.NewString()),
		TenantID:   tenantID,
		SiteID:     req.SiteID,
		PersonID:   personID,
		Direction:  direction,
		OccurredAt: time.Now(),
		RecordedBy: recordedBy,
	}

	facts, err := s.gather(ctx, tenantID, direction, log)
	if err != nil {
		return nil, err
	}
	log.Result, log.DenyReason = access.Decide(direction, facts)
	if log.IsGranted() {
		log.Missing = nil
	}

	if err := s.accessRepo.Create(ctx, log); err != nil {
		return nil, errx.Wrap(err, "failed to record access", errx.TypeInternal)
	}

	s.metrics.ObserveAccess(string(log.Direction), string(log.Result), string(log.DenyReason))
	s.publish(ctx, log)

	if log.IsGranted() {
		logx.Infof("Access %s granted at site %s to worker %s", log.Direction, log.SiteID, *log.WorkerID)
	} else {
		logx.Infof("Access %s denied at site %s: %s", log.Direction, log.SiteID, log.DenyReason)
	}
	return log, nil
}

// gather loads the worker, its company and, for entries, their compliance.
// Identity fields found along the way are copied to the log.
func (s *AccessService) gather(ctx context.Context, tenantID kernel.TenantID, direction access.Direction, log *access.AccessLog) (access.Facts, error) {
	var facts access.Facts

	facts.PersonIDValid = taxid.ValidatePersonID(log.PersonID)
	if !facts.PersonIDValid {
		return facts, nil
	}

	w, err := s.workerRepo.GetByPersonID(ctx, tenantID, kernel.PersonID(log.PersonID))
	if err != nil {
		if errx.IsCode(err, worker.CodeWorkerNotFound) {
			return facts, nil
		}
		return facts, errx.Wrap(err, "failed to look up worker", errx.TypeInternal)
	}
	facts.WorkerKnown = true
	facts.WorkerActive = w.IsActive()
	log.WorkerID = &w.ID
	log.CompanyID = &w.CompanyID

	if direction == access.DirectionExit {
		return facts, nil
	}

	c, err := s.companyRepo.GetByID(ctx, tenantID, w.CompanyID)
	if err != nil && !errx.IsCode(err, company.CodeCompanyNotFound) {
		return facts, errx.Wrap(err, "failed to look up company", errx.TypeInternal)
	}
	facts.CompanyActive = err == nil && c.IsActive()

	if !facts.WorkerActive || !facts.CompanyActive {
		return facts, nil
	}

	ws, err := s.compliance.Summary(ctx, tenantID, document.OwnerWorker, w.ID.String())
	if err != nil {
		return facts, err
	}
	cs, err := s.compliance.Summary(ctx, tenantID, document.OwnerCompany, w.CompanyID.String())
	if err != nil {
		return facts, err
	}
	facts.WorkerCompliant = ws.IsCompliant()
	facts.CompanyCompliant = cs.IsCompliant()
	log.Missing = append(notValid(ws), notValid(cs)...)
	return facts, nil
}

// notValid lists the required types an owner does not hold a valid document for
func notValid(s *document.ComplianceSummary) []document.DocumentType {
	var out []document.DocumentType
	for _, t := range s.Required {
		if !slices.Contains(s.Valid, t) {
			out = append(out, t)
		}
	}
	return out
}

// Message renders the gate display text for a decision
func Message(locale i18n.Locale, l *access.AccessLog) string {
	if l.IsGranted() {
		return ""
	}
	return i18n.T(locale, l.DenyReason.Label())
}

// GetAccessLog retrieves a log entry by ID
func (s *AccessService) GetAccessLog(ctx context.Context, tenantID kernel.TenantID, id kernel.AccessLogID) (*access.AccessLog, error) {
	l, err := s.accessRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errx.IsCode(err, access.CodeAccessLogNotFound) {
			return nil, err
		}
		return nil, errx.Wrap(err, "failed to get access log", errx.TypeInternal)
	}
	return l, nil
}

// ListAccessLogs lists decisions; companies restricts to a set, nil means any
func (s *AccessService) ListAccessLogs(ctx context.Context, tenantID kernel.TenantID, req access.ListAccessLogsRequest, companies []kernel.CompanyID) (*kernel.Paginated[access.AccessLog], error) {
	if req.Direction != "" && !req.Direction.IsValid() {
		return nil, access.ErrInvalidDirection().WithDetail("direction", string(req.Direction))
	}
	if req.Result != "" && !req.Result.IsValid() {
		return nil, access.ErrInvalidRequest().WithDetail("result", string(req.Result))
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return nil, access.ErrInvalidRequest().WithDetail("to", "before from")
	}
	req.Pagination = req.Pagination.Sanitize()
	req.CompanyIDs = companies

	page, err := s.accessRepo.List(ctx, tenantID, req)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list access logs", errx.TypeInternal)
	}
	return page, nil
}

// CountToday returns granted and denied decisions since local midnight
func (s *AccessService) CountToday(ctx context.Context, tenantID kernel.TenantID) (granted, denied int, err error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	counts, err := s.accessRepo.CountByResult(ctx, tenantID, midnight, midnight.AddDate(0, 0, 1))
	if err != nil {
		return 0, 0, errx.Wrap(err, "failed to count access decisions", errx.TypeInternal)
	}
	return counts[access.ResultGranted], counts[access.ResultDenied], nil
}

func (s *AccessService) publish(ctx context.Context, l *access.AccessLog) {
	if s.publisher == nil {
		return
	}
	eventType := audit.EventAccessGranted
	if !l.IsGranted() {
		eventType = audit.EventAccessDenied
	}

	payload := map[string]any{
		"site_id":   l.SiteID,
		"direction": l.Direction,
		"person_id": kernel.PersonID(l.PersonID).Mask(),
	}
	if l.DenyReason != "" {
		payload["reason"] = l.DenyReason
	}
	if l.WorkerID != nil {
		payload["worker_id"] = *l.WorkerID
		payload["company_id"] = *l.CompanyID
	}
	if len(l.Missing) > 0 {
		payload["missing"] = l.Missing
	}

	if err := s.publisher.Publish(ctx, audit.Event{
		Type:       eventType,
		TenantID:   l.TenantID,
		ActorID:    l.RecordedBy,
		Subject:    "access:" + l.ID.String(),
		Payload:    payload,
		OccurredAt: l.OccurredAt,
	}); err != nil {
		logx.Warnf("Failed to publish %s for access %s: %v", eventType, l.ID, err)
	}
}
