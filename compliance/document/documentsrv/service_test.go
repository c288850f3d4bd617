package documentsrv_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/company/companyinfra"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/document/documentinfra"
	"github.com/Abraxas-365/cae/compliance/document/documentsrv"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/compliance/worker/workerinfra"
	"github.com/Abraxas-365/cae/pkg/audit"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/fsx/fsxmem"
	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type fakeInspector struct {
	mu    sync.Mutex
	ex    document.Extraction
	err   error
	calls int
}

func (f *fakeInspector) Inspect(_ context.Context, req document.InspectRequest) (*document.Extraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ex := f.ex
	return &ex, nil
}

type DocumentServiceSuite struct {
	suite.Suite
	ctx       context.Context
	docs      *documentinfra.MemoryDocumentRepository
	queue     *documentinfra.MemoryQueue
	files     *fsxmem.MemFileSystem
	inspector *fakeInspector
	recorder  *audit.Recorder
	metrics   *metrics.Metrics
	svc       *documentsrv.Service
}

func TestDocumentServiceSuite(t *testing.T) {
	suite.Run(t, new(DocumentServiceSuite))
}

func (s *DocumentServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.docs = documentinfra.NewMemoryDocumentRepository()
	s.queue = documentinfra.NewMemoryQueue(10)
	s.files = fsxmem.New()
	s.recorder = audit.NewRecorder(100)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.inspector = &fakeInspector{ex: document.Extraction{
		HolderName:   "Ana García",
		HolderTaxID:  "12345678Z",
		DocumentType: "ID_DOCUMENT",
		ExpiryDate:   "2099-12-31",
		Legible:      true,
		Confidence:   0.95,
	}}

	companies := companyinfra.NewMemoryCompanyRepository()
	workers := workerinfra.NewMemoryWorkerRepository()
	s.Require().NoError(companies.Create(s.ctx, &company.Company{
		ID: "c-1", TenantID: "t1", Name: "Obras Sur", TaxID: "B12345674", Status: company.CompanyStatusActive,
	}))
	s.Require().NoError(workers.Create(s.ctx, &worker.Worker{
		ID: "w-1", TenantID: "t1", CompanyID: "c-1", FirstName: "Ana", LastName: "García",
		PersonID: "12345678Z", Status: worker.WorkerStatusActive,
	}))
	s.Require().NoError(workers.Create(s.ctx, &worker.Worker{
		ID: "w-2", TenantID: "t1", CompanyID: "c-1", FirstName: "Luis", LastName: "Pérez",
		PersonID: "87654321X", Status: worker.WorkerStatusActive,
	}))

	s.svc = documentsrv.NewService(s.docs, s.queue, s.files, companies, workers, s.inspector, s.recorder, s.metrics, 3)
}

func (s *DocumentServiceSuite) upload(ownerID string, docType document.DocumentType, name string) (*document.Document, error) {
	content := []byte("%PDF-1.4 fake")
	return s.svc.Upload(s.ctx, "t1", document.UploadRequest{
		OwnerType:  document.OwnerWorker,
		OwnerID:    ownerID,
		Type:       docType,
		FileName:   name,
		FileSize:   int64(len(content)),
		UploadedBy: "u-1",
	}, bytes.NewReader(content))
}

func (s *DocumentServiceSuite) nextJob() *document.ValidationJob {
	data, err := s.queue.Dequeue(s.ctx, 10*time.Millisecond)
	s.Require().NoError(err)
	s.Require().NotNil(data, "expected a queued job")
	var job document.ValidationJob
	s.Require().NoError(json.Unmarshal(data, &job))
	return &job
}

func (s *DocumentServiceSuite) reload(id kernel.DocumentID) *document.Document {
	d, err := s.svc.GetDocument(s.ctx, "t1", id)
	s.Require().NoError(err)
	return d
}

func (s *DocumentServiceSuite) TestUploadRejectsBadInput() {
	cases := []struct {
		name    string
		ownerID string
		docType document.DocumentType
		file    string
		code    errx.Code
	}{
		{"company type on a worker", "w-1", document.TypeREA, "rea.pdf", document.CodeInvalidType},
		{"unknown type", "w-1", "PASSPORT", "p.pdf", document.CodeInvalidType},
		{"unsupported extension", "w-1", document.TypeIDDocument, "dni.docx", document.CodeUnsupportedFile},
		{"unknown worker", "w-404", document.TypeIDDocument, "dni.pdf", document.CodeOwnerNotFound},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.upload(tc.ownerID, tc.docType, tc.file)
			s.True(errx.IsCode(err, tc.code), "got %v", err)
		})
	}

	_, err := s.svc.Upload(s.ctx, "t1", document.UploadRequest{
		OwnerType: document.OwnerWorker,
		OwnerID:   "w-1",
		Type:      document.TypeIDDocument,
		FileName:  "dni.pdf",
		FileSize:  document.MaxFileSize + 1,
	}, strings.NewReader("x"))
	s.True(errx.IsCode(err, document.CodeFileTooLarge))
}

func (s *DocumentServiceSuite) TestUploadStoresAndQueues() {
	d, err := s.upload("w-1", document.TypeIDDocument, "DNI.PDF")
	s.Require().NoError(err)

	s.Equal(document.StatusPending, d.Status)
	s.Equal(kernel.CompanyID("c-1"), d.CompanyID)
	s.Equal("pdf", d.FileType)
	s.True(strings.HasPrefix(d.FilePath, "documents/t1/worker/w-1/"), d.FilePath)
	s.True(strings.HasSuffix(d.FilePath, d.ID.String()+".pdf"), d.FilePath)

	exists, err := s.files.Exists(s.ctx, d.FilePath)
	s.Require().NoError(err)
	s.True(exists)

	job := s.nextJob()
	s.Equal(d.ID, job.DocumentID)
	s.Equal(3, job.MaxAttempts)

	events := s.recorder.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.EventDocumentUploaded, events[0].Type)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.DocumentsUploaded.WithLabelValues("ID_DOCUMENT")))
}

func (s *DocumentServiceSuite) TestReuploadSupersedesPrevious() {
	first, err := s.upload("w-1", document.TypeIDDocument, "dni.pdf")
	s.Require().NoError(err)
	second, err := s.upload("w-1", document.TypeIDDocument, "dni-new.jpg")
	s.Require().NoError(err)

	s.Equal(document.StatusSuperseded, s.reload(first.ID).Status)
	s.Equal(document.StatusPending, s.reload(second.ID).Status)

	// The job of the superseded document is dropped without inspecting it
	s.Require().NoError(s.svc.ProcessJob(s.ctx, s.nextJob()))
	s.Equal(0, s.inspector.calls)
}

func (s *DocumentServiceSuite) TestProcessJobValid() {
	d, err := s.upload("w-1", document.TypeIDDocument, "dni.pdf")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.ProcessJob(s.ctx, s.nextJob()))

	got := s.reload(d.ID)
	s.Equal(document.StatusValid, got.Status)
	s.Equal(1, got.Attempts)
	s.Require().NotNil(got.ExpiresAt)
	s.Equal(2099, got.ExpiresAt.Year())
	s.Require().NotNil(got.Validation)
	s.Empty(got.Validation.Issues)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.DocumentOutcomes.WithLabelValues("VALID")))
}

func (s *DocumentServiceSuite) TestProcessJobHolderMismatch() {
	d, err := s.upload("w-2", document.TypeIDDocument, "dni.png")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.ProcessJob(s.ctx, s.nextJob()))

	got := s.reload(d.ID)
	s.Equal(document.StatusRejected, got.Status)
	s.Equal(string(i18n.KeyIssueHolderMismatch), got.RejectionReason)
}

func (s *DocumentServiceSuite) TestRetriesThenRejects() {
	s.inspector.err = errors.New("model unavailable")
	d, err := s.upload("w-1", document.TypeIDDocument, "dni.pdf")
	s.Require().NoError(err)
	job := s.nextJob()

	err = s.svc.ProcessJob(s.ctx, job)
	s.True(errx.IsCode(err, document.CodeInspectionFailed))
	s.Equal(document.StatusPending, s.reload(d.ID).Status)
	s.Equal("inspection_failed", s.reload(d.ID).LastError)
	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(document.QueueStats{Ready: 0, Delayed: 1}, stats)

	err = s.svc.ProcessJob(s.ctx, job)
	s.True(errx.IsCode(err, document.CodeInspectionFailed))

	err = s.svc.ProcessJob(s.ctx, job)
	s.True(errx.IsCode(err, document.CodeMaxRetriesReached))

	got := s.reload(d.ID)
	s.Equal(document.StatusRejected, got.Status)
	s.Equal(3, got.Attempts)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.JobRetries))
}

func (s *DocumentServiceSuite) TestManualReview() {
	s.inspector.ex.Confidence = 0.5
	d, err := s.upload("w-1", document.TypeIDDocument, "dni.pdf")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.ProcessJob(s.ctx, s.nextJob()))
	s.Equal(document.StatusReviewRequired, s.reload(d.ID).Status)

	_, err = s.svc.Reject(s.ctx, "t1", d.ID, "u-2", document.RejectRequest{Reason: "  "})
	s.True(errx.IsCode(err, document.CodeRejectionReasonRequired))

	approved, err := s.svc.Approve(s.ctx, "t1", d.ID, "u-2", document.ApproveRequest{})
	s.Require().NoError(err)
	s.Equal(document.StatusValid, approved.Status)
	s.Require().NotNil(approved.ReviewedBy)
	s.Equal("u-2", *approved.ReviewedBy)

	_, err = s.svc.Approve(s.ctx, "t1", d.ID, "u-2", document.ApproveRequest{})
	s.True(errx.IsCode(err, document.CodeNotUnderReview))
}

func (s *DocumentServiceSuite) TestSweepExpired() {
	yesterday := time.Now().Add(-24 * time.Hour)
	nextYear := time.Now().AddDate(1, 0, 0)
	s.Require().NoError(s.docs.Create(s.ctx, &document.Document{
		ID: "d-old", TenantID: "t1", CompanyID: "c-1", OwnerType: document.OwnerWorker, OwnerID: "w-1",
		Type: document.TypeMedicalFitness, Status: document.StatusValid, ExpiresAt: &yesterday,
	}))
	s.Require().NoError(s.docs.Create(s.ctx, &document.Document{
		ID: "d-new", TenantID: "t1", CompanyID: "c-1", OwnerType: document.OwnerWorker, OwnerID: "w-1",
		Type: document.TypeIDDocument, Status: document.StatusValid, ExpiresAt: &nextYear,
	}))

	n, err := s.svc.SweepExpired(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal(document.StatusExpired, s.reload("d-old").Status)
	s.Equal(document.StatusValid, s.reload("d-new").Status)

	events := s.recorder.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.EventDocumentExpired, events[0].Type)

	n, err = s.svc.SweepExpired(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *DocumentServiceSuite) TestDeclaredExpiryDoesNotOutliveDocument() {
	declared := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	printed := time.Now().AddDate(0, 1, 0)
	s.inspector.ex.DocumentType = string(document.TypeMedicalFitness)
	s.inspector.ex.ExpiryDate = printed.Format("2006-01-02")

	content := []byte("%PDF-1.4 fake")
	d, err := s.svc.Upload(s.ctx, "t1", document.UploadRequest{
		OwnerType:  document.OwnerWorker,
		OwnerID:    "w-1",
		Type:       document.TypeMedicalFitness,
		FileName:   "apto.pdf",
		FileSize:   int64(len(content)),
		ExpiresAt:  &declared,
		UploadedBy: "u-1",
	}, bytes.NewReader(content))
	s.Require().NoError(err)
	s.Require().NoError(s.svc.ProcessJob(s.ctx, s.nextJob()))

	got := s.reload(d.ID)
	s.Equal(document.StatusValid, got.Status)
	s.Require().NotNil(got.ExpiresAt)
	s.Equal(printed.Format("2006-01-02"), got.ExpiresAt.Format("2006-01-02"))

	n, err := s.svc.SweepExpired(s.ctx, time.Now().AddDate(0, 2, 0))
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal(document.StatusExpired, s.reload(d.ID).Status)
}

func (s *DocumentServiceSuite) TestSummary() {
	for _, t := range document.RequiredFor(document.OwnerWorker) {
		d, err := s.upload("w-1", t, "doc.pdf")
		s.Require().NoError(err)
		s.inspector.ex.DocumentType = string(t)
		s.Require().NoError(s.svc.ProcessJob(s.ctx, s.nextJob()))
		s.Equal(document.StatusValid, s.reload(d.ID).Status, t)
	}

	summary, err := s.svc.Summary(s.ctx, "t1", document.OwnerWorker, "w-1")
	s.Require().NoError(err)
	s.True(summary.IsCompliant())
	s.Empty(summary.Missing)

	other, err := s.svc.Summary(s.ctx, "t1", document.OwnerWorker, "w-2")
	s.Require().NoError(err)
	s.False(other.IsCompliant())
	s.Len(other.Missing, len(document.RequiredFor(document.OwnerWorker)))
}

func (s *DocumentServiceSuite) TestDownload() {
	d, err := s.upload("w-1", document.TypeIDDocument, "dni.pdf")
	s.Require().NoError(err)

	rc, got, err := s.svc.Download(s.ctx, "t1", d.ID)
	s.Require().NoError(err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	s.Require().NoError(err)
	s.Equal("%PDF-1.4 fake", string(data))
	s.Equal(d.ID, got.ID)

	_, _, err = s.svc.Download(s.ctx, "t2", d.ID)
	s.True(errx.IsCode(err, document.CodeDocumentNotFound))
}

func (s *DocumentServiceSuite) TestEnqueueFailureCanBeRetried() {
	s.queue = documentinfra.NewMemoryQueue(1)
	companies := companyinfra.NewMemoryCompanyRepository()
	workers := workerinfra.NewMemoryWorkerRepository()
	s.Require().NoError(companies.Create(s.ctx, &company.Company{ID: "c-1", TenantID: "t1", TaxID: "B12345674"}))
	s.Require().NoError(workers.Create(s.ctx, &worker.Worker{ID: "w-1", TenantID: "t1", CompanyID: "c-1", PersonID: "12345678Z"}))
	s.svc = documentsrv.NewService(s.docs, s.queue, s.files, companies, workers, s.inspector, nil, nil, 0)

	_, err := s.upload("w-1", document.TypeIDDocument, "a.pdf")
	s.Require().NoError(err)
	stuck, err := s.upload("w-1", document.TypePRLTraining, "b.pdf")
	s.True(errx.IsCode(err, document.CodeQueueEnqueueFailed))
	s.Nil(stuck)

	page, err := s.svc.ListDocuments(s.ctx, "t1", document.ListDocumentsRequest{Type: document.TypePRLTraining}, nil)
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	pending := page.Items[0]
	s.Equal("enqueue_failed", pending.LastError)

	s.nextJob()
	_, err = s.svc.RetryValidation(s.ctx, "t1", pending.ID)
	s.Require().NoError(err)
	s.Equal(pending.ID, s.nextJob().DocumentID)
}

func TestListDocumentsRestrictsCompanies(t *testing.T) {
	ctx := context.Background()
	docs := documentinfra.NewMemoryDocumentRepository()
	for _, d := range []document.Document{
		{ID: "d1", TenantID: "t1", CompanyID: "c-1", OwnerType: document.OwnerCompany, OwnerID: "c-1", Type: document.TypeREA, Status: document.StatusValid},
		{ID: "d2", TenantID: "t1", CompanyID: "c-2", OwnerType: document.OwnerCompany, OwnerID: "c-2", Type: document.TypeREA, Status: document.StatusValid},
		{ID: "d3", TenantID: "t1", CompanyID: "c-2", OwnerType: document.OwnerCompany, OwnerID: "c-2", Type: document.TypeTC2, Status: document.StatusSuperseded},
	} {
		assert.NoError(t, docs.Create(ctx, &d))
	}
	svc := documentsrv.NewService(docs, documentinfra.NewMemoryQueue(1), fsxmem.New(),
		companyinfra.NewMemoryCompanyRepository(), workerinfra.NewMemoryWorkerRepository(), &fakeInspector{}, nil, nil, 0)

	page, err := svc.ListDocuments(ctx, "t1", document.ListDocumentsRequest{}, []kernel.CompanyID{"c-2"})
	assert.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, kernel.DocumentID("d2"), page.Items[0].ID)

	page, err = svc.ListDocuments(ctx, "t1", document.ListDocumentsRequest{IncludeOld: true}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, page.Page.Total)

	_, err = svc.ListDocuments(ctx, "t1", document.ListDocumentsRequest{Status: "LOST"}, nil)
	assert.True(t, errx.IsCode(err, document.CodeInvalidRequest))
}

func TestCatalogLabels(t *testing.T) {
	es := documentsrv.Catalog(i18n.ES)
	en := documentsrv.Catalog(i18n.EN)
	assert.Len(t, es, 12)
	assert.Equal(t, document.TypeCivilLiabilityInsurance, es[0].Type)
	assert.Equal(t, document.OwnerWorker, es[len(es)-1].Owner)
	assert.NotEqual(t, es[0].Label, en[0].Label)
}
