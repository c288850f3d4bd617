package docworker_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/company/companyinfra"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/document/docworker"
	"github.com/Abraxas-365/cae/compliance/document/documentinfra"
	"github.com/Abraxas-365/cae/compliance/document/documentsrv"
	"github.com/Abraxas-365/cae/pkg/fsx/fsxmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type staticInspector struct {
	ex document.Extraction
}

func (s staticInspector) Inspect(context.Context, document.InspectRequest) (*document.Extraction, error) {
	ex := s.ex
	return &ex, nil
}

func TestWorkerProcessesQueueAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs := documentinfra.NewMemoryDocumentRepository()
	queue := documentinfra.NewMemoryQueue(10)
	companies := companyinfra.NewMemoryCompanyRepository()
	require.NoError(t, companies.Create(ctx, &company.Company{
		ID: "c-1", TenantID: "t1", TaxID: "B12345674", Status: company.CompanyStatusActive,
	}))

	inspector := staticInspector{ex: document.Extraction{
		HolderTaxID:  "B12345674",
		DocumentType: "REA",
		ExpiryDate:   "2099-01-01",
		Legible:      true,
		Confidence:   0.9,
	}}
	svc := documentsrv.NewService(docs, queue, fsxmem.New(), companies, nil, inspector, nil, nil, 0)

	expiredAt := time.Now().Add(-time.Hour)
	require.NoError(t, docs.Create(ctx, &document.Document{
		ID: "d-expired", TenantID: "t1", CompanyID: "c-1", OwnerType: document.OwnerCompany, OwnerID: "c-1",
		Type: document.TypeTC2, Status: document.StatusValid, ExpiresAt: &expiredAt,
	}))

	d, err := svc.Upload(ctx, "t1", document.UploadRequest{
		OwnerType: document.OwnerCompany,
		OwnerID:   "c-1",
		Type:      document.TypeREA,
		FileName:  "rea.pdf",
		FileSize:  3,
	}, bytes.NewReader([]byte("pdf")))
	require.NoError(t, err)

	w := docworker.NewValidationWorker(svc, queue, 2).WithIntervals(docworker.Intervals{
		Poll:    10 * time.Millisecond,
		Delayed: 10 * time.Millisecond,
		Expiry:  10 * time.Millisecond,
	})
	w.Start(ctx)

	assert.Eventually(t, func() bool {
		got, err := svc.GetDocument(ctx, "t1", d.ID)
		return err == nil && got.Status == document.StatusValid
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		got, err := svc.GetDocument(ctx, "t1", "d-expired")
		return err == nil && got.Status == document.StatusExpired
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	w.Wait()
}

func TestRunReturnsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	queue := documentinfra.NewMemoryQueue(1)
	svc := documentsrv.NewService(documentinfra.NewMemoryDocumentRepository(), queue, fsxmem.New(), nil, nil, staticInspector{}, nil, nil, 0)
	w := docworker.NewValidationWorker(svc, queue, 0).WithIntervals(docworker.Intervals{Poll: 5 * time.Millisecond, Expiry: -1})

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
