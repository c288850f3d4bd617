package accesssrv_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/cae/compliance/access"
	"github.com/Abraxas-365/cae/compliance/access/accessinfra"
	"github.com/Abraxas-365/cae/compliance/access/accesssrv"
	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/company/companyinfra"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/compliance/worker/workerinfra"
	"github.com/Abraxas-365/cae/pkg/audit"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

// fakeCompliance marks owners compliant by ID
type fakeCompliance struct {
	compliant map[string]bool
}

func (f *fakeCompliance) Summary(_ context.Context, _ kernel.TenantID, ownerType document.OwnerType, ownerID string) (*document.ComplianceSummary, error) {
	required := document.RequiredFor(ownerType)
	s := &document.ComplianceSummary{OwnerType: ownerType, OwnerID: ownerID, Required: required}
	if f.compliant[ownerID] {
		s.Status = document.Compliant
		s.Valid = required
	} else {
		s.Status = document.NonCompliant
		s.Valid = required[1:]
		s.Missing = required[:1]
	}
	return s, nil
}

type AccessServiceSuite struct {
	suite.Suite
	ctx        context.Context
	logs       *accessinfra.MemoryAccessRepository
	compliance *fakeCompliance
	recorder   *audit.Recorder
	metrics    *metrics.Metrics
	svc        *accesssrv.AccessService
}

func TestAccessServiceSuite(t *testing.T) {
	suite.Run(t, new(AccessServiceSuite))
}

func (s *AccessServiceSuite) SetupTest() {
	s.ctx = context.Background()
	companies := companyinfra.NewMemoryCompanyRepository()
	workers := workerinfra.NewMemoryWorkerRepository()
	for _, c := range []company.Company{
		{ID: "c-1", TenantID: "t1", TaxID: "B12345674", Status: company.CompanyStatusActive},
		{ID: "c-2", TenantID: "t1", TaxID: "C12345674", Status: company.CompanyStatusSuspended},
	} {
		s.Require().NoError(companies.Create(s.ctx, &c))
	}
	for _, w := range []worker.Worker{
		{ID: "w-1", TenantID: "t1", CompanyID: "c-1", PersonID: "12345678Z", Status: worker.WorkerStatusActive},
		{ID: "w-2", TenantID: "t1", CompanyID: "c-1", PersonID: "87654321X", Status: worker.WorkerStatusInactive},
		{ID: "w-3", TenantID: "t1", CompanyID: "c-2", PersonID: "00000000T", Status: worker.WorkerStatusActive},
	} {
		s.Require().NoError(workers.Create(s.ctx, &w))
	}

	s.logs = accessinfra.NewMemoryAccessRepository()
	s.compliance = &fakeCompliance{compliant: map[string]bool{"w-1": true, "c-1": true}}
	s.recorder = audit.NewRecorder(32)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.svc = accesssrv.NewAccessService(s.logs, workers, companies, s.compliance, s.recorder, s.metrics)
}

func (s *AccessServiceSuite) register(personID string, dir access.Direction) *access.AccessLog {
	l, err := s.svc.RegisterAccess(s.ctx, "t1", access.RegisterAccessRequest{
		PersonID:  personID,
		SiteID:    "site-1",
		Direction: dir,
	}, "gate-1")
	s.Require().NoError(err)
	return l
}

func (s *AccessServiceSuite) TestGrantedEntry() {
	l := s.register("12345678-z", "entry")

	s.Equal(access.ResultGranted, l.Result)
	s.Equal(access.DirectionEntry, l.Direction)
	s.Equal("12345678Z", l.PersonID)
	s.Require().NotNil(l.WorkerID)
	s.Equal(kernel.WorkerID("w-1"), *l.WorkerID)
	s.Empty(l.Missing)
	s.Empty(accesssrv.Message(i18n.ES, l))

	events := s.recorder.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.EventAccessGranted, events[0].Type)
	s.Equal("*****678Z", events[0].Payload["person_id"])
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AccessDecisions.WithLabelValues("ENTRY", "GRANTED", "")))
}

func (s *AccessServiceSuite) TestDenials() {
	tests := []struct {
		personID string
		dir      access.Direction
		reason   access.DenyReason
	}{
		{"12345678A", access.DirectionEntry, access.DenyInvalidPersonID},
		{"X0000000T", access.DirectionEntry, access.DenyUnknownWorker},
		{"87654321X", access.DirectionEntry, access.DenyWorkerInactive},
		{"00000000T", access.DirectionEntry, access.DenyCompanyInactive},
	}
	for _, tt := range tests {
		s.Run(string(tt.reason), func() {
			l := s.register(tt.personID, tt.dir)
			s.Equal(access.ResultDenied, l.Result)
			s.Equal(tt.reason, l.DenyReason)
			s.NotEmpty(accesssrv.Message(i18n.EN, l))
		})
	}

	for _, e := range s.recorder.Events() {
		s.Equal(audit.EventAccessDenied, e.Type)
	}
}

func (s *AccessServiceSuite) TestNonCompliantEntryListsMissing() {
	s.compliance.compliant["w-1"] = false

	l := s.register("12345678Z", access.DirectionEntry)
	s.Equal(access.DenyNonCompliant, l.DenyReason)
	s.Equal(document.RequiredFor(document.OwnerWorker)[:1], l.Missing)
	s.Equal("Documentación no conforme", accesssrv.Message(i18n.ES, l))
}

func (s *AccessServiceSuite) TestExitAlwaysGrantedForKnownWorkers() {
	for _, id := range []string{"87654321X", "00000000T"} {
		l := s.register(id, access.DirectionExit)
		s.Equal(access.ResultGranted, l.Result, id)
	}
	l := s.register("Y1234567X", access.DirectionExit)
	s.Equal(access.DenyUnknownWorker, l.DenyReason)
}

func (s *AccessServiceSuite) TestRejectsBadRequests() {
	_, err := s.svc.RegisterAccess(s.ctx, "t1", access.RegisterAccessRequest{PersonID: "12345678Z", SiteID: "site-1", Direction: "IN"}, "")
	s.True(errx.IsCode(err, access.CodeInvalidDirection))

	_, err = s.svc.RegisterAccess(s.ctx, "t1", access.RegisterAccessRequest{PersonID: "12345678Z", Direction: access.DirectionEntry}, "")
	s.True(errx.IsCode(err, access.CodeSiteRequired))
}

func (s *AccessServiceSuite) TestListAndCount() {
	s.register("12345678Z", access.DirectionEntry)
	s.register("12345678Z", access.DirectionExit)
	s.register("87654321X", access.DirectionEntry)
	s.register("12345678A", access.DirectionEntry)

	granted, denied, err := s.svc.CountToday(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal(2, granted)
	s.Equal(2, denied)

	page, err := s.svc.ListAccessLogs(s.ctx, "t1", access.ListAccessLogsRequest{Result: access.ResultDenied}, nil)
	s.Require().NoError(err)
	s.Equal(2, page.Page.Total)

	// Company-scoped listings drop attempts that matched no worker
	page, err = s.svc.ListAccessLogs(s.ctx, "t1", access.ListAccessLogsRequest{}, []kernel.CompanyID{"c-1"})
	s.Require().NoError(err)
	s.Equal(3, page.Page.Total)

	_, err = s.svc.ListAccessLogs(s.ctx, "t1", access.ListAccessLogsRequest{Result: "MAYBE"}, nil)
	s.True(errx.IsCode(err, access.CodeInvalidRequest))
}
