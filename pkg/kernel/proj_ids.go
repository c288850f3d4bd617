package kernel

type CompanyID string

func NewCompanyID(id string) CompanyID { return CompanyID(id) }
func (c CompanyID) String() string     { return string(c) }
func (c CompanyID) IsEmpty() bool      { return string(c) == "" }

type WorkerID string

func NewWorkerID(id string) WorkerID { return WorkerID(id) }
func (w WorkerID) String() string    { return string(w) }
func (w WorkerID) IsEmpty() bool     { return string(w) == "" }

type DocumentID string

func NewDocumentID(id string) DocumentID { return DocumentID(id) }
func (d DocumentID) String() string      { return string(d) }
func (d DocumentID) IsEmpty() bool       { return string(d) == "" }

type JobID string

func NewJobID(id string) JobID { return JobID(id) }
func (j JobID) String() string { return string(j) }
func (j JobID) IsEmpty() bool  { return string(j) == "" }

type AccessLogID string

func NewAccessLogID(id string) AccessLogID { return AccessLogID(id) }
func (a AccessLogID) String() string       { return string(a) }
func (a AccessLogID) IsEmpty() bool        { return string(a) == "" }

type SiteID string

func NewSiteID(id string) SiteID { return SiteID(id) }
func (s SiteID) String() string  { return string(s) }
func (s SiteID) IsEmpty() bool   { return string(s) == "" }
