package document

import "time"

// Summarize checks an owner's current documents against the catalog. For
// each required type the newest non-superseded document decides; a VALID
// document whose expiry date already passed counts as expired even before
// the sweep has run.
func Summarize(ownerType OwnerType, ownerID string, docs []Document, now time.Time) *ComplianceSummary {
	latest := make(map[DocumentType]Document)
	for _, d := range docs {
		if !d.IsCurrent() {
			continue
		}
		if prev, ok := latest[d.Type]; !ok || d.CreatedAt.After(prev.CreatedAt) {
			latest[d.Type] = d
		}
	}

	s := &ComplianceSummary{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Required:  RequiredFor(ownerType),
		Valid:     []DocumentType{},
		Missing:   []DocumentType{},
		Expired:   []DocumentType{},
		Pending:   []DocumentType{},
		Rejected:  []DocumentType{},
	}
	for _, t := range s.Required {
		d, ok := latest[t]
		switch {
		case !ok:
			s.Missing = append(s.Missing, t)
		case d.Status == StatusExpired, d.Status == StatusValid && d.IsExpiredAt(now):
			s.Expired = append(s.Expired, t)
		case d.Status == StatusValid:
			s.Valid = append(s.Valid, t)
		case d.Status == StatusRejected:
			s.Rejected = append(s.Rejected, t)
		default:
			s.Pending = append(s.Pending, t)
		}
	}

	s.Status = NonCompliant
	if len(s.Valid) == len(s.Required) {
		s.Status = Compliant
	}
	return s
}
