package record

import "time"

// Status is the lifecycle stage of a job application as inferred from email.
type Status string

const (
	StatusApplied   Status = "Applied"             // Default when no signal is found
	StatusReceived  Status = "Application Received" // Employer confirmed receipt
	StatusInterview Status = "Interview"
	StatusRejected  Status = "Rejected"
	StatusOffer     Status = "Offer"
)

// Sentinel values used when extraction finds nothing usable.
const (
	UnknownCompany  = "Unknown Company"
	UnknownPosition = "Unknown Position"
)

// ValidStatus reports whether s is one of the five known statuses.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusApplied, StatusReceived, StatusInterview, StatusRejected, StatusOffer:
		return true
	}
	return false
}

// ApplicationRecord is one classified job-application email. The ID is the
// originating message identifier and doubles as the dedup key. Records are
// immutable once built; a later sync pass seeing the same message id produces
// a fresh record that replaces the old one wholesale.
type ApplicationRecord struct {
	ID                string     `json:"id"`
	CompanyName       string     `json:"companyName"`
	JobProfile        string     `json:"jobProfile"`
	ApplicationStatus Status     `json:"applicationStatus"`
	Date              *time.Time `json:"date"`
	OriginalSubject   string     `json:"originalSubject"`
	From              string     `json:"from"`
}

// Set is a record set keyed by message id. At most one record per id.
type Set map[string]ApplicationRecord

// Merge unions batch into old with new-record-wins semantics. Within the
// batch the last occurrence of an id wins. Neither input is mutated.
func Merge(old Set, batch []ApplicationRecord) Set {
	merged := make(Set, len(old)+len(batch))
	for id, r := range old {
		merged[id] = r
	}
	for _, r := range batch {
		merged[r.ID] = r
	}
	return merged
}

// List returns the set's records as a slice, order unspecified.
func (s Set) List() []ApplicationRecord {
	out := make([]ApplicationRecord, 0, len(s))
	for _, r := range s {
		out = append(out, r)
	}
	return out
}
