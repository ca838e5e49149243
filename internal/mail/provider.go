package mail

import (
	"context"
	"fmt"
	"time"
)

// Provider is the mail-provider contract the sync engine runs against.
// The production implementation is GmailClient; tests substitute fakes.
type Provider interface {
	// ListMessageIDs returns the identifiers of messages matching the
	// provider search query, newest first, capped at max.
	ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error)

	// GetMessage fetches one message in full, including headers and the
	// MIME part tree.
	GetMessage(ctx context.Context, id string) (*Message, error)
}

// subjectQuery matches the job-related subject keyword set. The keyword
// list is a fixed contract shared by full and incremental sync.
const subjectQuery = "subject:(job OR application OR applied OR position OR opportunity OR software)"

// SearchQuery builds the provider query string. A zero since means a full
// sweep; otherwise the query is narrowed to messages received after it.
func SearchQuery(since time.Time) string {
	if since.IsZero() {
		return subjectQuery
	}
	return fmt.Sprintf("%s after:%s", subjectQuery, since.Format("2006-01-02"))
}
