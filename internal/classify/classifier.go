// Package classify turns raw mailbox messages into application records.
// The AI path is tried first; the deterministic heuristic chain is the
// guaranteed fallback, so classification is a total function over any
// message the provider can return.
package classify

import (
	"context"
	"log"

	"github.com/jobtrail/jobtrail/internal/mail"
	"github.com/jobtrail/jobtrail/internal/record"
)

// Classifier orchestrates per-message classification. The ai field may be
// nil, in which case every message takes the heuristic path.
type Classifier struct {
	ai *AIClassifier
}

// New builds a Classifier. Pass a nil generator to disable the AI path.
func New(gen TextGenerator) *Classifier {
	c := &Classifier{}
	if gen != nil {
		c.ai = NewAIClassifier(gen)
	}
	return c
}

// Classify produces the canonical application record for a message. It
// never fails: missing headers degrade to empty strings, an absent body
// to "", an unparsable date to nil, and AI failure to the heuristic path.
func (c *Classifier) Classify(ctx context.Context, msg *mail.Message) record.ApplicationRecord {
	subject := msg.Header("Subject")
	from := msg.Header("From")
	body := mail.ExtractBody(msg.Payload)

	fields, ok := c.aiFields(ctx, msg.ID, subject, body, from)
	if !ok {
		fields = ClassifyHeuristic(subject, body, from)
	}

	return record.ApplicationRecord{
		ID:                msg.ID,
		CompanyName:       fields.CompanyName,
		JobProfile:        fields.JobProfile,
		ApplicationStatus: fields.Status,
		Date:              mail.ParseDate(msg.Header("Date")),
		OriginalSubject:   subject,
		From:              mail.DisplayName(from),
	}
}

func (c *Classifier) aiFields(ctx context.Context, id, subject, body, from string) (Fields, bool) {
	if c.ai == nil {
		return Fields{}, false
	}
	fields, err := c.ai.Classify(ctx, subject, body, from)
	if err != nil {
		log.Printf("Classifier: AI classification unavailable for message %s, falling back to heuristics: %v", id, err)
		return Fields{}, false
	}
	return fields, true
}
