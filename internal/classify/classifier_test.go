package classify

import (
	"context"
	"encoding/base64"
	"fmt"
	"reflect"
	"testing"

	"github.com/jobtrail/jobtrail/internal/mail"
	"github.com/jobtrail/jobtrail/internal/record"
)

func textMessage(id, subject, from, date, body string) *mail.Message {
	return &mail.Message{
		ID: id,
		Headers: []mail.Header{
			{Name: "Subject", Value: subject},
			{Name: "From", Value: from},
			{Name: "Date", Value: date},
		},
		Payload: &mail.Part{
			MimeType: "text/plain",
			Data:     base64.RawURLEncoding.EncodeToString([]byte(body)),
		},
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New(nil)
	msg := textMessage("m1",
		"Your application to Acme",
		"Acme Recruiting <jobs@acme.com>",
		"Mon, 02 Jan 2006 15:04:05 -0700",
		"Thank you for applying for the Software Engineer position.")

	first := c.Classify(context.Background(), msg)
	for i := 0; i < 3; i++ {
		if got := c.Classify(context.Background(), msg); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %+v, first run produced %+v", i, got, first)
		}
	}
}

func TestClassifyFallsBackWhenAIFails(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("quota exceeded")}
	c := New(gen)
	msg := textMessage("m2",
		"Your application to Acme",
		"Acme Recruiting <jobs@acme.com>",
		"Mon, 02 Jan 2006 15:04:05 -0700",
		"Thank you for applying for the Software Engineer position.")

	got := c.Classify(context.Background(), msg)
	if got.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want heuristic result", got.CompanyName)
	}
	if got.JobProfile != "Software Engineer" {
		t.Errorf("JobProfile = %q", got.JobProfile)
	}
	if got.ApplicationStatus != record.StatusReceived {
		t.Errorf("ApplicationStatus = %q", got.ApplicationStatus)
	}
}

func TestClassifyPrefersAIResult(t *testing.T) {
	gen := &fakeGenerator{output: `{"companyName": "Hooli", "jobProfile": "Platform Engineer", "applicationStatus": "Offer"}`}
	c := New(gen)
	msg := textMessage("m3", "Great news", "careers@hooli.com", "", "We would like to extend an offer.")

	got := c.Classify(context.Background(), msg)
	if got.CompanyName != "Hooli" || got.JobProfile != "Platform Engineer" {
		t.Errorf("fields = %q / %q, want AI fields", got.CompanyName, got.JobProfile)
	}
	if got.ApplicationStatus != record.StatusOffer {
		t.Errorf("ApplicationStatus = %q", got.ApplicationStatus)
	}
}

func TestClassifyPrefersPlainTextBody(t *testing.T) {
	c := New(nil)
	msg := &mail.Message{
		ID: "m4",
		Headers: []mail.Header{
			{Name: "Subject", Value: "Interview with Acme"},
			{Name: "From", Value: "jobs@acme.com"},
		},
		Payload: &mail.Part{
			MimeType: "multipart/alternative",
			Parts: []*mail.Part{
				{MimeType: "text/plain", Data: base64.RawURLEncoding.EncodeToString([]byte("We would like to schedule an interview."))},
				{MimeType: "text/html", Data: base64.RawURLEncoding.EncodeToString([]byte("<p>You are rejected</p>"))},
			},
		},
	}

	got := c.Classify(context.Background(), msg)
	if got.ApplicationStatus != record.StatusInterview {
		t.Errorf("ApplicationStatus = %q, want %q (html part must be ignored)", got.ApplicationStatus, record.StatusInterview)
	}
}

func TestClassifyDegradesMissingHeaders(t *testing.T) {
	c := New(nil)
	msg := &mail.Message{ID: "m5", Payload: nil}

	got := c.Classify(context.Background(), msg)
	if got.ID != "m5" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.CompanyName != record.UnknownCompany {
		t.Errorf("CompanyName = %q, want %q", got.CompanyName, record.UnknownCompany)
	}
	if got.JobProfile != record.UnknownPosition {
		t.Errorf("JobProfile = %q, want %q", got.JobProfile, record.UnknownPosition)
	}
	if got.ApplicationStatus != record.StatusApplied {
		t.Errorf("ApplicationStatus = %q, want %q", got.ApplicationStatus, record.StatusApplied)
	}
	if got.Date != nil {
		t.Errorf("Date = %v, want nil", got.Date)
	}
	if got.OriginalSubject != "" || got.From != "" {
		t.Errorf("subject/from = %q/%q, want empty", got.OriginalSubject, got.From)
	}
}

func TestClassifyFromDisplayName(t *testing.T) {
	c := New(nil)
	msg := textMessage("m6", "Update", "Acme Talent Team <talent@acme.com>", "bogus date", "hello")

	got := c.Classify(context.Background(), msg)
	if got.From != "Acme Talent Team" {
		t.Errorf("From = %q", got.From)
	}
	if got.Date != nil {
		t.Errorf("Date = %v, want nil for unparsable header", got.Date)
	}
}
