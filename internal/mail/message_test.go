package mail

import (
	"testing"
	"time"
)

func TestHeaderLookup(t *testing.T) {
	msg := &Message{
		ID: "m1",
		Headers: []Header{
			{Name: "Subject", Value: "Your application"},
			{Name: "From", Value: "Acme <jobs@acme.com>"},
		},
	}

	if got := msg.Header("subject"); got != "Your application" {
		t.Errorf("case-insensitive lookup failed: got %q", got)
	}
	if got := msg.Header("Date"); got != "" {
		t.Errorf("missing header should be empty, got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"rfc5322", "Mon, 02 Jan 2023 15:04:05 -0700", true},
		{"with zone name", "Mon, 2 Jan 2006 15:04:05 -0700 (MST)", true},
		{"no weekday", "2 Jan 2006 15:04:05 -0700", true},
		{"empty", "", false},
		{"garbage", "not a date", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.value)
			if tt.ok && got == nil {
				t.Errorf("ParseDate(%q) = nil, want a time", tt.value)
			}
			if !tt.ok && got != nil {
				t.Errorf("ParseDate(%q) = %v, want nil", tt.value, got)
			}
		})
	}
}

func TestParseDateValue(t *testing.T) {
	got := ParseDate("Mon, 02 Jan 2023 15:04:05 +0000")
	if got == nil {
		t.Fatal("expected parse to succeed")
	}
	want := time.Date(2023, 1, 2, 15, 4, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"Acme Careers <jobs@acme.com>", "Acme Careers"},
		{"jobs@acme.com", "jobs@acme.com"},
		{"<jobs@acme.com>", "jobs@acme.com"},
		{"  Spaced Name   <x@y.com>", "Spaced Name"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			if got := DisplayName(tt.from); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.from, got, tt.want)
			}
		})
	}
}

func TestSenderAddress(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"Acme Careers <jobs@acme.com>", "jobs@acme.com"},
		{"jobs@acme.com", "jobs@acme.com"},
		{"no address here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			if got := SenderAddress(tt.from); got != tt.want {
				t.Errorf("SenderAddress(%q) = %q, want %q", tt.from, got, tt.want)
			}
		})
	}
}

func TestSearchQuery(t *testing.T) {
	full := SearchQuery(time.Time{})
	if full != "subject:(job OR application OR applied OR position OR opportunity OR software)" {
		t.Errorf("unexpected full query: %q", full)
	}

	since := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	inc := SearchQuery(since)
	want := full + " after:2024-03-15"
	if inc != want {
		t.Errorf("got %q, want %q", inc, want)
	}
}
