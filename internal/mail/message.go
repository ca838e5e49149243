package mail

import (
	"net/mail"
	"strings"
	"time"
)

// Header is one name/value pair from a message's header list.
type Header struct {
	Name  string
	Value string
}

// Part is one node of a message's MIME part tree. Data carries the
// base64url-encoded content for leaf parts; container parts nest children
// in Parts instead.
type Part struct {
	MimeType string
	Data     string
	Parts    []*Part
}

// Message is a raw mailbox message as returned by the provider. It is never
// mutated, only read.
type Message struct {
	ID      string
	Headers []Header
	Payload *Part
}

// Header returns the value of the first header with the given name,
// matched case-insensitively, or "" when absent.
func (m *Message) Header(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// dateLayouts are fallbacks for Date headers that net/mail rejects.
var dateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC822,
}

// ParseDate parses an RFC 5322 Date header value. Returns nil when the
// value is absent or unparsable; callers treat that as "date unknown".
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if t, err := mail.ParseDate(value); err == nil {
		return &t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	// Some servers append a parenthesised zone name that breaks parsing.
	if open := strings.LastIndex(value, " ("); open != -1 {
		if t, err := mail.ParseDate(strings.TrimSpace(value[:open])); err == nil {
			return &t
		}
	}
	return nil
}

// DisplayName strips an angle-bracketed address suffix from a From header,
// so "Acme Careers <jobs@acme.com>" becomes "Acme Careers". A bare address
// is returned unchanged.
func DisplayName(from string) string {
	if idx := strings.Index(from, "<"); idx >= 0 {
		if name := strings.TrimSpace(from[:idx]); name != "" {
			return name
		}
		return strings.Trim(strings.TrimSpace(from[idx:]), "<>")
	}
	return strings.TrimSpace(from)
}

// SenderAddress extracts the bare email address from a From header value,
// or "" when none is present.
func SenderAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	from = strings.TrimSpace(from)
	if strings.Contains(from, "@") && !strings.ContainsAny(from, " <>") {
		return from
	}
	return ""
}
