package mail

import (
	"encoding/base64"
	"testing"
)

func b64url(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name string
		part *Part
		want string
	}{
		{
			name: "nil part",
			part: nil,
			want: "",
		},
		{
			name: "plain text leaf",
			part: &Part{MimeType: "text/plain", Data: b64url("Hello")},
			want: "Hello",
		},
		{
			name: "multipart keeps plain ignores html",
			part: &Part{
				MimeType: "multipart/alternative",
				Parts: []*Part{
					{MimeType: "text/plain", Data: b64url("Hello")},
					{MimeType: "text/html", Data: b64url("<b>Hello</b>")},
				},
			},
			want: "Hello",
		},
		{
			name: "html only yields empty body",
			part: &Part{
				MimeType: "multipart/alternative",
				Parts: []*Part{
					{MimeType: "text/html", Data: b64url("<p>Hi</p>")},
				},
			},
			want: "",
		},
		{
			name: "sibling plain parts joined with newline in order",
			part: &Part{
				MimeType: "multipart/mixed",
				Parts: []*Part{
					{MimeType: "text/plain", Data: b64url("first")},
					{MimeType: "text/plain", Data: b64url("second")},
				},
			},
			want: "first\nsecond",
		},
		{
			name: "nested multipart descended into",
			part: &Part{
				MimeType: "multipart/mixed",
				Parts: []*Part{
					{
						MimeType: "multipart/alternative",
						Parts: []*Part{
							{MimeType: "text/plain", Data: b64url("inner")},
							{MimeType: "text/html", Data: b64url("<i>inner</i>")},
						},
					},
					{MimeType: "application/pdf", Data: b64url("%PDF")},
				},
			},
			want: "inner",
		},
		{
			name: "undecodable content degrades to empty",
			part: &Part{MimeType: "text/plain", Data: "!!not base64!!"},
			want: "",
		},
		{
			name: "padded base64url accepted",
			part: &Part{MimeType: "text/plain", Data: base64.URLEncoding.EncodeToString([]byte("padded"))},
			want: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractBody(tt.part); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
