package mail

import (
	"encoding/base64"
	"strings"
)

// ExtractBody walks a message's MIME part tree and returns a flattened
// plain-text body. Only text/plain parts contribute; sibling text/plain
// sections are joined with newlines in child order. HTML-only messages
// yield an empty body; no HTML-to-text conversion is attempted.
func ExtractBody(p *Part) string {
	if p == nil {
		return ""
	}
	if p.MimeType == "text/plain" && p.Data != "" {
		return decodePartData(p.Data)
	}

	var sections []string
	for _, child := range p.Parts {
		if child == nil {
			continue
		}
		if child.MimeType == "text/plain" && child.Data != "" {
			if text := decodePartData(child.Data); text != "" {
				sections = append(sections, text)
			}
			continue
		}
		if len(child.Parts) > 0 {
			if text := ExtractBody(child); text != "" {
				sections = append(sections, text)
			}
		}
	}
	return strings.Join(sections, "\n")
}

// decodePartData decodes base64url part content. Gmail emits unpadded
// base64url but padded variants show up in the wild too.
func decodePartData(data string) string {
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}
