package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jobtrail/jobtrail/internal/record"
)

// maxBodyChars caps how much body text is sent to the model.
const maxBodyChars = 1000

// TextGenerator produces free-form model output for a prompt. Satisfied by
// genai.Client; tests substitute fakes.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AIClassifier delegates field extraction to a text-understanding service.
// Any failure (transport error, no JSON in the output, malformed JSON, a
// status outside the known set) is reported as a plain error so the caller
// falls back to heuristics. No retries.
type AIClassifier struct {
	gen TextGenerator
}

func NewAIClassifier(gen TextGenerator) *AIClassifier {
	return &AIClassifier{gen: gen}
}

// jsonObject grabs the first greedy brace-delimited span of the model
// output; models routinely wrap the JSON in prose or code fences.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

type aiFields struct {
	CompanyName       string `json:"companyName"`
	JobProfile        string `json:"jobProfile"`
	ApplicationStatus string `json:"applicationStatus"`
}

// Classify asks the model for the three record fields.
func (a *AIClassifier) Classify(ctx context.Context, subject, body, from string) (Fields, error) {
	out, err := a.gen.Generate(ctx, buildPrompt(subject, truncate(body, maxBodyChars), from))
	if err != nil {
		return Fields{}, fmt.Errorf("generation failed: %w", err)
	}

	raw := jsonObject.FindString(out)
	if raw == "" {
		return Fields{}, fmt.Errorf("no JSON object in model output")
	}

	var f aiFields
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Fields{}, fmt.Errorf("malformed JSON in model output: %w", err)
	}
	if f.CompanyName == "" || f.JobProfile == "" {
		return Fields{}, fmt.Errorf("model output is missing required fields")
	}
	if !record.ValidStatus(f.ApplicationStatus) {
		return Fields{}, fmt.Errorf("model returned unknown status %q", f.ApplicationStatus)
	}

	return Fields{
		CompanyName: strings.TrimSpace(f.CompanyName),
		JobProfile:  strings.TrimSpace(f.JobProfile),
		Status:      record.Status(f.ApplicationStatus),
	}, nil
}

func buildPrompt(subject, body, from string) string {
	var b strings.Builder
	b.WriteString("Analyze this job application email and respond with a JSON object ")
	b.WriteString("containing exactly these keys: companyName, jobProfile, applicationStatus.\n")
	b.WriteString(`applicationStatus must be one of: "Applied", "Application Received", "Interview", "Rejected", "Offer".` + "\n")
	b.WriteString("If the company name is unclear, derive it from the sender's email domain.\n\n")
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "From: %s\n", from)
	fmt.Fprintf(&b, "Body: %s\n\n", body)
	b.WriteString("Respond with only the JSON object.")
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
