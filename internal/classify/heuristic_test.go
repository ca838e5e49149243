package classify

import (
	"testing"

	"github.com/jobtrail/jobtrail/internal/record"
)

func TestClassifyStatusPriority(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		body     string
		expected record.Status
	}{
		{
			name:     "rejection beats application received",
			subject:  "Your application",
			body:     "Unfortunately, thank you for your interest in the role",
			expected: record.StatusRejected,
		},
		{
			name:     "regret phrasing",
			subject:  "Update on your application",
			body:     "We regret to inform you that we will not be moving forward with your candidacy.",
			expected: record.StatusRejected,
		},
		{
			name:     "other candidates",
			subject:  "Application update",
			body:     "Thank you for your interest. We have decided to continue with other candidates.",
			expected: record.StatusRejected,
		},
		{
			name:     "interview invitation",
			subject:  "Interview invitation - Acme",
			body:     "We would like to schedule a call to discuss next steps.",
			expected: record.StatusInterview,
		},
		{
			name:     "coding challenge",
			subject:  "Next step in your application",
			body:     "Please complete the coding challenge within 7 days.",
			expected: record.StatusInterview,
		},
		{
			name:     "offer",
			subject:  "Congratulations!",
			body:     "We are pleased to offer you the position. Your start date is Monday.",
			expected: record.StatusOffer,
		},
		{
			name:     "application received",
			subject:  "Application confirmation",
			body:     "We have received your application and will be in touch.",
			expected: record.StatusReceived,
		},
		{
			name:     "thank you for your interest alone is rejected",
			subject:  "Re: your application",
			body:     "Thank you for your interest in the Software Engineer role at Acme.",
			expected: record.StatusRejected,
		},
		{
			name:     "thank you for applying is received",
			subject:  "Thanks",
			body:     "Thank you for applying. We will review your application shortly.",
			expected: record.StatusReceived,
		},
		{
			name:     "no signal defaults to applied",
			subject:  "Hello",
			body:     "Just checking in about the weather.",
			expected: record.StatusApplied,
		},
		{
			name:     "rejection with interview word still rejected",
			subject:  "Your interview result",
			body:     "Unfortunately we will not be moving forward after your interview.",
			expected: record.StatusRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyHeuristic(tt.subject, tt.body, "noreply@example.com")
			if got.Status != tt.expected {
				t.Errorf("got %s, want %s", got.Status, tt.expected)
			}
		})
	}
}

func TestCompanyExtraction(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		from    string
		company string
	}{
		{
			name:    "at company for role",
			subject: "Your application at Globex for Software Engineer",
			from:    "noreply@example.com",
			company: "Globex",
		},
		{
			name:    "leading segment before dash",
			subject: "Initech - Application Received",
			from:    "noreply@example.com",
			company: "Initech",
		},
		{
			name:    "careers suffix",
			subject: "Update from Hooli Careers",
			body:    "",
			from:    "noreply@example.com",
			company: "Hooli",
		},
		{
			name:    "ats on behalf of",
			subject: "Greenhouse on behalf of Umbrella Corp",
			from:    "no-reply@greenhouse.io",
			company: "Umbrella Corp",
		},
		{
			name:    "welcome to team",
			subject: "Welcome to Stark team",
			from:    "noreply@example.com",
			company: "Stark",
		},
		{
			name:    "domain fallback strips careers and capitalizes",
			subject: "Your application",
			body:    "",
			from:    "jobs@Acme-Careers.com",
			company: "Acme",
		},
		{
			name:    "domain fallback multi segment",
			subject: "Your application",
			from:    "hello@wayne-enterprises.com",
			company: "Wayne Enterprises",
		},
		{
			name:    "no signal at all",
			subject: "Your application",
			from:    "",
			company: record.UnknownCompany,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyHeuristic(tt.subject, tt.body, tt.from)
			if got.CompanyName != tt.company {
				t.Errorf("got %q, want %q", got.CompanyName, tt.company)
			}
		})
	}
}

func TestProfileExtraction(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		profile string
	}{
		{
			name:    "position colon",
			subject: "Position: Backend Developer at Globex",
			profile: "Backend Developer",
		},
		{
			name:    "for the role",
			subject: "Thank you for applying for the Software Engineer position",
			profile: "Software Engineer",
		},
		{
			name:    "engineering title in body",
			subject: "Application update",
			body:    "regarding your Senior Software Engineer application",
			profile: "Senior Software Engineer",
		},
		{
			name:    "applying for",
			subject: "Re: your note",
			body:    "Thanks for applying for Data Scientist at Initech.",
			profile: "Data Scientist",
		},
		{
			name:    "no signal",
			subject: "Quick question",
			body:    "Do you have a minute?",
			profile: record.UnknownPosition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyHeuristic(tt.subject, tt.body, "noreply@example.com")
			if got.JobProfile != tt.profile {
				t.Errorf("got %q, want %q", got.JobProfile, tt.profile)
			}
		})
	}
}

func TestHeuristicIsDeterministic(t *testing.T) {
	subject := "Initech - Application Received"
	body := "We have received your application for the Software Engineer position."
	from := "Initech Recruiting <careers@initech.com>"

	first := ClassifyHeuristic(subject, body, from)
	for i := 0; i < 10; i++ {
		if got := ClassifyHeuristic(subject, body, from); got != first {
			t.Fatalf("run %d produced %+v, first run produced %+v", i, got, first)
		}
	}
}

func TestCompanyFromDomain(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"jobs@Acme-Careers.com", "Acme"},
		{"Recruiter <talent@monsters-inc.io>", "Monsters Inc"},
		{"noreply@hr-globex.com", "Globex"},
		{"plain-string-no-address", ""},
		{"x@", ""},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			if got := companyFromDomain(tt.from); got != tt.want {
				t.Errorf("companyFromDomain(%q) = %q, want %q", tt.from, got, tt.want)
			}
		})
	}
}
