package classify

import (
	"regexp"
	"strings"

	"github.com/jobtrail/jobtrail/internal/record"
)

// Fields are the three classifier-derived attributes of an application
// record. Both the heuristic and AI paths produce this shape.
type Fields struct {
	CompanyName string
	JobProfile  string
	Status      record.Status
}

// Company-name patterns. Evaluated in order against subject + " " + body;
// the first match wins and capture group 1 is the extracted name. The
// order is a contract: earlier patterns are more specific.
var companyPatterns = []*regexp.Regexp{
	// "at/@/from <Name> for|position|role|about|regarding". The capture is
	// deliberately case-sensitive: company names are capitalized, and a
	// case-insensitive class would swallow surrounding prose.
	regexp.MustCompile(`\b(?:[Aa]t|[Ff]rom|@)\s+([A-Z][A-Za-z0-9&'.-]*(?:\s+[A-Z][A-Za-z0-9&'.-]*){0,3})\s+(?:for|position|role|about|regarding)\b`),
	// Leading token run up to a dash or pipe separator
	regexp.MustCompile(`^\s*([A-Za-z0-9&'.]+(?:\s+[A-Za-z0-9&'.]+){0,3})\s*[-|\x{2013}\x{2014}]`),
	// "<Name> Careers/Jobs/Hiring/Recruitment"
	regexp.MustCompile(`\b([A-Z][A-Za-z0-9&'.]+(?:\s+[A-Z][A-Za-z0-9&'.]+){0,2})\s+(?:Careers|Jobs|Hiring|Recruitment|Recruiting|Talent)\b`),
	// "<ATS platform> on behalf of <Name>"
	regexp.MustCompile(`\b(?:Greenhouse|Lever|Workday|Ashby|SmartRecruiters|iCIMS|Workable|Jobvite|Taleo)\s+on\s+behalf\s+of\s+([A-Z][A-Za-z0-9&'.-]*(?:\s+[A-Z][A-Za-z0-9&'.-]*){0,3})`),
	// "welcome to/joining/application at|with|for <Name> [team]"
	regexp.MustCompile(`\b(?:[Ww]elcome\s+to|[Jj]oining|[Aa]pplication\s+(?:at|with|for))\s+(?:the\s+)?([A-Z][A-Za-z0-9&'.-]*(?:\s+[A-Z][A-Za-z0-9&'.-]*){0,3}?)(?:\s+team\b|[,.!\n]|$)`),
}

// Job-profile patterns, same first-match-wins contract as companyPatterns.
var profilePatterns = []*regexp.Regexp{
	// "position:/role: <title> [at]"
	regexp.MustCompile(`(?i)\b(?:position|role)\s*:\s*([A-Za-z][A-Za-z0-9/+#&.\- ]{2,60}?)(?:\s+at\b|[,.\n|]|$)`),
	// "for the <Title> position/role"; capture starts at a capital so the
	// match cannot drift left into prose
	regexp.MustCompile(`\b[Ff]or\s+(?:the\s+)?([A-Z][A-Za-z0-9/+#&.\- ]{2,60}?)\s+(?:position|role)\b`),
	// Dash/pipe-delimited segment before "at"
	regexp.MustCompile(`[-|]\s*([A-Z][A-Za-z0-9/+#&.\- ]{2,60}?)\s+at\b`),
	// Common engineering titles
	regexp.MustCompile(`(?i)\b((?:Senior|Junior|Lead|Staff|Principal|Full[\s-]?Stack|Front[\s-]?End|Back[\s-]?End|Software|Data|DevOps|Machine\s+Learning|Mobile|iOS|Android|Cloud|Platform|Site\s+Reliability|QA|Security)\s+(?:[A-Za-z]+\s+)?(?:Engineer|Developer|Architect|Scientist|Analyst))\b`),
	// "position/role/job of/as <title>"
	regexp.MustCompile(`(?i)\b(?:position|role|job)\s+(?:of|as)\s+(?:an?\s+)?([A-Za-z][A-Za-z0-9/+#&.\- ]{2,60}?)(?:[,.\n]|$)`),
	// "applying for [the] [role of] <title>"
	regexp.MustCompile(`(?i)\bapplying\s+for\s+(?:the\s+)?(?:role\s+of\s+)?([A-Za-z][A-Za-z0-9/+#&.\- ]{2,60}?)(?:\s+at\b|[,.\n]|$)`),
}

// Status category patterns, matched against the lower-cased text. A
// rejection that also thanks the candidate for their interest must
// classify as Rejected, so Rejected is evaluated first and the first
// category with any hit wins.
var statusCategories = []struct {
	status   record.Status
	patterns []*regexp.Regexp
}{
	{record.StatusRejected, []*regexp.Regexp{
		regexp.MustCompile(`\bregret\b`),
		regexp.MustCompile(`\bunfortunately\b`),
		regexp.MustCompile(`not\s+(?:be\s+)?moving\s+forward`),
		regexp.MustCompile(`not\s+(?:been\s+)?selected`),
		regexp.MustCompile(`\bunsuccessful\b`),
		regexp.MustCompile(`decided\s+not\s+to\s+proceed`),
		regexp.MustCompile(`thank\s+you\s+for\s+your\s+interest`),
		regexp.MustCompile(`other\s+candidates?`),
		regexp.MustCompile(`better\s+suited`),
	}},
	{record.StatusInterview, []*regexp.Regexp{
		regexp.MustCompile(`\binterview\b`),
		regexp.MustCompile(`next\s+steps?`),
		regexp.MustCompile(`move\s+forward\s+with`),
		regexp.MustCompile(`schedule\s+(?:a\s+)?(?:call|meeting|chat|conversation)`),
		regexp.MustCompile(`technical\s+(?:round|screen|assessment)`),
		regexp.MustCompile(`\bassessment\b`),
		regexp.MustCompile(`coding\s+challenge`),
		regexp.MustCompile(`availability\s+for\s+(?:a\s+)?(?:call|chat|meeting)`),
	}},
	{record.StatusOffer, []*regexp.Regexp{
		regexp.MustCompile(`\boffer\b`),
		regexp.MustCompile(`\bcongratulations\b`),
		regexp.MustCompile(`welcome\s+aboard`),
		regexp.MustCompile(`welcome\s+to\s+the\s+team`),
		regexp.MustCompile(`\bjoining\s+us\b`),
		regexp.MustCompile(`start\s+date`),
		regexp.MustCompile(`pleased\s+to\s+(?:offer|inform)`),
	}},
	{record.StatusReceived, []*regexp.Regexp{
		regexp.MustCompile(`(?:received|confirmed|submitted|reviewing|processing)\s+your\s+application`),
		regexp.MustCompile(`application\s+(?:has\s+been\s+)?(?:received|confirmed|submitted)`),
		regexp.MustCompile(`application\s+(?:is\s+)?(?:under\s+review|being\s+reviewed)`),
		regexp.MustCompile(`thank\s+you\s+for\s+applying`),
		regexp.MustCompile(`thank\s+you\s+for\s+your\s+application`),
		regexp.MustCompile(`thank\s+you\s+for\s+your\s+interest`),
		regexp.MustCompile(`application\s+confirmation`),
	}},
}

// domainNoise are substrings stripped from a sender domain label before it
// is promoted to a company name.
var domainNoise = []string{
	"careers", "jobs", "hr", "recruiting", "recruitment", "talent", "hiring", "noreply", "no-reply", "mail",
}

// ClassifyHeuristic derives company, role and status purely from the
// subject, body and sender text. It is deterministic, performs no I/O,
// and always produces a well-formed result; it is the guaranteed fallback
// when AI classification is unavailable.
func ClassifyHeuristic(subject, body, from string) Fields {
	text := subject + " " + body

	company := firstMatch(companyPatterns, text)
	if company == "" {
		company = companyFromDomain(from)
	}
	if company == "" {
		company = record.UnknownCompany
	}

	profile := firstMatch(profilePatterns, text)
	if profile == "" {
		profile = record.UnknownPosition
	}

	return Fields{
		CompanyName: company,
		JobProfile:  profile,
		Status:      classifyStatus(text),
	}
}

// firstMatch evaluates the ordered pattern list and returns the trimmed
// first capture of the first pattern that matches.
func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}

func classifyStatus(text string) record.Status {
	lower := strings.ToLower(text)
	for _, cat := range statusCategories {
		for _, p := range cat.patterns {
			if p.MatchString(lower) {
				return cat.status
			}
		}
	}
	return record.StatusApplied
}

// companyFromDomain derives a company name from the sender's email domain:
// first domain label, noise words removed, remaining segments capitalized.
func companyFromDomain(from string) string {
	addr := senderAddress(from)
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	label := strings.ToLower(strings.SplitN(addr[at+1:], ".", 2)[0])
	for _, noise := range domainNoise {
		label = strings.ReplaceAll(label, noise, "")
	}

	segments := strings.FieldsFunc(label, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
	var words []string
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		words = append(words, strings.ToUpper(seg[:1])+seg[1:])
	}
	return strings.Join(words, " ")
}

func senderAddress(from string) string {
	if open := strings.LastIndex(from, "<"); open >= 0 {
		if close := strings.Index(from[open:], ">"); close > 0 {
			return strings.TrimSpace(from[open+1 : open+close])
		}
	}
	return strings.TrimSpace(from)
}
