package render

import (
	"html"
	"html/template"
	"strings"

	"github.com/claude/planform/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

// linkSanitizer turns upstream exercise links into safe anchors. Links that are
// not absolute http(s) URLs are dropped and the name renders as plain text.
type linkSanitizer struct {
	policy *bluemonday.Policy
}

func newLinkSanitizer() *linkSanitizer {
	policy := bluemonday.NewPolicy()
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowURLSchemes("http", "https")
	policy.RequireParseableURLs(true)
	policy.RequireNoFollowOnLinks(true)
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &linkSanitizer{policy: policy}
}

// exerciseHTML renders the exercise name, wrapped in a link when it has a safe URL.
func (s *linkSanitizer) exerciseHTML(e models.Exercise) template.HTML {
	name := html.EscapeString(e.Name)
	link := strings.TrimSpace(e.URL)
	if link == "" {
		return template.HTML(name)
	}

	raw := `<a href="` + html.EscapeString(link) + `">` + name + `</a>`
	cleaned := s.policy.Sanitize(raw)
	if !strings.Contains(cleaned, "<a ") {
		// the policy stripped the anchor; fall back to the escaped name
		return template.HTML(name)
	}
	return template.HTML(cleaned)
}
