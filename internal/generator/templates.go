// Package generator - fixed question template tables.
package generator

import (
	"fmt"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// coreQuestionText returns the per-category wording for a core question about
// a decision. The switch is closed over the category enumeration so a new
// category fails to compile until it gets a phrasing here.
func coreQuestionText(d models.Decision) string {
	switch d.Category {
	case models.CategoryArchitecture:
		return fmt.Sprintf("The spec leans toward %q as an architectural approach. What constraints, scale expectations, or alternatives should shape this decision?", d.Title)
	case models.CategoryLibrary:
		return fmt.Sprintf("For %q, are there libraries or frameworks your team has already standardized on, or ones that are off the table?", d.Title)
	case models.CategoryPattern:
		return fmt.Sprintf("The spec implies a pattern choice around %q. Have you used this pattern before, and did it hold up?", d.Title)
	case models.CategoryIntegration:
		return fmt.Sprintf("Regarding %q: which external systems must this integrate with, and what are their protocols and failure modes?", d.Title)
	case models.CategoryDataModel:
		return fmt.Sprintf("For %q, how is the underlying data shaped today, and what consistency or retention guarantees does it need?", d.Title)
	case models.CategoryAPIDesign:
		return fmt.Sprintf("On %q: who consumes this interface, and what compatibility promises do they expect?", d.Title)
	case models.CategorySecurity:
		return fmt.Sprintf("For %q, what threat model applies, and are there compliance requirements that constrain the design?", d.Title)
	case models.CategoryPerformance:
		return fmt.Sprintf("Regarding %q: what latency or throughput targets matter, and at what load?", d.Title)
	case models.CategoryGeneral:
		return fmt.Sprintf("Can you walk me through your thinking on %q?", d.Title)
	default:
		return fmt.Sprintf("Can you walk me through your thinking on %q?", d.Title)
	}
}

// domainTemplate is a fill question used when the analysis yields fewer core
// questions than the configured maximum.
type domainTemplate struct {
	category models.QuestionCategory
	text     string
}

// domainTemplates is the fixed ordered fill list: one question per covered
// category. Coverage during fill is best-effort, not a guarantee.
var domainTemplates = []domainTemplate{
	{models.CategoryArchitecture, "How do you expect this system to be deployed and operated, and who is on call when it breaks?"},
	{models.CategoryPerformance, "What is the expected load at launch, and what growth should the design survive without a rewrite?"},
	{models.CategoryIntegration, "Are there upstream or downstream systems this must not break, and how are those contracts versioned?"},
	{models.CategoryDataModel, "What data in this system would hurt most to lose or corrupt, and how long must it be retained?"},
	{models.CategorySecurity, "Who should be able to access what, and is there existing auth infrastructure to reuse?"},
	{models.CategoryLibrary, "Does your organization restrict dependencies (licensing, vendoring, approval lists) in a way that affects this project?"},
	{models.CategoryGeneral, "Is there anything about this project's history or politics that the spec doesn't capture but the design should respect?"},
}

// followUpTemplate attaches a canned follow-up to the first core question of
// a target category. Empty keywords means the follow-up always fires.
type followUpTemplate struct {
	category models.QuestionCategory
	text     string
	keywords []string
}

// followUpTemplates is the fixed domain follow-up table.
var followUpTemplates = []followUpTemplate{
	{models.CategoryArchitecture, "You mentioned scaling concerns. Which component do you expect to hit limits first?", []string{"scale", "scaling", "load", "growth"}},
	{models.CategoryArchitecture, "Would a simpler deployment shape be acceptable for the first release, with the fuller architecture deferred?", nil},
	{models.CategoryPerformance, "You brought up latency. Is that a hard SLO with consequences, or a soft target?", []string{"latency", "slow", "p99", "response time"}},
	{models.CategoryPerformance, "Would caching be acceptable here, given its staleness trade-offs?", []string{"cache", "caching", "throughput"}},
	{models.CategoryIntegration, "For the integrations you named, what happens to this system when one of them is down?", []string{"api", "service", "integration", "third-party"}},
	{models.CategoryDataModel, "You touched on data concerns. Are migrations expected to run online, or is downtime acceptable?", []string{"migration", "schema", "data"}},
	{models.CategorySecurity, "Does anything you described involve personal or regulated data, and if so under which regime?", []string{"personal", "pii", "gdpr", "compliance", "sensitive"}},
	{models.CategoryGeneral, "Of everything we discussed, which decision would you most want revisited in six months?", nil},
}

// tradeOffFollowUpText words the follow-up attached to a moderate/unclear
// decision: rank the listed options, or articulate trade-offs when the
// analysis listed none.
func tradeOffFollowUpText(d models.Decision) string {
	if len(d.Options) > 0 {
		return fmt.Sprintf("For %q, how would you rank these options, and what tips the balance: %s?", d.Title, joinOptions(d.Options))
	}
	return fmt.Sprintf("What trade-offs matter most to you when deciding %q?", d.Title)
}

func joinOptions(options []string) string {
	out := ""
	for i, o := range options {
		if i > 0 {
			out += ", "
		}
		out += o
	}
	return out
}
