package table

import (
	"regexp"

	"github.com/five82/glance/internal/logging"
	"github.com/five82/glance/internal/report"
)

var markup = regexp.MustCompile(`<[^>]*>`)

// highlighter applies hlregex rules, compiling each pattern once.
type highlighter struct {
	compiled map[string]*regexp.Regexp
}

func newHighlighter() *highlighter {
	return &highlighter{compiled: map[string]*regexp.Regexp{}}
}

func (h *highlighter) pattern(p string) *regexp.Regexp {
	if re, ok := h.compiled[p]; ok {
		return re
	}
	re, err := regexp.Compile(p)
	if err != nil {
		logging.Debug("table", "ignoring highlight pattern %q: %v", p, err)
		re = nil
	}
	h.compiled[p] = re
	return re
}

// apply rewrites text with the first matching rule. Markup in replacements is
// dropped; the terminal shows emphasis through styling instead.
func (h *highlighter) apply(rules report.HighlightRules, text string) (string, bool) {
	for _, rule := range rules {
		re := h.pattern(rule.Pattern)
		if re == nil || !re.MatchString(text) {
			continue
		}
		out := re.ReplaceAllString(text, rule.Replacement)
		return markup.ReplaceAllString(out, ""), true
	}
	return text, false
}
