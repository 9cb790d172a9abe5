package policy

import (
	"regexp"
	"strings"
)

// RuleText is the per-locale user-facing text for a rule.
type RuleText struct {
	Message  string
	Redirect string
}

// Rule describes one pre-flight rejection rule. Rules are process-wide
// configuration, immutable after init. Message and Redirect are the English
// defaults; Localized keys translations by locale ("id").
type Rule struct {
	ID        string
	Category  string
	Phrases   []string
	Message   string
	Redirect  string
	Localized map[string]RuleText
}

type compiledRule struct {
	rule     *Rule
	patterns []*regexp.Regexp
}

// Guard rejects prompts that ask for functionality the generator must not
// produce, before any paid agent call is made.
type Guard struct {
	rules []compiledRule
}

// NewGuard compiles the rule table. Phrase matching is case-insensitive,
// word-boundary anchored, and tolerates runs of whitespace between words.
// Declaration order is match order; the first matching rule wins.
func NewGuard(rules []Rule) *Guard {
	g := &Guard{}
	for i := range rules {
		cr := compiledRule{rule: &rules[i]}
		for _, phrase := range rules[i].Phrases {
			if p := compilePhrase(phrase); p != nil {
				cr.patterns = append(cr.patterns, p)
			}
		}
		g.rules = append(g.rules, cr)
	}
	return g
}

// compilePhrase turns a configured phrase into a safe matcher. Each word is
// QuoteMeta-escaped so metacharacters in configuration are never live regex.
// The boundary anchors only apply where the phrase edge is a word character;
// \b next to a symbol like ')' would demand an adjacent word character and
// make the phrase unmatchable.
func compilePhrase(phrase string) *regexp.Regexp {
	words := strings.Fields(strings.ToLower(phrase))
	if len(words) == 0 {
		return nil
	}
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = regexp.QuoteMeta(w)
	}
	pattern := strings.Join(escaped, `\s+`)
	if isWordByte(words[0][0]) {
		pattern = `\b` + pattern
	}
	last := words[len(words)-1]
	if isWordByte(last[len(last)-1]) {
		pattern += `\b`
	}
	return regexp.MustCompile(pattern)
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// CheckViolation returns the first rule, in declaration order, whose phrases
// match the prompt, or nil when the prompt is clean. Rules never combine.
func (g *Guard) CheckViolation(prompt string) *Rule {
	lowered := strings.ToLower(prompt)
	for _, cr := range g.rules {
		for _, p := range cr.patterns {
			if p.MatchString(lowered) {
				return cr.rule
			}
		}
	}
	return nil
}

// ViolationResponse composes the user-facing rejection for a matched rule in
// the given locale, falling back to the English default per field.
func ViolationResponse(rule *Rule, locale string) string {
	if rule == nil {
		return ""
	}
	message, redirect := rule.Message, rule.Redirect
	if text, ok := rule.Localized[locale]; ok {
		if text.Message != "" {
			message = text.Message
		}
		if text.Redirect != "" {
			redirect = text.Redirect
		}
	}
	if redirect == "" {
		return message
	}
	return message + " " + redirect
}
