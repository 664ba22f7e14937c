package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	ahocorasick "github.com/anknown/ahocorasick"

	"supportchat/internal/domain"
)

// Rule maps a trigger keyword to a canned reply.
type Rule struct {
	Keyword string
	Reply   string
}

// Rules replies based on a keyword table. All keywords are compiled into
// one Aho-Corasick machine so a tail is scanned once regardless of table
// size; matching is case-insensitive. The earliest rule in table order
// whose keyword occurs anywhere in the tail wins; Default is used when no
// rule matches.
type Rules struct {
	machine *ahocorasick.Machine
	replies map[string]string
	order   []string
	Default string
}

func NewRules(rules []Rule, defaultReply string) (*Rules, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule table must not be empty")
	}
	r := &Rules{
		replies: make(map[string]string, len(rules)),
		Default: defaultReply,
	}
	var dict [][]rune
	for _, rule := range rules {
		kw := strings.ToLower(strings.TrimSpace(rule.Keyword))
		if kw == "" {
			return nil, fmt.Errorf("rule with empty keyword")
		}
		if _, dup := r.replies[kw]; dup {
			continue
		}
		r.replies[kw] = rule.Reply
		r.order = append(r.order, kw)
		dict = append(dict, bytes.Runes([]byte(kw)))
	}
	r.machine = new(ahocorasick.Machine)
	if err := r.machine.Build(dict); err != nil {
		return nil, fmt.Errorf("build keyword machine: %w", err)
	}
	return r, nil
}

// ParseRules parses a rule table from its config form:
// semicolon-separated "keyword=reply" pairs.
func ParseRules(raw string) ([]Rule, error) {
	var rules []Rule
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kw, reply, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed rule %q, want keyword=reply", pair)
		}
		rules = append(rules, Rule{Keyword: strings.TrimSpace(kw), Reply: strings.TrimSpace(reply)})
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules in %q", raw)
	}
	return rules, nil
}

func (r *Rules) Reply(ctx context.Context, tail []*domain.Message) (string, error) {
	var b strings.Builder
	for _, m := range tail {
		b.WriteString(strings.ToLower(m.Body))
		b.WriteByte('\n')
	}

	hits := r.machine.MultiPatternSearch([]rune(b.String()), false)
	if len(hits) == 0 {
		return r.Default, nil
	}
	matched := make(map[string]bool, len(hits))
	for _, hit := range hits {
		matched[string(hit.Word)] = true
	}
	for _, kw := range r.order {
		if matched[kw] {
			return r.replies[kw], nil
		}
	}
	return r.Default, nil
}
