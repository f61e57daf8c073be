// Package verify judges whether a search hit is worth using as evidence.
// Both checks are pure: no I/O and no shared state.
package verify

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// Rules holds the lists the Verifier matches against.
// DenyDomainSubstrings match anywhere in the host; DenyHostLabels only match a
// whole dot-separated label, so "ads" rejects ads.example.com but not downloads.python.org.
type Rules struct {
	DenyDomainSubstrings []string
	DenyHostLabels       []string
	SpamPhrases          []string
	MinContentLength     int
}

// DefaultRules returns the built-in credibility and quality rules.
func DefaultRules() Rules {
	return Rules{
		DenyDomainSubstrings: []string{
			"clickbait", "casino", "betting",
			"promo", "affiliate", "doubleclick",
		},
		DenyHostLabels: []string{"ads", "spam"},
		SpamPhrases: []string{
			"click here", "buy now", "limited time offer", "act now",
			"100% guaranteed", "money back guarantee", "subscribe now", "free trial",
		},
		MinContentLength: 50,
	}
}

// WithOverrides returns r with every non-empty override applied.
func (r Rules) WithOverrides(denyDomains, denyLabels, spamPhrases []string, minContentLength int) Rules {
	if len(denyDomains) > 0 {
		r.DenyDomainSubstrings = denyDomains
	}
	if len(denyLabels) > 0 {
		r.DenyHostLabels = denyLabels
	}
	if len(spamPhrases) > 0 {
		r.SpamPhrases = spamPhrases
	}
	if minContentLength > 0 {
		r.MinContentLength = minContentLength
	}
	return r
}

// Verifier applies a fixed set of Rules. Safe for concurrent use.
type Verifier struct {
	deny      []string
	labels    map[string]struct{}
	spam      []string
	minLength int
}

// New builds a Verifier. Matching is case-insensitive, so every entry is lowercased once here.
func New(rules Rules) *Verifier {
	return &Verifier{
		deny:      lowerAll(rules.DenyDomainSubstrings),
		labels:    labelSet(rules.DenyHostLabels),
		spam:      lowerAll(rules.SpamPhrases),
		minLength: rules.MinContentLength,
	}
}

// IsCredibleDomain reports whether rawURL's host is free of every deny-listed
// substring and label. Unparseable URLs and URLs without a host fail closed.
func (v *Verifier) IsCredibleDomain(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, s := range v.deny {
		if strings.Contains(host, s) {
			return false
		}
	}
	if len(v.labels) > 0 {
		for _, label := range strings.Split(host, ".") {
			if _, denied := v.labels[label]; denied {
				return false
			}
		}
	}
	return true
}

// IsQualityContent reports whether text is long enough and free of spam phrases.
func (v *Verifier) IsQualityContent(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || utf8.RuneCountInString(trimmed) < v.minLength {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, p := range v.spam {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

var defaultVerifier = New(DefaultRules())

// IsCredibleDomain checks rawURL against DefaultRules.
func IsCredibleDomain(rawURL string) bool {
	return defaultVerifier.IsCredibleDomain(rawURL)
}

// IsQualityContent checks text against DefaultRules.
func IsQualityContent(text string) bool {
	return defaultVerifier.IsQualityContent(text)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func labelSet(in []string) map[string]struct{} {
	set := make(map[string]struct{}, len(in))
	for _, s := range lowerAll(in) {
		set[strings.Trim(s, ".")] = struct{}{}
	}
	return set
}
