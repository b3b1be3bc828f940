package termstats

import (
	"regexp"
	"strings"
)

var splitRe = regexp.MustCompile(`[^a-z0-9]+`)

// stopWords are English function words that carry no topical signal.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about above after again against all also am an and any are as at
		be because been before being below between both but by can could
		did do does doing down during each few for from further had has have
		having he her here hers herself him himself his how i if in into is
		it its itself just me more most my myself no nor not now of off on
		once only or other our ours ourselves out over own same she should
		so some such than that the their theirs them themselves then there
		these they this those through to too under until up very was we
		were what when where which while who whom why will with would you
		your yours yourself yourselves http https www com html org net`) {
		stopWords[w] = struct{}{}
	}
}

// tokenize lowercases text and splits it into index terms, dropping stop
// words, single characters and bare numbers.
func tokenize(text string) []string {
	parts := splitRe.Split(strings.ToLower(text), -1)
	out := parts[:0]
	for _, p := range parts {
		if len(p) < 2 || isNumber(p) {
			continue
		}
		if _, stop := stopWords[p]; stop {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isNumber(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
