package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/logger"
)

// Router decides whether a query asks for a structured record lookup
// or a knowledge-base answer. Classification is a pure function of the
// query text and a weighted lexicon of tabular-intent terms.
type Router struct {
	threshold float64
}

// NewRouter creates a router. Queries whose tabular confidence reaches
// threshold are routed to the tabular store.
func NewRouter(threshold float64) *Router {
	return &Router{threshold: threshold}
}

// tabularLexicon maps intent terms to weights. Strong terms alone push
// a query over the default threshold, weak ones need reinforcement.
var tabularLexicon = map[string]float64{
	"vendor":      0.8,
	"vendors":     0.8,
	"supplier":    0.8,
	"suppliers":   0.8,
	"rekanan":     0.8,
	"spreadsheet": 0.8,
	"sheet":       0.7,
	"lookup":      0.5,
	"record":      0.5,
	"records":     0.5,
	"row":         0.4,
	"column":      0.4,
	"table":       0.4,
	"list":        0.3,
	"daftar":      0.5,
	"contact":     0.3,
	"status":      0.2,
}

// Classify scores the query against the tabular lexicon and returns
// the route with its confidence. Confidence is the capped sum of
// matched term weights, in [0, 1].
func (r *Router) Classify(query string) domain.RouteDecision {
	confidence := 0.0
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if w, ok := tabularLexicon[word]; ok {
			confidence += w
		}
	}
	if confidence > 1 {
		confidence = 1
	}

	decision := domain.RouteDecision{
		Route:      domain.KnowledgeLookup,
		Confidence: confidence,
	}
	if confidence >= r.threshold {
		decision.Route = domain.TabularLookup
	}

	logger.Debug("Route: %s (confidence %.2f, threshold %.2f)", decision.Route, confidence, r.threshold)
	return decision
}

var quotedPhrase = regexp.MustCompile(`"([^"]+)"`)

// stopWords are dropped from extracted search terms.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "can": true,
	"you": true, "what": true, "who": true, "which": true, "how": true,
	"where": true, "when": true, "with": true, "from": true, "about": true,
	"please": true, "show": true, "find": true, "give": true, "get": true,
	"tell": true, "all": true, "any": true, "our": true, "their": true,
	"vendor": true, "vendors": true, "supplier": true, "suppliers": true,
	"record": true, "records": true, "lookup": true, "list": true,
	"spreadsheet": true, "sheet": true, "table": true,
}

// ExtractSearchTerms pulls lookup terms out of a query: quoted phrases
// are kept verbatim, remaining words are lowercased and kept when they
// are longer than two characters and not stop words. The intent terms
// themselves are stop words here, they say what to do, not what to
// find.
func ExtractSearchTerms(query string) []string {
	var terms []string

	for _, m := range quotedPhrase.FindAllStringSubmatch(query, -1) {
		phrase := strings.TrimSpace(m[1])
		if phrase != "" {
			terms = append(terms, phrase)
		}
	}
	rest := quotedPhrase.ReplaceAllString(query, " ")

	for _, word := range strings.Fields(strings.ToLower(rest)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) <= 2 || stopWords[word] {
			continue
		}
		terms = append(terms, word)
	}

	return terms
}
