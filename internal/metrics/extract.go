package metrics

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// contextRadius is the number of characters inspected on each side of a match
const contextRadius = 50

var (
	currencyPattern   = regexp.MustCompile(`(?:EUR|USD|GBP|JPY)\s*(\d+(?:\.\d+)?(?:\s*[bBmM]illion)?)`)
	percentagePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

// Resolver picks the label for a match from the text around it.
// before and after are the context slices, match is the matched text.
type Resolver func(before, match, after string) (Label, bool)

// ResolveTableOrder returns the first keyword of the table found anywhere in
// the lowercased window, match included.
func ResolveTableOrder(before, match, after string) (Label, bool) {
	window := strings.ToLower(before + match + after)
	for _, k := range keywords {
		if strings.Contains(window, k.text) {
			return k.label, true
		}
	}
	return "", false
}

// ResolveNearest prefers the keyword ending closest before the match. When the
// preceding context has no keyword it takes the one starting closest after the
// match. Equal distances go to the keyword declared first. The match text is
// ignored, so a keyword overlapping the figure (the "1" of "tier 1%") does not
// count; ResolveTableOrder does see it.
func ResolveNearest(before, _, after string) (Label, bool) {
	lower := strings.ToLower(before)
	best, bestDist := Label(""), -1
	for _, k := range keywords {
		i := strings.LastIndex(lower, k.text)
		if i < 0 {
			continue
		}
		if d := len(lower) - (i + len(k.text)); bestDist < 0 || d < bestDist {
			best, bestDist = k.label, d
		}
	}
	if bestDist >= 0 {
		return best, true
	}

	lower = strings.ToLower(after)
	for _, k := range keywords {
		i := strings.Index(lower, k.text)
		if i < 0 {
			continue
		}
		if bestDist < 0 || i < bestDist {
			best, bestDist = k.label, i
		}
	}
	return best, bestDist >= 0
}

// Extractor scans analysis text for financial figures
type Extractor struct {
	resolve Resolver
}

// Option configures an Extractor
type Option func(*Extractor)

// WithResolver sets the label resolution strategy
func WithResolver(r Resolver) Option {
	return func(e *Extractor) {
		if r != nil {
			e.resolve = r
		}
	}
}

// NewExtractor creates an Extractor using ResolveNearest unless overridden
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{resolve: ResolveNearest}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = NewExtractor()

// ExtractMetrics runs the default extractor over text
func ExtractMetrics(text string) MetricSet {
	return defaultExtractor.Extract(text)
}

// Extract returns the labeled metrics found in text.
// Currency matches are applied before percentage matches, each left to right,
// so the last match for a label wins. A span matched by both patterns is
// labeled twice.
func (e *Extractor) Extract(text string) MetricSet {
	var set MetricSet

	for _, loc := range currencyPattern.FindAllStringIndex(text, -1) {
		match := text[loc[0]:loc[1]]
		before, after := contextWindow(text, loc[0], loc[1])
		if label, ok := e.resolve(before, match, after); ok {
			set.Set(label, match)
		}
	}

	for _, loc := range percentagePattern.FindAllStringSubmatchIndex(text, -1) {
		before, after := contextWindow(text, loc[0], loc[1])
		if label, ok := e.resolve(before, text[loc[0]:loc[1]], after); ok {
			set.Set(label, text[loc[2]:loc[3]]+"%")
		}
	}

	return set
}

// contextWindow returns up to contextRadius runes on each side of text[start:end]
func contextWindow(text string, start, end int) (string, string) {
	lo := start
	for i := 0; i < contextRadius && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for i := 0; i < contextRadius && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return text[lo:start], text[end:hi]
}
