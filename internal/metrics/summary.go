package metrics

import "strings"

// NoMetricsMessage is the summary for an empty MetricSet
const NoMetricsMessage = "No financial metrics found."

// Section is one category of a summary with its matched metrics
type Section struct {
	Category string   `json:"category"`
	Metrics  []Metric `json:"metrics"`
}

// Summarize groups the set into sections in category order.
// Categories without metrics are left out, as are labels no category claims.
func Summarize(set MetricSet) []Section {
	sections := make([]Section, 0, len(Categories()))
	for _, c := range Categories() {
		var matched []Metric
		for _, m := range set.metrics {
			if c.Contains(m.Label) {
				matched = append(matched, m)
			}
		}
		if len(matched) > 0 {
			sections = append(sections, Section{Category: c.Name, Metrics: matched})
		}
	}
	return sections
}

// FormatSummary renders the set as a category grouped text report
func FormatSummary(set MetricSet) string {
	if set.Len() == 0 {
		return NoMetricsMessage
	}

	var b strings.Builder
	b.WriteString("Financial Summary:\n\n")
	for _, s := range Summarize(set) {
		b.WriteString(s.Category + ":\n")
		for _, m := range s.Metrics {
			b.WriteString("• " + string(m.Label) + ": " + m.Value + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
