package metrics

import "encoding/json"

// Label names a recognized financial concept
type Label string

const (
	LabelNetProfit        Label = "Net Profit"
	LabelRevenue          Label = "Revenue"
	LabelEarningsPerShare Label = "Earnings Per Share"
	LabelReturnOnEquity   Label = "Return on Equity"
	LabelCostIncomeRatio  Label = "Cost/Income Ratio"
	LabelTier1Ratio       Label = "Tier 1 Ratio"
)

// keyword maps a lowercase context substring to a label
type keyword struct {
	text  string
	label Label
}

// keywords is scanned in declaration order; the order is part of the contract.
var keywords = []keyword{
	{"net profit", LabelNetProfit},
	{"revenue", LabelRevenue},
	{"eps", LabelEarningsPerShare},
	{"roe", LabelReturnOnEquity},
	{"cost/income", LabelCostIncomeRatio},
	{"tier 1", LabelTier1Ratio},
}

// Category is a fixed grouping of labels in the summary
type Category struct {
	Name   string
	Labels []Label
}

// Contains reports whether the label belongs to the category
func (c Category) Contains(label Label) bool {
	for _, l := range c.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Categories returns the summary categories in report order.
// The table partitions the recognized label set.
func Categories() []Category {
	return []Category{
		{Name: "Profitability", Labels: []Label{LabelNetProfit, LabelRevenue, LabelEarningsPerShare}},
		{Name: "Efficiency", Labels: []Label{LabelCostIncomeRatio, LabelReturnOnEquity}},
		{Name: "Capital", Labels: []Label{LabelTier1Ratio}},
	}
}

// Metric is a labeled value as it appeared in the analysis text
type Metric struct {
	Label Label  `json:"label"`
	Value string `json:"value"`
}

// MetricSet holds at most one value per label.
// Labels keep the position of their first insertion; a later Set for the same
// label replaces the value in place. The zero value is an empty set.
type MetricSet struct {
	metrics []Metric
}

// NewMetricSet builds a set from metrics, applying them in order
func NewMetricSet(metrics ...Metric) MetricSet {
	var s MetricSet
	for _, m := range metrics {
		s.Set(m.Label, m.Value)
	}
	return s
}

// Set stores value under label, overwriting any earlier value
func (s *MetricSet) Set(label Label, value string) {
	for i := range s.metrics {
		if s.metrics[i].Label == label {
			s.metrics[i].Value = value
			return
		}
	}
	s.metrics = append(s.metrics, Metric{Label: label, Value: value})
}

// Get returns the value stored for label
func (s MetricSet) Get(label Label) (string, bool) {
	for _, m := range s.metrics {
		if m.Label == label {
			return m.Value, true
		}
	}
	return "", false
}

// Len returns the number of labels in the set
func (s MetricSet) Len() int {
	return len(s.metrics)
}

// Metrics returns a copy of the set's metrics in insertion order
func (s MetricSet) Metrics() []Metric {
	out := make([]Metric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// Map returns the set as a plain label to value map
func (s MetricSet) Map() map[Label]string {
	out := make(map[Label]string, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Label] = m.Value
	}
	return out
}

// MarshalJSON encodes the set as an ordered array of metrics
func (s MetricSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Metrics())
}

// UnmarshalJSON decodes an array of metrics, keeping last-write-wins semantics
func (s *MetricSet) UnmarshalJSON(data []byte) error {
	var metrics []Metric
	if err := json.Unmarshal(data, &metrics); err != nil {
		return err
	}
	*s = NewMetricSet(metrics...)
	return nil
}
