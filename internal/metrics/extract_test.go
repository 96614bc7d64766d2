package metrics_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/fin-scanner/internal/metrics"
)

var _ = Describe("ExtractMetrics", func() {
	var (
		text string
		set  metrics.MetricSet
	)

	JustBeforeEach(func() {
		set = metrics.ExtractMetrics(text)
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = ""
		})

		It("should return an empty set", func() {
			Expect(set.Len()).To(Equal(0))
		})
	})

	When("no keyword is near any figure", func() {
		BeforeEach(func() {
			text = "The total was USD 300 and growth hit 4% over the period."
		})

		It("should return an empty set", func() {
			Expect(set.Len()).To(Equal(0))
		})
	})

	When("a keyword is further than 50 characters from the figure", func() {
		BeforeEach(func() {
			text = "Revenue" + strings.Repeat(" ", 60) + "USD 10"
		})

		It("should discard the match", func() {
			Expect(set.Len()).To(Equal(0))
		})
	})

	When("the text names net profit and ROE", func() {
		BeforeEach(func() {
			text = "Net profit was EUR 120 million and ROE stood at 12.5%"
		})

		It("should label the currency figure as net profit", func() {
			Expect(set.Map()).To(HaveKeyWithValue(metrics.LabelNetProfit, "EUR 120 million"))
		})

		It("should label the percentage as return on equity", func() {
			Expect(set.Map()).To(HaveKeyWithValue(metrics.LabelReturnOnEquity, "12.5%"))
		})

		It("should contain exactly those two metrics", func() {
			Expect(set.Map()).To(Equal(map[metrics.Label]string{
				LabelNetProfit:      "EUR 120 million",
				LabelReturnOnEquity: "12.5%",
			}))
		})
	})

	When("the text lists revenue and tier 1 on separate lines", func() {
		BeforeEach(func() {
			text = "Revenue: USD 50\nTier 1: 14.2%"
		})

		It("should extract both metrics", func() {
			Expect(set.Map()).To(Equal(map[metrics.Label]string{
				LabelRevenue:    "USD 50",
				LabelTier1Ratio: "14.2%",
			}))
		})
	})

	When("two percentages both refer to ROE", func() {
		BeforeEach(func() {
			text = "ROE rose to 11.2% in the first quarter. ROE reached 12.9% in the second quarter."
		})

		It("should keep the rightmost value", func() {
			Expect(set.Map()).To(HaveKeyWithValue(metrics.LabelReturnOnEquity, "12.9%"))
		})
	})

	When("the currency match starts at position 0", func() {
		BeforeEach(func() {
			text = "USD 5 billion in revenue"
		})

		It("should use the following context", func() {
			Expect(set.Map()).To(HaveKeyWithValue(metrics.LabelRevenue, "USD 5 billion"))
		})
	})

	When("the magnitude word is capitalized", func() {
		BeforeEach(func() {
			text = "Net profit: GBP 3.4 Million"
		})

		It("should keep the magnitude in the value", func() {
			Expect(set.Map()).To(HaveKeyWithValue(metrics.LabelNetProfit, "GBP 3.4 Million"))
		})
	})

	When("the percentage has whitespace before the sign", func() {
		BeforeEach(func() {
			text = "Cost/income ratio of 48.3 %"
		})

		It("should normalize the value", func() {
			Expect(set.Map()).To(HaveKeyWithValue(metrics.LabelCostIncomeRatio, "48.3%"))
		})
	})

	When("a span is matched by both patterns", func() {
		BeforeEach(func() {
			text = "Revenue grew to USD 12.5 % of the plan"
		})

		It("should let the percentage scan overwrite the currency scan", func() {
			Expect(set.Map()).To(HaveKeyWithValue(metrics.LabelRevenue, "12.5%"))
		})
	})

	When("a label is overwritten", func() {
		BeforeEach(func() {
			text = "EPS of USD 2.10. Revenue of USD 900 million. EPS grew 8%"
		})

		It("should keep the label in its first position", func() {
			Expect(set.Metrics()).To(Equal([]metrics.Metric{
				{Label: metrics.LabelEarningsPerShare, Value: "8%"},
				{Label: metrics.LabelRevenue, Value: "USD 900 million"},
			}))
		})
	})

	When("the context contains multi-byte characters", func() {
		BeforeEach(func() {
			text = strings.Repeat("é", 60) + " tier 1 ratio 15%" + strings.Repeat("€", 60)
		})

		It("should not panic and should resolve the label", func() {
			Expect(set.Map()).To(HaveKeyWithValue(metrics.LabelTier1Ratio, "15%"))
		})
	})
})

var _ = Describe("Extractor", func() {
	Describe("with ResolveTableOrder", func() {
		var extractor *metrics.Extractor

		BeforeEach(func() {
			extractor = metrics.NewExtractor(metrics.WithResolver(metrics.ResolveTableOrder))
		})

		It("should pick the first keyword of the table in the whole window", func() {
			set := extractor.Extract("Net profit was EUR 120 million and ROE stood at 12.5%")
			Expect(set.Map()).To(Equal(map[metrics.Label]string{
				LabelNetProfit: "12.5%",
			}))
		})

		It("should return an empty set for text without keywords", func() {
			Expect(extractor.Extract("USD 10 and 5%").Len()).To(Equal(0))
		})
	})

	Describe("a keyword overlapping the figure", func() {
		const text = "tier 1%"

		It("should be ignored by ResolveNearest", func() {
			Expect(metrics.ExtractMetrics(text).Len()).To(Equal(0))
		})

		It("should be found by ResolveTableOrder", func() {
			set := metrics.NewExtractor(metrics.WithResolver(metrics.ResolveTableOrder)).Extract(text)
			Expect(set.Map()).To(Equal(map[metrics.Label]string{
				metrics.LabelTier1Ratio: "1%",
			}))
		})
	})

	Describe("WithResolver(nil)", func() {
		It("should keep the default resolver", func() {
			set := metrics.NewExtractor(metrics.WithResolver(nil)).Extract("Revenue: USD 50\nTier 1: 14.2%")
			Expect(set.Map()).To(HaveKeyWithValue(metrics.LabelTier1Ratio, "14.2%"))
		})
	})
})

var _ = Describe("ResolveNearest", func() {
	It("should prefer the closest preceding keyword", func() {
		label, ok := metrics.ResolveNearest("revenue and eps were ", "5%", "")
		Expect(ok).To(BeTrue())
		Expect(label).To(Equal(metrics.LabelEarningsPerShare))
	})

	It("should fall back to the closest following keyword", func() {
		label, ok := metrics.ResolveNearest("", "USD 5", " of net profit and revenue")
		Expect(ok).To(BeTrue())
		Expect(label).To(Equal(metrics.LabelNetProfit))
	})

	It("should match case-insensitively", func() {
		label, ok := metrics.ResolveNearest("TIER 1 ", "14%", "")
		Expect(ok).To(BeTrue())
		Expect(label).To(Equal(metrics.LabelTier1Ratio))
	})

	It("should report no label when no keyword is present", func() {
		_, ok := metrics.ResolveNearest("growth of ", "4%", " overall")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("contextWindow", func() {
	It("should clamp to the start of the text", func() {
		before, after := metrics.ContextWindow("USD 5 revenue", 0, 5)
		Expect(before).To(BeEmpty())
		Expect(after).To(Equal(" revenue"))
	})

	It("should take at most 50 characters on each side", func() {
		text := strings.Repeat("a", 70) + "X" + strings.Repeat("b", 70)
		before, after := metrics.ContextWindow(text, 70, 71)
		Expect(before).To(Equal(strings.Repeat("a", 50)))
		Expect(after).To(Equal(strings.Repeat("b", 50)))
	})

	It("should count characters rather than bytes", func() {
		text := strings.Repeat("€", 55) + "X"
		before, _ := metrics.ContextWindow(text, len(text)-1, len(text))
		Expect(before).To(Equal(strings.Repeat("€", 50)))
	})
})
