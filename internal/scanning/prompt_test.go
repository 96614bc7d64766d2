package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("promptOrDefault", func() {
	It("should use the default prompt when blank", func() {
		Expect(promptOrDefault(" \n\t")).To(Equal(DefaultPrompt))
	})

	It("should keep a custom prompt", func() {
		Expect(promptOrDefault("List the tier 1 ratio")).To(Equal("List the tier 1 ratio"))
	})

	It("should cover every section of the analysis", func() {
		for _, section := range []string{
			"Key Financial Metrics",
			"Income and Expenses Analysis",
			"Balance Sheet Highlights",
			"Credit Quality Indicators",
			"Strategic and Operational Updates",
			"Market Conditions and Outlook",
		} {
			Expect(DefaultPrompt).To(ContainSubstring(section))
		}
	})
})

var _ = Describe("responseText", func() {
	It("should trim the answer", func() {
		text, err := responseText("test", "  Net profit: EUR 5 million \n")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Net profit: EUR 5 million"))
	})

	It("should reject blank answers", func() {
		_, err := responseText("test", " \n ")
		Expect(err).To(MatchError(ErrEmptyResponse))
	})
})
