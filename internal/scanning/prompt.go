package scanning

import "strings"

// DefaultPrompt is the instruction sent with a document unless the user supplies one
const DefaultPrompt = `Please analyze this financial document image and provide:
1. Key Financial Metrics
2. Income and Expenses Analysis
3. Balance Sheet Highlights
4. Credit Quality Indicators
5. Strategic and Operational Updates
6. Market Conditions and Outlook

Format the response in a clear, structured manner with bullet points and sections.`

// systemPrompt is used by providers that accept a separate system message
const systemPrompt = "You are a financial analyst reading scanned financial statements, reports and charts. Quote figures exactly as printed, including currency codes, units and percent signs."

// promptOrDefault returns prompt, or DefaultPrompt when it is blank
func promptOrDefault(prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return DefaultPrompt
	}
	return prompt
}
