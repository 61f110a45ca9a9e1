package repository

import (
	"fmt"
	"strings"
)

// BuildImpactAnalysisPrompt asks the model which of the tracked ETFs a news
// article impacts, and in which direction.
func BuildImpactAnalysisPrompt(title, summary string, candidateSymbols []string) string {
	return fmt.Sprintf(`You are a market analyst for an ETF investment dashboard. Given a news article, decide which of the tracked ETFs it impacts and in which direction.

Tracked ETFs: %s

Article title: %q
Article summary: %q

Criteria:
- Only list ETFs from the tracked list. Omit ETFs the article does not meaningfully affect.
- impact is "positive", "negative", or "mixed"
- reason is one short sentence per ETF
- impact_summary is one short paragraph covering the overall market impact
- Order impacted_etfs from most to least affected

Respond with JSON only, no prose, in exactly this format:

{
  "impacted_etfs": [
    {"symbol": "SPY", "impact": "positive | negative | mixed", "reason": "..."}
  ],
  "impact_summary": "..."
}

If no tracked ETF is affected, return an empty impacted_etfs array with a one-sentence impact_summary.`,
		strings.Join(candidateSymbols, ", "), title, summary)
}
