package dto

// ImpactedETFMention is one affected ETF in an annotation result.
type ImpactedETFMention struct {
	Symbol string `json:"symbol"`
	Impact string `json:"impact"`
	Reason string `json:"reason"`
}

// ImpactAnalysisResult is the structured result from the impact annotator.
type ImpactAnalysisResult struct {
	ImpactedETFs  []ImpactedETFMention `json:"impacted_etfs"`
	ImpactSummary string               `json:"impact_summary"`
}
