package service

import (
	"strings"

	"golang-etf-dashboard/internal/entity"
)

// Keyword lists for the finance-relevance filter. The deny-list is checked
// first and rejects unconditionally; the allow-list then admits; an article
// matching neither is rejected.
var (
	offTopicKeywords = []string{
		"celebrity", "gossip", "royal family", "box office", "movie review",
		"touchdown", "championship game", "playoff", "world cup", "olympics",
		"recipe", "horoscope", "lottery winner", "dating", "kardashian",
	}

	financeKeywords = []string{
		"etf", "stock", "stocks", "equity", "equities", "market", "markets",
		"fed", "federal reserve", "interest rate", "inflation", "cpi", "gdp",
		"earnings", "dividend", "treasury", "bond", "yield", "nasdaq",
		"s&p", "dow jones", "commodity", "commodities", "gold", "oil",
		"crude", "investor", "investors", "trading", "shares", "ipo",
		"recession", "tariff", "central bank", "economy", "economic",
	}
)

// Category keyword sets, scanned in fixed priority order: macro before
// micro before commodity, defaulting to market.
var (
	macroKeywords = []string{
		"fed", "federal reserve", "interest rate", "rate cut", "rate hike",
		"inflation", "cpi", "gdp", "unemployment", "jobs report", "recession",
		"central bank", "treasury", "fiscal", "tariff", "trade war",
		"monetary policy",
	}

	microKeywords = []string{
		"earnings", "quarterly results", "guidance", "dividend", "buyback",
		"merger", "acquisition", "ipo", "ceo", "layoffs", "product launch",
		"revenue", "profit",
	}

	commodityKeywords = []string{
		"gold", "silver", "oil", "crude", "brent", "wti", "natural gas",
		"copper", "wheat", "corn", "opec", "barrel",
	}
)

var knownCategories = map[string]entity.NewsCategory{
	"macro":     entity.NewsCategoryMacro,
	"micro":     entity.NewsCategoryMicro,
	"market":    entity.NewsCategoryMarket,
	"commodity": entity.NewsCategoryCommodity,
}

// IsFinanceRelevant applies the deny-list-then-allow-list filter over the
// article's title and summary.
func IsFinanceRelevant(title, summary string) bool {
	text := strings.ToLower(title + " " + summary)
	for _, keyword := range offTopicKeywords {
		if strings.Contains(text, keyword) {
			return false
		}
	}
	for _, keyword := range financeKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// Categorize returns the article category. A recognized feed-supplied
// category wins; otherwise the keyword scan runs in priority order. The
// scan is deterministic for fixed input text.
func Categorize(feedCategory, title, summary string) entity.NewsCategory {
	if category, ok := knownCategories[strings.ToLower(strings.TrimSpace(feedCategory))]; ok {
		return category
	}

	text := strings.ToLower(title + " " + summary)
	for _, keyword := range macroKeywords {
		if strings.Contains(text, keyword) {
			return entity.NewsCategoryMacro
		}
	}
	for _, keyword := range microKeywords {
		if strings.Contains(text, keyword) {
			return entity.NewsCategoryMicro
		}
	}
	for _, keyword := range commodityKeywords {
		if strings.Contains(text, keyword) {
			return entity.NewsCategoryCommodity
		}
	}
	return entity.NewsCategoryMarket
}

// MatchedFinanceTopics returns the allow-list keywords found in the text,
// stored with the article for the dashboard's topic chips.
func MatchedFinanceTopics(title, summary string) []string {
	text := strings.ToLower(title + " " + summary)
	var topics []string
	for _, keyword := range financeKeywords {
		if strings.Contains(text, keyword) {
			topics = append(topics, keyword)
		}
	}
	return topics
}
