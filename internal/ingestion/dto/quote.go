package dto

import "time"

// Quote is the normalized shape every provider maps into. Missing numeric
// fields stay zero; a price of zero means "no data" and the quote is
// discarded entirely.
type Quote struct {
	Symbol         string    `json:"symbol"`
	Price          float64   `json:"price"`
	PreviousClose  float64   `json:"previous_close"`
	Change         float64   `json:"change"`
	ChangePercent  float64   `json:"change_percent"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	Open           float64   `json:"open"`
	Volume         int64     `json:"volume"`
	ProviderSource string    `json:"provider_source"`
	ObservedAt     time.Time `json:"observed_at"`
}

// Usable reports whether the quote carries a real price observation.
func (q *Quote) Usable() bool {
	return q != nil && q.Price > 0
}

// FinnhubQuoteResponse mirrors the quote endpoint of the primary provider.
// It never carries traded volume.
type FinnhubQuoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// YahooChartResponse mirrors the chart endpoint of the secondary provider.
// Only the meta block is consumed.
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta YahooChartMeta `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooChartMeta carries the current-state fields of the chart response.
type YahooChartMeta struct {
	Symbol               string  `json:"symbol"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
	ChartPreviousClose   float64 `json:"chartPreviousClose"`
	PreviousClose        float64 `json:"previousClose"`
	RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
	RegularMarketVolume  int64   `json:"regularMarketVolume"`
	RegularMarketTime    int64   `json:"regularMarketTime"`
}
