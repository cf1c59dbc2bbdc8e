package domain

import "time"

// Sports market sub-type labels as sent by the Gamma API in sportsMarketType.
const (
	SportsMarketTypeSpreads = "spreads"
	SportsMarketTypeTotals  = "totals"
)

// Timestamp is an optional upstream time field. Raw keeps the value as the
// API sent it so callers can tell "absent" apart from "present but
// unparseable".
type Timestamp struct {
	Raw   string    `json:"raw,omitempty"`
	Time  time.Time `json:"time"`
	Valid bool      `json:"valid"`
}

// Present reports whether the upstream sent a value at all.
func (t Timestamp) Present() bool {
	return t.Raw != ""
}

// Market is a Polymarket sports listing normalised at the ingestion boundary.
// Outcomes and OutcomePrices are always plain slices; a malformed upstream
// value leaves them nil.
type Market struct {
	ID               string    `json:"id"`
	ConditionID      string    `json:"condition_id"`
	Question         string    `json:"question"`
	Title            string    `json:"title,omitempty"`
	Slug             string    `json:"slug,omitempty"`
	Outcomes         []string  `json:"outcomes"`
	OutcomePrices    []float64 `json:"outcome_prices"`
	Spread           float64   `json:"spread"`
	GameStartTime    Timestamp `json:"game_start_time"`
	EndDate          Timestamp `json:"end_date"`
	Volume           float64   `json:"volume"`
	SportsMarketType string    `json:"sports_market_type,omitempty"`
	Line             float64   `json:"line,omitempty"`
}

// IsBinary reports whether the market has exactly two outcomes.
func (m Market) IsBinary() bool {
	return len(m.Outcomes) == 2
}

// HasPrices reports whether every outcome has a matching price.
func (m Market) HasPrices() bool {
	return len(m.Outcomes) > 0 && len(m.Outcomes) == len(m.OutcomePrices)
}
