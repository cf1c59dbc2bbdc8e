package polymarket

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/marketsbot/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat accepts a JSON number, a numeric string, or null. Anything it
// cannot read becomes 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		*f = flexFloat(v)
	}
	return nil
}

// flexStrings accepts a native JSON array or a string holding a
// JSON-encoded array, e.g. "[\"Yes\",\"No\"]". Malformed input yields nil.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	*f = nil
	raw := unquoteArray(data)
	if raw == nil {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			return nil
		}
	}
	*f = out
	return nil
}

// flexFloats is flexStrings for prices: elements may be numbers or numeric
// strings. Any unreadable element makes the whole value nil.
type flexFloats []float64

func (f *flexFloats) UnmarshalJSON(data []byte) error {
	*f = nil
	raw := unquoteArray(data)
	if raw == nil {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case float64:
			out = append(out, v)
		case string:
			p, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil
			}
			out = append(out, p)
		default:
			return nil
		}
	}
	*f = out
	return nil
}

// unquoteArray returns the bytes of a JSON array, unwrapping one level of
// string encoding. It returns nil for null, empty, or non-array input.
func unquoteArray(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		data = bytes.TrimSpace([]byte(s))
	}
	if len(data) == 0 || data[0] != '[' {
		return nil
	}
	return data
}

// timestampLayouts are the formats seen in Gamma date fields.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp keeps raw and marks it valid when one of the known layouts
// matches. Zone-less layouts are read as UTC.
func parseTimestamp(raw string) domain.Timestamp {
	raw = strings.TrimSpace(raw)
	ts := domain.Timestamp{Raw: raw}
	if raw == "" {
		return ts
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			ts.Time = t.UTC()
			ts.Valid = true
			return ts
		}
	}
	return ts
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID               string      `json:"id"`
	Question         string      `json:"question"`
	Title            string      `json:"title"`
	ConditionID      string      `json:"conditionId"`
	Slug             string      `json:"slug"`
	Active           *flexBool   `json:"active"`
	Closed           flexBool    `json:"closed"`
	Outcomes         flexStrings `json:"outcomes"`
	OutcomePrices    flexFloats  `json:"outcomePrices"`
	Spread           flexFloat   `json:"spread"`
	Volume           flexFloat   `json:"volume"`
	GameStartTime    string      `json:"gameStartTime"`
	EndDate          string      `json:"endDate"`
	SportsMarketType string      `json:"sportsMarketType"`
	Line             flexFloat   `json:"line"`
}

// Open reports whether the record is still tradable. The query already asks
// for open markets; a record that says otherwise is dropped. An absent
// "active" field counts as active.
func (m *APIMarket) Open() bool {
	if m.Closed {
		return false
	}
	return m.Active == nil || bool(*m.Active)
}

// ToDomainMarket converts a Gamma APIMarket to a domain.Market. Outcomes and
// prices are already normalised by the flex decoders.
func (m *APIMarket) ToDomainMarket() domain.Market {
	return domain.Market{
		ID:               m.ID,
		ConditionID:      m.ConditionID,
		Question:         m.Question,
		Title:            m.Title,
		Slug:             m.Slug,
		Outcomes:         []string(m.Outcomes),
		OutcomePrices:    []float64(m.OutcomePrices),
		Spread:           float64(m.Spread),
		GameStartTime:    parseTimestamp(m.GameStartTime),
		EndDate:          parseTimestamp(m.EndDate),
		Volume:           float64(m.Volume),
		SportsMarketType: m.SportsMarketType,
		Line:             float64(m.Line),
	}
}
