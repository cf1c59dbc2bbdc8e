package market

import (
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/alanyoungcy/marketsbot/internal/domain"
)

// DisplayZone is where game times are shown. Falls back to a fixed UTC-5
// offset if the zone database cannot be read.
var DisplayZone = loadZone()

func loadZone() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

const dateLayout = "Jan 2, 03:04 PM"

// FormatDate renders ts like "Jun 12, 08:30 PM EST" in DisplayZone, or
// "TBD" when ts is missing or unreadable.
func FormatDate(ts domain.Timestamp) string {
	if !ts.Valid {
		return "TBD"
	}
	return ts.Time.In(DisplayZone).Format(dateLayout) + " EST"
}

// FormatVolume renders a dollar volume with M or K suffix above a million or
// a thousand, and as whole dollars below. Zero renders as "N/A".
func FormatVolume(v float64) string {
	if v == 0 || math.IsNaN(v) {
		return NotAvailable
	}
	switch {
	case v >= 1_000_000:
		return "$" + oneDecimal(v/1_000_000) + "M"
	case v >= 1_000:
		return "$" + oneDecimal(v/1_000) + "K"
	default:
		return "$" + strconv.FormatFloat(roundHalfUp(v), 'f', 0, 64)
	}
}

func oneDecimal(v float64) string {
	return strconv.FormatFloat(roundHalfUp(v*10)/10, 'f', 1, 64)
}

// EmojiPair is the marker shown in front of each outcome.
type EmojiPair struct {
	First, Second string
}

// Emojis returns the outcome markers for a category.
func Emojis(cat domain.Category) EmojiPair {
	switch cat {
	case domain.CategoryBasketball:
		return EmojiPair{"🏀", "⚔️"}
	case domain.CategoryBaseball:
		return EmojiPair{"⚾", "⚾"}
	case domain.CategoryHockey:
		return EmojiPair{"🏒", "🏒"}
	case domain.CategorySoccer:
		return EmojiPair{"⚽", "⚽"}
	case domain.CategoryMMA:
		return EmojiPair{"🥊", "🥊"}
	case domain.CategoryEsports:
		return EmojiPair{"🎮", "🎮"}
	default:
		return EmojiPair{"🔥", "🔥"}
	}
}

// FormatLine renders a totals or spread line without trailing zeros.
func FormatLine(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MarketSummary is the body of one market on a results page: the two
// outcomes with American odds, game time, volume, and the line for totals
// and spreads markets.
func MarketSummary(m domain.Market, cat domain.Category) string {
	var b strings.Builder

	if len(m.Outcomes) >= 2 && len(m.OutcomePrices) >= 2 {
		e := Emojis(cat)
		b.WriteString(e.First + " **" + m.Outcomes[0] + ":** " + AmericanOdds(m.OutcomePrices[0]) + " | ")
		b.WriteString(e.Second + " **" + m.Outcomes[1] + ":** " + AmericanOdds(m.OutcomePrices[1]) + "\n")
	}
	if m.GameStartTime.Present() {
		b.WriteString("🗓️ Game: " + FormatDate(m.GameStartTime) + " | ")
	}
	if m.Volume != 0 {
		b.WriteString("💰 Volume: " + FormatVolume(m.Volume))
	}
	if m.Line != 0 {
		switch marketType(m) {
		case domain.SportsMarketTypeTotals:
			b.WriteString("\n📊 Total Line: " + FormatLine(m.Line))
		case domain.SportsMarketTypeSpreads:
			b.WriteString("\n📏 Spread: " + FormatLine(m.Line))
		}
	}

	if b.Len() == 0 {
		return "Market data loading..."
	}
	return b.String()
}

// OddsLine is one outcome of a live market with both odds notations.
type OddsLine struct {
	Outcome  string
	American string
	European string
}

// LiveOdds pairs every outcome with its price. It returns nil when the
// outcome and price lists do not line up.
func LiveOdds(m domain.Market) []OddsLine {
	if !m.HasPrices() {
		return nil
	}
	lines := make([]OddsLine, len(m.Outcomes))
	for i, o := range m.Outcomes {
		lines[i] = OddsLine{
			Outcome:  o,
			American: AmericanOdds(m.OutcomePrices[i]),
			European: EuropeanOdds(m.OutcomePrices[i]),
		}
	}
	return lines
}
