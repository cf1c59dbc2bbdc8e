// Package market narrows raw Gamma listings down to the markets shown to a
// user and renders them as odds, volumes, and dates.
package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/marketsbot/internal/domain"
)

// SpreadThreshold is the widest spread a listed market may have.
const SpreadThreshold = 0.05

const (
	basketballLookback = 24 * time.Hour
	genericLookback    = 2 * time.Hour
)

// keep returns the markets for which pred is true, in input order.
func keep(markets []domain.Market, pred func(domain.Market) bool) []domain.Market {
	out := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}

func tightSpread(m domain.Market) bool {
	return m.Spread <= SpreadThreshold
}

func marketType(m domain.Market) string {
	return strings.ToLower(strings.TrimSpace(m.SportsMarketType))
}

// FilterFutureBasketball keeps allow-listed markets, and otherwise markets
// with a tight spread whose game starts no earlier than 24h before now.
// Markets without a readable game start are dropped.
func FilterFutureBasketball(markets []domain.Market, now time.Time) []domain.Market {
	cutoff := now.Add(-basketballLookback)
	return keep(markets, func(m domain.Market) bool {
		if domain.IsSpecialCondition(m.ConditionID) {
			return true
		}
		if !tightSpread(m) || !m.GameStartTime.Valid {
			return false
		}
		return !m.GameStartTime.Time.Before(cutoff)
	})
}

// FilterFutureGeneric keeps markets with a tight spread that have not
// finished. A readable game start is checked against now-2h, else a readable
// end date against now. Markets with neither are kept.
func FilterFutureGeneric(markets []domain.Market, now time.Time) []domain.Market {
	cutoff := now.Add(-genericLookback)
	return keep(markets, func(m domain.Market) bool {
		if !tightSpread(m) {
			return false
		}
		switch {
		case m.GameStartTime.Valid:
			return m.GameStartTime.Time.After(cutoff)
		case m.EndDate.Valid:
			return m.EndDate.Time.After(now)
		default:
			return true
		}
	})
}

// FilterBinary keeps allow-listed markets and markets with exactly two
// outcomes.
func FilterBinary(markets []domain.Market) []domain.Market {
	return keep(markets, func(m domain.Market) bool {
		return domain.IsSpecialCondition(m.ConditionID) || m.IsBinary()
	})
}

// FilterMoneyline drops spreads and totals markets and keeps two-outcome
// markets. Allow-listed markets skip the type exclusion.
func FilterMoneyline(markets []domain.Market) []domain.Market {
	return keep(markets, func(m domain.Market) bool {
		if !domain.IsSpecialCondition(m.ConditionID) {
			switch marketType(m) {
			case domain.SportsMarketTypeSpreads, domain.SportsMarketTypeTotals:
				return false
			}
		}
		return m.IsBinary()
	})
}

// FilterOverUnder keeps totals markets with a tight spread.
func FilterOverUnder(markets []domain.Market) []domain.Market {
	return keep(markets, func(m domain.Market) bool {
		return marketType(m) == domain.SportsMarketTypeTotals && tightSpread(m)
	})
}

// FilterSpread keeps point-spread markets with a tight spread.
func FilterSpread(markets []domain.Market) []domain.Market {
	return keep(markets, func(m domain.Market) bool {
		return marketType(m) == domain.SportsMarketTypeSpreads && tightSpread(m)
	})
}

// IsAllKeyword reports whether keyword means "no filter".
func IsAllKeyword(keyword string) bool {
	k := strings.TrimSpace(keyword)
	return k == "" || strings.EqualFold(k, "all")
}

// FilterKeyword keeps markets whose question, title, or event title contain
// keyword, ignoring case. An empty keyword or "all" returns the input as is.
func FilterKeyword(markets []domain.Market, keyword string) []domain.Market {
	if IsAllKeyword(keyword) {
		return markets
	}
	needle := strings.ToLower(strings.TrimSpace(keyword))
	return keep(markets, func(m domain.Market) bool {
		hay := strings.ToLower(m.Question + " " + m.Title + " " + EventTitle(m))
		return strings.Contains(hay, needle)
	})
}

// Stage is one named step of a Pipeline.
type Stage struct {
	Name  string
	Apply func([]domain.Market) []domain.Market
}

// Pipeline is an ordered list of filter stages.
type Pipeline []Stage

// NewPipeline returns the stages for a category and, for basketball, an
// optional sub-type. The keyword stage is not included.
func NewPipeline(cat domain.Category, sub domain.SubType, now time.Time) (Pipeline, error) {
	var p Pipeline
	switch cat {
	case domain.CategoryBasketball:
		p = append(p,
			Stage{"future_basketball", func(ms []domain.Market) []domain.Market { return FilterFutureBasketball(ms, now) }},
			Stage{"binary", FilterBinary},
		)
		switch sub {
		case domain.SubTypeNone:
		case domain.SubTypeMoneyline:
			p = append(p, Stage{"moneyline", FilterMoneyline})
		case domain.SubTypeOverUnder:
			p = append(p, Stage{"overunder", FilterOverUnder})
		case domain.SubTypeSpread:
			p = append(p, Stage{"spread", FilterSpread})
		default:
			return nil, fmt.Errorf("market: unknown sub-type %d", int(sub))
		}
		return p, nil
	case domain.CategoryBaseball, domain.CategoryHockey, domain.CategorySoccer,
		domain.CategoryMMA, domain.CategoryEsports:
		if sub != domain.SubTypeNone {
			return nil, fmt.Errorf("market: sub-type %s only applies to basketball", sub)
		}
		return Pipeline{
			{"future_generic", func(ms []domain.Market) []domain.Market { return FilterFutureGeneric(ms, now) }},
			{"binary", FilterBinary},
		}, nil
	default:
		return nil, fmt.Errorf("market: %w: %d", domain.ErrUnknownCategory, int(cat))
	}
}

// Run applies every stage in order. observe, when set, sees the counts
// before and after each stage.
func (p Pipeline) Run(markets []domain.Market, observe func(stage string, in, out int)) []domain.Market {
	for _, st := range p {
		in := len(markets)
		markets = st.Apply(markets)
		if observe != nil {
			observe(st.Name, in, len(markets))
		}
	}
	return markets
}
