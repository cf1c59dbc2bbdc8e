package domain

import (
	"fmt"
	"strings"
)

// Category is one of the fixed sports categories the bot can browse.
type Category int

const (
	CategoryBasketball Category = iota
	CategoryBaseball
	CategoryHockey
	CategorySoccer
	CategoryMMA
	CategoryEsports
)

// CategoryInfo describes how a category is presented and which upstream tag
// it maps to.
type CategoryInfo struct {
	Label       string
	TagID       string
	Emoji       string
	Description string
}

// categoryTable is indexed by Category. Order is the menu order.
var categoryTable = [...]CategoryInfo{
	CategoryBasketball: {Label: "NBA", TagID: "745", Emoji: "🏀", Description: "Basketball games and futures"},
	CategoryBaseball:   {Label: "MLB", TagID: "100381", Emoji: "⚾", Description: "Baseball games and futures"},
	CategoryHockey:     {Label: "NHL", TagID: "899", Emoji: "🏒", Description: "Hockey games and futures"},
	CategorySoccer:     {Label: "FIFA Club World Cup", TagID: "102192", Emoji: "⚽", Description: "International football"},
	CategoryMMA:        {Label: "UFC", TagID: "279", Emoji: "🥊", Description: "Mixed martial arts"},
	CategoryEsports:    {Label: "ESPORTS", TagID: "64", Emoji: "🎮", Description: "Gaming competitions"},
}

// Categories returns every category in menu order.
func Categories() []Category {
	out := make([]Category, len(categoryTable))
	for i := range categoryTable {
		out[i] = Category(i)
	}
	return out
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c >= 0 && int(c) < len(categoryTable)
}

// Info returns the presentation and tag details for c.
func (c Category) Info() CategoryInfo {
	if !c.Valid() {
		return CategoryInfo{}
	}
	return categoryTable[c]
}

// Label returns the display label, e.g. "NBA".
func (c Category) Label() string { return c.Info().Label }

// TagID returns the upstream Gamma tag identifier.
func (c Category) TagID() string { return c.Info().TagID }

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return c.Label()
}

// ParseCategory resolves a display label (case-insensitive) to a Category.
func ParseCategory(label string) (Category, error) {
	label = strings.TrimSpace(label)
	for i, info := range categoryTable {
		if strings.EqualFold(info.Label, label) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, label)
}

// SubType narrows basketball markets to one bet style.
type SubType int

const (
	SubTypeNone SubType = iota
	SubTypeMoneyline
	SubTypeOverUnder
	SubTypeSpread
)

// subTypeKeys are the identifiers used in interaction custom IDs.
var subTypeKeys = map[SubType]string{
	SubTypeMoneyline: "moneyline",
	SubTypeOverUnder: "overunder",
	SubTypeSpread:    "spread",
}

// SubTypes returns the selectable basketball sub-types in menu order.
func SubTypes() []SubType {
	return []SubType{SubTypeMoneyline, SubTypeOverUnder, SubTypeSpread}
}

// Key returns the lowercase identifier, e.g. "overunder".
func (s SubType) Key() string {
	return subTypeKeys[s]
}

// Title returns the key with an upper-case first letter, e.g. "Overunder".
func (s SubType) Title() string {
	k := s.Key()
	if k == "" {
		return ""
	}
	return strings.ToUpper(k[:1]) + k[1:]
}

func (s SubType) String() string {
	if k := s.Key(); k != "" {
		return k
	}
	return "none"
}

// ParseSubType resolves a custom-ID key to a SubType.
func ParseSubType(key string) (SubType, error) {
	for st, k := range subTypeKeys {
		if k == strings.ToLower(strings.TrimSpace(key)) {
			return st, nil
		}
	}
	return SubTypeNone, fmt.Errorf("domain: unknown sub-type %q", key)
}

// SpecialConditionIDs are NBA Finals markets that bypass the spread, timing,
// and outcome-count filters.
var SpecialConditionIDs = map[string]struct{}{
	"0x6edc6c77c16ef3ba1bcd646159f12f8b8a39528e500dcff95b9220ccfbb75141": {}, // OKC Thunder Finals
	"0xf2a89afeddff5315e37211b0b0e4e93ed167fba2694cd35c252672d0aca73711": {},
}

// IsSpecialCondition reports whether conditionID is on the allow-list.
func IsSpecialCondition(conditionID string) bool {
	_, ok := SpecialConditionIDs[conditionID]
	return ok
}
