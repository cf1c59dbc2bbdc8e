package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alanyoungcy/marketsbot/internal/browse"
	"github.com/alanyoungcy/marketsbot/internal/domain"
)

// Custom ID layout for message components and modals.
const (
	categorySelectID   = "category_select"
	subTypePrefix      = "nba_type_"
	keywordModalPrefix = "keyword_modal:"
	pagePrevPrefix     = "page_prev_"
	pageNextPrefix     = "page_next_"
	betPrefix          = "bet_"
	keywordInputID     = "keyword"
)

// Action is the kind of interaction a custom ID triggers.
type Action int

const (
	ActionCategory Action = iota + 1
	ActionSubType
	ActionKeyword
	ActionPage
	ActionBet
)

// CustomID is a decoded component or modal custom ID.
type CustomID struct {
	Action    Action
	Category  domain.Category
	SubType   domain.SubType
	Direction browse.Direction
	Page      int
	MarketID  string
}

func subTypeID(sub domain.SubType) string {
	return subTypePrefix + sub.Key()
}

// keywordModalID encodes the pending selection as
// keyword_modal:<tag>[:<subtype>].
func keywordModalID(cat domain.Category, sub domain.SubType) string {
	id := keywordModalPrefix + cat.TagID()
	if sub != domain.SubTypeNone {
		id += ":" + sub.Key()
	}
	return id
}

func pageID(dir browse.Direction, page int) string {
	if dir == browse.Prev {
		return pagePrevPrefix + strconv.Itoa(page)
	}
	return pageNextPrefix + strconv.Itoa(page)
}

func betID(marketID string) string {
	return betPrefix + marketID
}

func categoryByTag(tag string) (domain.Category, error) {
	for _, c := range domain.Categories() {
		if c.TagID() == tag {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: tag %q", domain.ErrUnknownCategory, tag)
}

// ParseCustomID decodes id.
func ParseCustomID(id string) (CustomID, error) {
	switch {
	case id == categorySelectID:
		return CustomID{Action: ActionCategory}, nil

	case strings.HasPrefix(id, subTypePrefix):
		sub, err := domain.ParseSubType(strings.TrimPrefix(id, subTypePrefix))
		if err != nil {
			return CustomID{}, err
		}
		return CustomID{Action: ActionSubType, Category: domain.CategoryBasketball, SubType: sub}, nil

	case strings.HasPrefix(id, keywordModalPrefix):
		parts := strings.Split(strings.TrimPrefix(id, keywordModalPrefix), ":")
		cat, err := categoryByTag(parts[0])
		if err != nil {
			return CustomID{}, err
		}
		cid := CustomID{Action: ActionKeyword, Category: cat}
		if len(parts) > 1 {
			if cid.SubType, err = domain.ParseSubType(parts[1]); err != nil {
				return CustomID{}, err
			}
		}
		return cid, nil

	case strings.HasPrefix(id, pagePrevPrefix), strings.HasPrefix(id, pageNextPrefix):
		dir, rest := browse.Next, strings.TrimPrefix(id, pageNextPrefix)
		if strings.HasPrefix(id, pagePrevPrefix) {
			dir, rest = browse.Prev, strings.TrimPrefix(id, pagePrevPrefix)
		}
		page, err := strconv.Atoi(rest)
		if err != nil || page < 0 {
			return CustomID{}, fmt.Errorf("discord: bad page in custom id %q", id)
		}
		return CustomID{Action: ActionPage, Direction: dir, Page: page}, nil

	case strings.HasPrefix(id, betPrefix):
		marketID := strings.TrimPrefix(id, betPrefix)
		if marketID == "" {
			return CustomID{}, fmt.Errorf("discord: empty market id in %q", id)
		}
		return CustomID{Action: ActionBet, MarketID: marketID}, nil
	}
	return CustomID{}, fmt.Errorf("discord: unknown custom id %q", id)
}
