package domain

import (
	"context"
	"time"
)

// BrowseKey identifies one cached result set. Label is the category label or
// the basketball sub-type label ("NBA Moneyline").
type BrowseKey struct {
	UserID string
	Label  string
}

// BrowseEntry is the filtered result set a user is paging through.
type BrowseEntry struct {
	Label    string    `json:"label"`
	Category Category  `json:"category"`
	SubType  SubType   `json:"sub_type"`
	Keyword  string    `json:"keyword,omitempty"`
	Markets  []Market  `json:"markets"`
	StoredAt time.Time `json:"stored_at"`
}

// BrowseCache holds per-user result sets between interactions. Put
// overwrites any existing entry for the key. Get and Latest return
// ErrCacheMiss when nothing usable is stored.
type BrowseCache interface {
	Put(ctx context.Context, key BrowseKey, entry BrowseEntry) error
	Get(ctx context.Context, key BrowseKey) (BrowseEntry, error)
	// Latest returns the most recently written entry for the user, across
	// every label.
	Latest(ctx context.Context, userID string) (BrowseEntry, error)
}
