package market

import (
	"regexp"
	"strings"

	"github.com/alanyoungcy/marketsbot/internal/domain"
)

var vsPattern = regexp.MustCompile(`(?i)(.+?)\s+vs\.?\s+(.+?)(\s|$)`)

const eventTitleMax = 50

// EventTitle derives a short "A vs B" heading from the market question, or
// the title when the question is empty. Without a match it returns the first
// 50 characters of the text.
func EventTitle(m domain.Market) string {
	text := m.Question
	if text == "" {
		text = m.Title
	}
	if sm := vsPattern.FindStringSubmatch(text); sm != nil {
		return strings.TrimSpace(sm[1]) + " vs " + strings.TrimSpace(sm[2])
	}
	r := []rune(text)
	if len(r) > eventTitleMax {
		r = r[:eventTitleMax]
	}
	return string(r)
}
