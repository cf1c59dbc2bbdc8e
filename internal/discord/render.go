package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/alanyoungcy/marketsbot/internal/browse"
	"github.com/alanyoungcy/marketsbot/internal/domain"
	"github.com/alanyoungcy/marketsbot/internal/market"
)

// Embed accents.
const (
	colorMenu    = 0x3498db
	colorBasket  = 0xff6b35
	colorResults = 0x3498db
	colorBet     = 0x00ff00
)

// Discord field limits.
const (
	maxFieldName  = 256
	maxFieldValue = 1024
	buttonsPerRow = 5
)

// User-facing messages for terminal states.
const (
	msgExpired      = "❌ Market data expired. Please run /markets again."
	msgLoadFailed   = "❌ Failed to load markets. Please try again later."
	msgUnknownCat   = "❌ Unknown category. Please run /markets again."
	msgBetFailed    = "❌ Failed to load betting interface. Please try again."
	msgGeneric      = "❌ Something went wrong. Please try again."
	msgOddsUnavail  = "Live odds unavailable."
	msgUnknownInput = "❌ That control is no longer valid. Please run /markets again."
)

func noMarketsMessage(label string) string {
	return fmt.Sprintf("📭 No qualifying %s markets found. Markets may have wide spreads or be expired.", label)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func componentEmoji(name string) *discordgo.ComponentEmoji {
	return &discordgo.ComponentEmoji{Name: name}
}

// categoryMenu is the reply to /markets.
func categoryMenu(cats []domain.Category) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title:       "📊 Polymarket Categories",
		Description: "Select a category to view available betting markets:",
		Color:       colorMenu,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Choose a category to see live markets"},
	}
	options := make([]discordgo.SelectMenuOption, 0, len(cats))
	for _, c := range cats {
		info := c.Info()
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   info.Emoji + " " + info.Label,
			Value:  info.Description,
			Inline: true,
		})
		options = append(options, discordgo.SelectMenuOption{
			Label:       info.Label,
			Value:       info.Label,
			Description: "View " + info.Label + " betting markets",
			Emoji:       componentEmoji(info.Emoji),
		})
	}
	menu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    categorySelectID,
		Placeholder: "Choose a market category...",
		Options:     options,
	}
	return embed, []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}},
	}
}

type subTypeInfo struct {
	label, emoji, field, blurb string
}

var subTypeDisplay = map[domain.SubType]subTypeInfo{
	domain.SubTypeMoneyline: {"Moneyline", "💰", "💰 Moneyline", "Straight win/loss bets"},
	domain.SubTypeOverUnder: {"Over/Under", "📊", "📊 Over/Under", "Total points markets"},
	domain.SubTypeSpread:    {"Spread", "📏", "📏 Spread", "Point spread markets"},
}

// subTypeMenu asks which basketball market type to show.
func subTypeMenu() (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title:       "🏀 NBA Market Types",
		Description: "Select the type of NBA markets you want to view:",
		Color:       colorBasket,
	}
	var buttons []discordgo.MessageComponent
	for _, sub := range domain.SubTypes() {
		d := subTypeDisplay[sub]
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: d.field, Value: d.blurb, Inline: true})
		buttons = append(buttons, discordgo.Button{
			Label:    d.label,
			Style:    discordgo.PrimaryButton,
			CustomID: subTypeID(sub),
			Emoji:    componentEmoji(d.emoji),
		})
	}
	return embed, []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

// keywordModal asks for an optional free-text filter.
func keywordModal(cat domain.Category, sub domain.SubType) *discordgo.InteractionResponse {
	label := browse.Selection{Category: cat, SubType: sub}.Label()
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: keywordModalID(cat, sub),
			Title:    truncate("Filter "+label+" markets", 45),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    keywordInputID,
						Label:       "Keyword (optional)",
						Style:       discordgo.TextInputShort,
						Placeholder: "Team or player, blank or \"all\" for everything",
						MaxLength:   100,
					},
				}},
			},
		},
	}
}

// modalValue returns the text input with the given ID from a modal submit.
func modalValue(data discordgo.ModalSubmitInteractionData, id string) string {
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, rc := range row.Components {
			if ti, ok := rc.(*discordgo.TextInput); ok && ti.CustomID == id {
				return ti.Value
			}
		}
	}
	return ""
}

// resultsPage renders one page of a result set with bet and paging buttons.
func resultsPage(p browse.Page) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	end := p.Start + len(p.Markets)
	desc := fmt.Sprintf("Showing %d-%d of %d markets", p.Start+1, end, p.Total)
	if p.Keyword != "" {
		desc += fmt.Sprintf(" matching \"%s\"", p.Keyword)
	}
	embed := &discordgo.MessageEmbed{
		Title:       p.Category.Info().Emoji + " " + p.Label + " Markets",
		Description: desc,
		Color:       colorResults,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d of %d", p.Index+1, p.TotalPages)},
	}

	var rows []discordgo.MessageComponent
	var buttons []discordgo.MessageComponent
	for i, m := range p.Markets {
		n := p.Start + i + 1
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  truncate(fmt.Sprintf("%d. %s", n, market.EventTitle(m)), maxFieldName),
			Value: truncate(market.MarketSummary(m, p.Category), maxFieldValue),
		})
		buttons = append(buttons, discordgo.Button{
			Label:    fmt.Sprintf("Bet %d", n),
			Style:    discordgo.SuccessButton,
			CustomID: betID(m.ID),
			Emoji:    componentEmoji("💰"),
		})
		if len(buttons) == buttonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: buttons})
			buttons = nil
		}
	}
	if len(buttons) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}

	if p.TotalPages > 1 {
		var nav []discordgo.MessageComponent
		if p.HasPrev() {
			nav = append(nav, discordgo.Button{
				Label:    "Previous",
				Style:    discordgo.PrimaryButton,
				CustomID: pageID(browse.Prev, p.Index),
				Emoji:    componentEmoji("⬅️"),
			})
		}
		if p.HasNext() {
			nav = append(nav, discordgo.Button{
				Label:    "Next",
				Style:    discordgo.PrimaryButton,
				CustomID: pageID(browse.Next, p.Index),
				Emoji:    componentEmoji("➡️"),
			})
		}
		rows = append(rows, discordgo.ActionsRow{Components: nav})
	}
	return embed, rows
}

// betDetail renders live odds and the betting link.
func betDetail(d browse.BetDetail) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	odds := msgOddsUnavail
	if len(d.Odds) > 0 {
		lines := make([]string, len(d.Odds))
		for i, o := range d.Odds {
			lines[i] = fmt.Sprintf("• **%s**  —  %s  (EU %s)", o.Outcome, o.American, o.European)
		}
		odds = strings.Join(lines, "\n")
	}
	desc := d.Market.Question
	if desc == "" {
		desc = "Market Details"
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎯 Live Market Odds",
		Description: desc,
		Color:       colorBet,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📊 Current Odds", Value: truncate(odds, maxFieldValue)},
			{Name: "💰 Volume", Value: market.FormatVolume(d.Market.Volume), Inline: true},
			{Name: "⏰ Ends", Value: market.FormatDate(d.Market.EndDate), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Click below to place your bet securely"},
	}
	link := discordgo.Button{
		Label: "Place Bet",
		Style: discordgo.LinkButton,
		URL:   d.URL,
		Emoji: componentEmoji("💰"),
	}
	return embed, []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{link}},
	}
}
