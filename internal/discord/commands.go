package discord

import "github.com/bwmarrin/discordgo"

const commandMarkets = "markets"

// Commands is the application command set the bot serves.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        commandMarkets,
			Description: "View live betting markets from Polymarket by category",
		},
	}
}
