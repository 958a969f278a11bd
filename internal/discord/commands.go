package discord

import "github.com/bwmarrin/discordgo"

// guildCommands are the slash commands registered against the configured
// guild on every startup. Guild-scoped registration propagates immediately,
// unlike global commands.
var guildCommands = []*discordgo.ApplicationCommand{
	{
		Name:        "bank",
		Description: "Displays the Guild Bank information and actions.",
	},
	{
		Name:        "ping",
		Description: "Checks that the bot is responsive.",
	},
}

// RegisterCommands overwrites the guild's slash commands with this bot's
// set. Called from the ready handler so a restart always converges the
// registered commands.
func RegisterCommands(s *discordgo.Session, applicationID, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(applicationID, guildID, guildCommands)
	return err
}
