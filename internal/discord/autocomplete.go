package discord

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// maxChoices is Discord's cap on autocomplete suggestions per response.
const maxChoices = 15

// HandleAutocomplete answers item-name autocomplete interactions with
// catalog names containing the typed text, case-insensitively.
func (h *CommandHandler) HandleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var partial string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			partial = opt.StringValue()
			break
		}
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	for name := range h.items.Suggest(partial, maxChoices) {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: name,
		})
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		h.log.Error("autocomplete respond failed", zap.Error(err))
	}
}
