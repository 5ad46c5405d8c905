package discord

import (
	"time"

	"github.com/ejjonny/bort/internal/catalog"
	"github.com/ejjonny/bort/internal/service"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Bot manages the Discord gateway session and command dispatch.
type Bot struct {
	session  *discordgo.Session
	guildID  string
	commands *CommandHandler
	log      *zap.Logger
}

// NewBot creates and configures the bot. The session is not opened yet.
func NewBot(
	token string,
	guildID string,
	listings *service.ListingService,
	items *catalog.Catalog,
	listingTTL time.Duration,
	log *zap.Logger,
) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	s.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages

	bot := &Bot{
		session:  s,
		guildID:  guildID,
		commands: NewCommandHandler(listings, items, listingTTL, log),
		log:      log,
	}
	s.AddHandler(bot.onInteractionCreate)

	return bot, nil
}

// Start opens the gateway connection and registers the slash commands,
// guild-scoped when a guild id is configured and globally otherwise.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return err
	}
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, commandDefinitions); err != nil {
		_ = b.session.Close()
		return err
	}
	b.log.Info("bot connected", zap.String("user", b.session.State.User.Username))
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() {
	_ = b.session.Close()
	b.log.Info("bot disconnected")
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.commands.Handle(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.commands.HandleAutocomplete(s, i)
	}
}
