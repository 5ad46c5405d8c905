package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ejjonny/bort/internal/catalog"
	"github.com/ejjonny/bort/internal/format"
	"github.com/ejjonny/bort/internal/model"
	"github.com/ejjonny/bort/internal/service"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// messageLimit is the rendered-table budget per reply. Discord caps
// messages at 2000 characters.
const messageLimit = 2000

const genericFailure = "Something went wrong, please try again later."

var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        "list",
		Description: "Post a listing",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "offer_quantity", Description: "offer quantity", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "offer_item", Description: "offer item", Required: true, Autocomplete: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "request_quantity", Description: "request quantity", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "request_item", Description: "request item", Required: true, Autocomplete: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "location_north", Description: "location north", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "location_east", Description: "location east", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "offer_count", Description: "offer count"},
			{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "description"},
		},
	},
	{
		Name:        "unlist",
		Description: "Remove one of your own listings",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "listing_id", Description: "listing ID", Required: true},
		},
	},
	{
		Name:        "info",
		Description: "Get more information about a listing by ID",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "listing_id", Description: "listing ID", Required: true},
		},
	},
	{
		Name:        "my_listings",
		Description: "Display a list of your own listings",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "page", Description: "page"},
		},
	},
	{
		Name:        "nearby_listings",
		Description: "Search nearby for any available listings",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "location_north", Description: "location north", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "location_east", Description: "location east", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "distance", Description: "distance", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "page", Description: "page"},
		},
	},
	{
		Name:        "nearby_sellers",
		Description: "Search nearby for users selling the specified item",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "sale_item", Description: "sale item", Required: true, Autocomplete: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "location_north", Description: "location north", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "location_east", Description: "location east", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "distance", Description: "distance", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "page", Description: "page"},
		},
	},
	{
		Name:        "nearby_buyers",
		Description: "Search nearby for users buying the specified item",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "buy_item", Description: "buy item", Required: true, Autocomplete: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "location_north", Description: "location north", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "location_east", Description: "location east", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "distance", Description: "distance", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "page", Description: "page"},
		},
	},
	{
		Name:        "help",
		Description: "Display help",
	},
}

// CommandHandler processes slash command interactions.
type CommandHandler struct {
	listings   *service.ListingService
	items      *catalog.Catalog
	listingTTL time.Duration
	log        *zap.Logger
}

func NewCommandHandler(
	listings *service.ListingService,
	items *catalog.Catalog,
	listingTTL time.Duration,
	log *zap.Logger,
) *CommandHandler {
	return &CommandHandler{
		listings:   listings,
		items:      items,
		listingTTL: listingTTL,
		log:        log,
	}
}

// Handle dispatches a slash command interaction.
func (h *CommandHandler) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data := i.ApplicationCommandData()
	opts := optionMap(data.Options)

	switch data.Name {
	case "list":
		h.cmdList(ctx, s, i, opts)
	case "unlist":
		h.cmdUnlist(ctx, s, i, opts)
	case "info":
		h.cmdInfo(ctx, s, i, opts)
	case "my_listings":
		h.cmdMyListings(ctx, s, i, opts)
	case "nearby_listings":
		h.cmdNearbyListings(ctx, s, i, opts)
	case "nearby_sellers":
		h.cmdNearbyRole(ctx, s, i, opts, "sale_item", model.RoleSelling)
	case "nearby_buyers":
		h.cmdNearbyRole(ctx, s, i, opts, "buy_item", model.RoleBuying)
	case "help":
		h.cmdHelp(s, i)
	}
}

func (h *CommandHandler) cmdList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, opts options) {
	l := &model.Listing{
		OfferQuantity:   opts.Int("offer_quantity"),
		OfferItem:       opts.String("offer_item"),
		RequestQuantity: opts.Int("request_quantity"),
		RequestItem:     opts.String("request_item"),
		LocationNorth:   opts.Int("location_north"),
		LocationEast:    opts.Int("location_east"),
		OfferCount:      opts.Int("offer_count"),
		Description:     opts.String("description"),
		Owner:           callerName(i),
	}

	created, err := h.listings.Create(ctx, l)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUnknownItem):
		h.reply(s, i, fmt.Sprintf("Items %s and/or %s not found.", l.RequestItem, l.OfferItem))
		return
	case errors.Is(err, service.ErrQuotaExceeded):
		h.reply(s, i, fmt.Sprintf(
			"You have reached the maximum number of listings (%d). You can remove some with /my_listings & /unlist",
			model.MaxListingsPerOwner))
		return
	case service.IsValidationError(err):
		h.reply(s, i, "Invalid listing: "+err.Error())
		return
	default:
		h.log.Error("create listing failed", zap.Error(err))
		h.reply(s, i, genericFailure)
		return
	}

	h.reply(s, i, fmt.Sprintf(
		"Listing successful! Your listing will expire in %s\n%s",
		humanDuration(h.listingTTL),
		format.Paginate([]model.Listing{*created}, messageLimit, 1),
	))
}

func (h *CommandHandler) cmdUnlist(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, opts options) {
	removed, err := h.listings.Remove(ctx, int64(opts.Int("listing_id")), callerName(i))
	if err != nil {
		h.log.Error("unlist failed", zap.Error(err))
		h.reply(s, i, genericFailure)
		return
	}
	if removed {
		h.reply(s, i, "Listing successfully unlisted")
	} else {
		h.reply(s, i, "Listing not found")
	}
}

func (h *CommandHandler) cmdInfo(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, opts options) {
	l, err := h.listings.Get(ctx, int64(opts.Int("listing_id")))
	if err != nil {
		h.log.Error("info failed", zap.Error(err))
		h.reply(s, i, genericFailure)
		return
	}
	if l == nil {
		h.reply(s, i, "Listing not found")
		return
	}
	h.reply(s, i, format.Detail(l))
}

func (h *CommandHandler) cmdMyListings(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, opts options) {
	listings, err := h.listings.Own(ctx, callerName(i))
	if err != nil {
		h.log.Error("my_listings failed", zap.Error(err))
		h.reply(s, i, genericFailure)
		return
	}
	if len(listings) == 0 {
		h.reply(s, i, "You have no listings.")
		return
	}
	h.reply(s, i, format.Paginate(listings, messageLimit, opts.IntDefault("page", 1)))
}

func (h *CommandHandler) cmdNearbyListings(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, opts options) {
	north := opts.Int("location_north")
	east := opts.Int("location_east")
	distance := opts.Int("distance")

	listings, err := h.listings.SearchNearby(ctx, north, east, distance)
	if err != nil {
		h.log.Error("nearby_listings failed", zap.Error(err))
		h.reply(s, i, genericFailure)
		return
	}
	if len(listings) == 0 {
		h.reply(s, i, fmt.Sprintf("No listings found within %s", window(north, east, distance)))
		return
	}
	h.reply(s, i, "Nearby listings:\n"+format.Paginate(listings, messageLimit, opts.IntDefault("page", 1)))
}

func (h *CommandHandler) cmdNearbyRole(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, opts options, itemOpt string, role model.Role) {
	item := opts.String(itemOpt)
	north := opts.Int("location_north")
	east := opts.Int("location_east")
	distance := opts.Int("distance")

	noun := "sellers"
	if role == model.RoleBuying {
		noun = "buyers"
	}

	listings, err := h.listings.SearchByRole(ctx, item, north, east, distance, role)
	if errors.Is(err, service.ErrUnknownItem) {
		h.reply(s, i, fmt.Sprintf("Item %s not found", item))
		return
	}
	if err != nil {
		h.log.Error("nearby search failed", zap.String("role", role.String()), zap.Error(err))
		h.reply(s, i, genericFailure)
		return
	}
	if len(listings) == 0 {
		h.reply(s, i, fmt.Sprintf("No %s of %s found within %s", noun, item, window(north, east, distance)))
		return
	}
	h.reply(s, i, fmt.Sprintf("Nearby %s:\n%s", noun, format.Paginate(listings, messageLimit, opts.IntDefault("page", 1))))
}

func (h *CommandHandler) cmdHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	help := `
Use a forward slash '/' to use BRT commands. BRT will respond in DMs or server channels.

1. /list - Creates a new listing to advertise to other players. Offer count is optional!
    (ex: /list offer_quantity: 1 offer_item: Rough Cloth (T1) request_quantity: 100 request_item: Hex Coin location_north: 1000 location_east: 1000)

2. /unlist - Remove one of your own listings. Use /my_listings to get the IDs of your listings.
    (ex: /unlist listing_id: 10)

3. /info - Get more information about a listing by ID.
    (ex: /info listing_id: 10)

4. /my_listings - Display a list of your own listings
    (ex: /my_listings)

5. /nearby_listings - Search nearby for any available listings.
    (ex: /nearby_listings location_north: 1000 location_east: 1000 distance: 100)

6. /nearby_sellers - Search nearby for users interested in selling the specified item.
    (ex: /nearby_sellers sale_item: Rough Cloth (T1) location_north: 1000 location_east: 1000 distance: 100)

7. /nearby_buyers - Search nearby for users interested in buying the specified item.
    (ex: /nearby_buyers buy_item: Rough Cloth (T1) location_north: 1000 location_east: 1000 distance: 100)

8. /help - Display this message :)
`
	h.reply(s, i, help)
}

func (h *CommandHandler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.log.Error("interaction respond failed", zap.Error(err))
	}
}

// window renders the searched coordinate range for empty-result replies.
func window(north, east, distance int) string {
	return fmt.Sprintf("N (%d - %d) E (%d - %d)",
		north-distance, north+distance,
		east-distance, east+distance,
	)
}

func humanDuration(d time.Duration) string {
	if days := int(d.Hours() / 24); days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	return d.String()
}

// callerName resolves the invoking user's display name for both guild
// and DM interactions.
func callerName(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return ""
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func (o options) Int(name string) int {
	if opt, ok := o[name]; ok {
		return int(opt.IntValue())
	}
	return 0
}

func (o options) IntDefault(name string, def int) int {
	if opt, ok := o[name]; ok {
		return int(opt.IntValue())
	}
	return def
}

func (o options) String(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}
