package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/alanyoungcy/marketsbot/internal/browse"
	"github.com/alanyoungcy/marketsbot/internal/domain"
)

// DefaultInteractionTimeout bounds the work done for a single interaction.
const DefaultInteractionTimeout = 60 * time.Second

const msgNavFailed = "❌ Navigation error. Please try again."

// Browser is the interaction state machine the handlers drive.
type Browser interface {
	Categories() []domain.Category
	AfterCategory(cat domain.Category) (browse.Step, error)
	Browse(ctx context.Context, userID string, sel browse.Selection) (browse.Page, error)
	Paginate(ctx context.Context, userID string, dir browse.Direction, current int) (browse.Page, error)
	BetDetail(ctx context.Context, req browse.BetRequest) browse.BetDetail
}

// responder is the slice of *discordgo.Session the handlers write through.
type responder interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Resolver names the guild and channel an interaction came from. Either may
// come back with only an ID when the name is not known.
type Resolver func(guildID, channelID string) (domain.Guild, domain.Channel)

func idsOnly(guildID, channelID string) (domain.Guild, domain.Channel) {
	return domain.Guild{ID: guildID}, domain.Channel{ID: channelID}
}

var _ Browser = (*browse.Service)(nil)

// Handler routes Discord interactions to the browse service.
type Handler struct {
	svc     Browser
	resolve Resolver
	timeout time.Duration
	logger  *slog.Logger
}

// NewHandler creates a Handler. resolve may be nil.
func NewHandler(svc Browser, resolve Resolver, timeout time.Duration, logger *slog.Logger) *Handler {
	if resolve == nil {
		resolve = idsOnly
	}
	if timeout <= 0 {
		timeout = DefaultInteractionTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:     svc,
		resolve: resolve,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "discord")),
	}
}

// Handle processes one interaction. It never panics.
func (h *Handler) Handle(r responder, i *discordgo.Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	log := h.logger.With(
		slog.String("trace_id", uuid.NewString()),
		slog.String("interaction_id", i.ID),
		slog.String("user_id", userOf(i).ID),
	)

	defer func() {
		if rec := recover(); rec != nil {
			log.ErrorContext(ctx, "interaction handler panic",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			h.fail(r, i, msgGeneric, log)
		}
	}()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(ctx, r, i, log)
	case discordgo.InteractionMessageComponent:
		h.handleComponent(ctx, r, i, log)
	case discordgo.InteractionModalSubmit:
		h.handleModal(ctx, r, i, log)
	default:
		log.DebugContext(ctx, "ignoring interaction", slog.Int("type", int(i.Type)))
	}
}

func (h *Handler) handleCommand(ctx context.Context, r responder, i *discordgo.Interaction, log *slog.Logger) {
	name := i.ApplicationCommandData().Name
	if name != commandMarkets {
		log.WarnContext(ctx, "unknown command", slog.String("command", name))
		return
	}
	embed, components := categoryMenu(h.svc.Categories())
	err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.ErrorContext(ctx, "respond to command", slog.String("error", err.Error()))
	}
}

func (h *Handler) handleComponent(ctx context.Context, r responder, i *discordgo.Interaction, log *slog.Logger) {
	data := i.MessageComponentData()
	log = log.With(slog.String("custom_id", data.CustomID))

	cid, err := ParseCustomID(data.CustomID)
	if err != nil {
		log.WarnContext(ctx, "unrecognised component", slog.String("error", err.Error()))
		h.update(r, i, msgUnknownInput, log)
		return
	}

	switch cid.Action {
	case ActionCategory:
		if len(data.Values) == 0 {
			h.update(r, i, msgUnknownInput, log)
			return
		}
		h.onCategory(ctx, r, i, data.Values[0], log)
	case ActionSubType:
		h.respond(r, i, keywordModal(cid.Category, cid.SubType), log)
	case ActionPage:
		h.onPage(ctx, r, i, cid, log)
	case ActionBet:
		h.onBet(ctx, r, i, cid.MarketID, log)
	default:
		h.update(r, i, msgUnknownInput, log)
	}
}

func (h *Handler) onCategory(ctx context.Context, r responder, i *discordgo.Interaction, value string, log *slog.Logger) {
	cat, err := domain.ParseCategory(value)
	if err != nil {
		log.WarnContext(ctx, "unknown category", slog.String("value", value))
		h.update(r, i, msgUnknownCat, log)
		return
	}
	step, err := h.svc.AfterCategory(cat)
	if err != nil {
		h.update(r, i, userMessage(err, cat.Label()), log)
		return
	}
	if step == browse.StepSubTypeSelect {
		embed, components := subTypeMenu()
		h.respond(r, i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: components,
			},
		}, log)
		return
	}
	h.respond(r, i, keywordModal(cat, domain.SubTypeNone), log)
}

func (h *Handler) handleModal(ctx context.Context, r responder, i *discordgo.Interaction, log *slog.Logger) {
	data := i.ModalSubmitData()
	log = log.With(slog.String("custom_id", data.CustomID))

	cid, err := ParseCustomID(data.CustomID)
	if err != nil || cid.Action != ActionKeyword {
		log.WarnContext(ctx, "unrecognised modal", slog.Any("error", err))
		h.update(r, i, msgUnknownInput, log)
		return
	}
	sel := browse.Selection{
		Category: cid.Category,
		SubType:  cid.SubType,
		Keyword:  strings.TrimSpace(modalValue(data, keywordInputID)),
	}

	// The full fetch can outlast Discord's 3s acknowledgement window.
	if !h.respond(r, i, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}, log) {
		return
	}

	page, err := h.svc.Browse(ctx, userOf(i).ID, sel)
	if err != nil {
		log.InfoContext(ctx, "browse ended", slog.String("error", err.Error()))
		h.edit(r, i, textEdit(userMessage(err, sel.Label())), log)
		return
	}
	embed, components := resultsPage(page)
	h.edit(r, i, pageEdit(embed, components), log)
}

func (h *Handler) onPage(ctx context.Context, r responder, i *discordgo.Interaction, cid CustomID, log *slog.Logger) {
	page, err := h.svc.Paginate(ctx, userOf(i).ID, cid.Direction, cid.Page)
	if err != nil {
		log.InfoContext(ctx, "paginate failed", slog.String("error", err.Error()))
		msg := msgNavFailed
		if errors.Is(err, domain.ErrCacheMiss) {
			msg = msgExpired
		}
		h.update(r, i, msg, log)
		return
	}
	embed, components := resultsPage(page)
	h.respond(r, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	}, log)
}

func (h *Handler) onBet(ctx context.Context, r responder, i *discordgo.Interaction, marketID string, log *slog.Logger) {
	log = log.With(slog.String("market_id", marketID))
	if !h.respond(r, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, log) {
		return
	}

	guild, channel := h.resolve(i.GuildID, i.ChannelID)
	detail := h.svc.BetDetail(ctx, browse.BetRequest{
		MarketID: marketID,
		User:     userOf(i),
		Guild:    guild,
		Channel:  channel,
	})
	if detail.URL == "" {
		h.edit(r, i, textEdit(msgBetFailed), log)
		return
	}
	embed, components := betDetail(detail)
	h.edit(r, i, pageEdit(embed, components), log)
}

// userMessage maps a browse error to what the user sees.
func userMessage(err error, label string) string {
	switch {
	case errors.Is(err, domain.ErrNoMarkets):
		return noMarketsMessage(label)
	case errors.Is(err, domain.ErrCacheMiss):
		return msgExpired
	case errors.Is(err, domain.ErrUnknownCategory):
		return msgUnknownCat
	case errors.Is(err, domain.ErrFetchFailed),
		errors.Is(err, context.DeadlineExceeded):
		return msgLoadFailed
	default:
		return msgGeneric
	}
}

func userOf(i *discordgo.Interaction) domain.ChatUser {
	u := i.User
	if i.Member != nil && i.Member.User != nil {
		u = i.Member.User
	}
	if u == nil {
		return domain.ChatUser{}
	}
	return domain.ChatUser{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		Avatar:        u.Avatar,
	}
}

func textEdit(msg string) *discordgo.WebhookEdit {
	return &discordgo.WebhookEdit{
		Content:    &msg,
		Embeds:     &[]*discordgo.MessageEmbed{},
		Components: &[]discordgo.MessageComponent{},
	}
}

func pageEdit(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) *discordgo.WebhookEdit {
	empty := ""
	embeds := []*discordgo.MessageEmbed{embed}
	return &discordgo.WebhookEdit{
		Content:    &empty,
		Embeds:     &embeds,
		Components: &components,
	}
}

// respond sends the initial response and reports whether it was accepted.
func (h *Handler) respond(r responder, i *discordgo.Interaction, resp *discordgo.InteractionResponse, log *slog.Logger) bool {
	if err := r.InteractionRespond(i, resp); err != nil {
		log.Error("interaction respond failed",
			slog.Int("response_type", int(resp.Type)),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// update replaces the component's message with msg.
func (h *Handler) update(r responder, i *discordgo.Interaction, msg string, log *slog.Logger) {
	h.respond(r, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    msg,
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	}, log)
}

func (h *Handler) edit(r responder, i *discordgo.Interaction, e *discordgo.WebhookEdit, log *slog.Logger) {
	if _, err := r.InteractionResponseEdit(i, e); err != nil {
		log.Error("interaction edit failed", slog.String("error", err.Error()))
	}
}

// fail reports msg whether or not the interaction was already acknowledged.
func (h *Handler) fail(r responder, i *discordgo.Interaction, msg string, log *slog.Logger) {
	err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: msg, Flags: discordgo.MessageFlagsEphemeral},
	})
	if err == nil {
		return
	}
	if _, editErr := r.InteractionResponseEdit(i, textEdit(msg)); editErr != nil {
		log.Error("could not report failure to user",
			slog.String("error", fmt.Sprintf("%v; %v", err, editErr)),
		)
	}
}
