// Package discord is the chat transport: slash commands in, one text reply
// per interaction out.
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/dispatch"
	"github.com/Martig3/valorant-matchbot/internal/engine"
)

const (
	wrongChannelText = "Please use the assigned channel for bot commands"
	unknownText      = "Unknown command, use `/help` for list of commands."
)

// commandTimeout bounds a command after its interaction has been deferred.
const commandTimeout = 10 * time.Second

type Config struct {
	Token         string `yaml:"token" env:"TOKEN"`
	ApplicationID string `yaml:"application_id" env:"APPLICATION_ID"`
	GuildID       string `yaml:"guild_id" env:"GUILD_ID"`
	ChannelID     string `yaml:"channel_id" env:"CHANNEL_ID"`
	AdminRoleID   string `yaml:"admin_role_id" env:"ADMIN_ROLE_ID"`
}

// Handler runs one parsed command.
type Handler interface {
	Handle(ctx context.Context, c dispatch.Command) dispatch.Reply
}

// interactionAPI is the part of the session used to answer interactions.
type interactionAPI interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Bot struct {
	session *discordgo.Session
	api     interactionAPI
	cfg     Config
	log     *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("discord token is required")
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return &Bot{session: s, api: s, cfg: cfg, log: log}, nil
}

// Members returns the role provider. Lookups made while handling an
// interaction use that interaction's guild.
func (b *Bot) Members() *Members {
	return &Members{api: b.session, state: b.session.State, guildID: b.cfg.GuildID, log: b.log.Named("members")}
}

// Run connects, registers the slash commands and serves interactions until
// ctx is done.
func (b *Bot) Run(ctx context.Context, h Handler) error {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("connected", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.onInteraction(ctx, h, i)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer b.session.Close()

	appID := b.cfg.ApplicationID
	if appID == "" && b.session.State.User != nil {
		appID = b.session.State.User.ID
	}
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.GuildID, Commands); err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	b.log.Info("slash commands registered", zap.Int("count", len(Commands)), zap.String("guild", b.cfg.GuildID))

	<-ctx.Done()
	return nil
}

// Announce posts text to the bot channel.
func (b *Bot) Announce(_ context.Context, text string) error {
	if b.cfg.ChannelID == "" {
		return errors.New("no announcement channel configured")
	}
	_, err := b.api.ChannelMessageSend(b.cfg.ChannelID, text)
	return err
}

func (b *Bot) onInteraction(parent context.Context, h Handler, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	actor := interactionActor(i.Interaction)
	data := i.ApplicationCommandData()
	log := b.log.With(zap.String("command", data.Name), zap.String("actor", string(actor)))

	if b.cfg.ChannelID != "" && i.ChannelID != b.cfg.ChannelID {
		b.respond(log, i.Interaction, wrongChannelText)
		return
	}

	cmd, err := parseCommand(data, actor)
	if err != nil {
		log.Debug("unparsed command", zap.Error(err))
		b.respond(log, i.Interaction, unknownText)
		return
	}

	// Acknowledge first; the reply is filled in once the command has run.
	if err := b.api.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.Error("cannot defer slash command", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(WithGuild(parent, i.GuildID), commandTimeout)
	defer cancel()
	reply := h.Handle(ctx, cmd)

	if reply.DM != "" {
		if err := b.sendDM(actor, reply.DM); err != nil {
			log.Warn("send dm", zap.Error(err))
			reply.Text = "Could not send you a DM, check your privacy settings"
		}
	}
	if _, err := b.api.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &reply.Text}); err != nil {
		log.Error("cannot complete slash command", zap.Error(err))
	}
}

func (b *Bot) respond(log *zap.Logger, i *discordgo.Interaction, content string) {
	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		log.Error("cannot respond to slash command", zap.Error(err))
	}
}

func (b *Bot) sendDM(actor engine.Actor, text string) error {
	ch, err := b.api.UserChannelCreate(string(actor))
	if err != nil {
		return err
	}
	_, err = b.api.ChannelMessageSend(ch.ID, text)
	return err
}

func interactionActor(i *discordgo.Interaction) engine.Actor {
	if i.Member != nil && i.Member.User != nil {
		return engine.Actor(i.Member.User.ID)
	}
	if i.User != nil {
		return engine.Actor(i.User.ID)
	}
	return ""
}
