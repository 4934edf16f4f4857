package discord

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/NgigiN/fraudshield/internal/analysis"
	"github.com/NgigiN/fraudshield/internal/appcontext"
	"github.com/NgigiN/fraudshield/internal/config"
	"github.com/NgigiN/fraudshield/internal/ledger"
	"github.com/NgigiN/fraudshield/internal/predict"
)

// maxMessageLen is Discord's hard limit for one message.
const maxMessageLen = 2000

// Ledger is the read side the views need plus Clear.
type Ledger interface {
	Query(ctx context.Context) ([]ledger.Record, error)
	Clear(ctx context.Context) error
}

type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (ledger.Record, error)
}

// HealthChecker reports whether the scoring service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) (*predict.HealthStatus, error)
}

type Bot struct {
	session   *discordgo.Session
	channelID string
	startTime time.Time
	logger    *slog.Logger

	ledger   Ledger
	analyzer Analyzer
	health   HealthChecker

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewBot(cfg *config.Config, l Ledger, a Analyzer, hc HealthChecker, logger *slog.Logger) (*Bot, error) {
	if err := cfg.RequireDiscord(); err != nil {
		return nil, err
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	bot := newBot(cfg.DiscordChannelId, l, a, hc, logger)
	bot.session = session

	session.AddHandler(bot.handleMessage)
	session.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	return bot, nil
}

func newBot(channelID string, l Ledger, a Analyzer, hc HealthChecker, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		channelID: channelID,
		startTime: time.Now(),
		logger:    logger,
		ledger:    l,
		analyzer:  a,
		health:    hc,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	b.logger.Info("discord bot connected", "channel_id", b.channelID)
	return nil
}

func (b *Bot) Stop() {
	if err := b.session.Close(); err != nil {
		b.logger.Warn("closing discord session", "error", err)
	}
}

func (b *Bot) connected() bool {
	return b.session != nil && b.session.State != nil && b.session.State.User != nil
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return //bot's messages
	}
	if m.ChannelID != b.channelID {
		return //specific to the channel
	}

	ctx := appcontext.WithLogger(context.Background(), b.logger.With("message_id", m.ID, "author", m.Author.Username))
	reply := b.respond(ctx, m.Content)
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, truncate(reply, maxMessageLen)); err != nil {
		b.logger.Error("failed to send reply", "channel_id", m.ChannelID, "error", err)
	}
}

func (b *Bot) synthetic(anomalous bool) analysis.Input {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return generate(b.rng, anomalous)
}
