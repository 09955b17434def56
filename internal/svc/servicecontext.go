package svc

import (
	"context"
	"fmt"

	"github.com/focusloop/focusbot/internal/agent"
	"github.com/focusloop/focusbot/internal/channels"
	slackchannel "github.com/focusloop/focusbot/internal/channels/slack"
	"github.com/focusloop/focusbot/internal/config"
	"github.com/focusloop/focusbot/internal/db"
	"github.com/focusloop/focusbot/internal/digest"
	"github.com/focusloop/focusbot/internal/intent"
	"github.com/focusloop/focusbot/internal/logging"
	"github.com/focusloop/focusbot/internal/resolve"
	"github.com/focusloop/focusbot/internal/session"
)

// ServiceContext carries the shared dependencies every handler receives
type ServiceContext struct {
	Config     config.Config
	DB         *db.Store
	Resolver   *resolve.Resolver
	Engine     *session.Engine
	Classifier intent.Classifier
	Channels   *channels.Manager
	Agent      *agent.Agent
	Digest     *digest.Scheduler
}

// channelSender adapts the channel manager to the agent's Sender port,
// pinned to one channel type.
type channelSender struct {
	manager     *channels.Manager
	channelType string
}

func (s *channelSender) Send(ctx context.Context, channelID, text string) error {
	return s.manager.Send(ctx, s.channelType, channels.OutboundMessage{
		ChannelID: channelID,
		Text:      text,
	})
}

// NewServiceContext wires the full dependency graph: store, resolver, engine,
// classifier, channels, agent, and digest scheduler. Nothing is connected yet;
// Start does that.
func NewServiceContext(c config.Config) (*ServiceContext, error) {
	store, err := db.NewSQLite(c.Database.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var classifier intent.Classifier
	if c.Anthropic.APIKey != "" {
		classifier = intent.NewAnthropicClassifier(c.Anthropic.APIKey, c.Anthropic.Model)
	} else {
		logging.Warn("No Anthropic API key configured, falling back to keyword intent detection")
		classifier = intent.KeywordClassifier{}
	}

	manager := channels.NewManager()
	manager.Register(slackchannel.New())

	resolver := resolve.New(store)
	engine := session.NewEngine(store)
	sender := &channelSender{manager: manager, channelType: "slack"}
	ag := agent.New(store, resolver, engine, classifier, sender)

	svcCtx := &ServiceContext{
		Config:     c,
		DB:         store,
		Resolver:   resolver,
		Engine:     engine,
		Classifier: classifier,
		Channels:   manager,
		Agent:      ag,
	}
	if c.Slack.DigestChannelID != "" {
		svcCtx.Digest = digest.NewScheduler(store, sender, c.Slack.DigestChannelID)
	}

	manager.SetHandler(func(msg channels.InboundMessage) {
		ctx := context.Background()
		reply := ag.HandleMessage(ctx, msg.Text, msg.ChannelID)
		if err := manager.Send(ctx, msg.ChannelType, channels.OutboundMessage{
			ChannelID: msg.ChannelID,
			Text:      reply,
			ThreadID:  msg.ThreadID,
		}); err != nil {
			logging.Errorf("Failed to send reply: %v", err)
		}
	})

	return svcCtx, nil
}

// Start connects the configured channels and starts the digest scheduler
func (s *ServiceContext) Start(ctx context.Context) error {
	if s.Config.Slack.Enabled {
		if err := s.Channels.Connect(ctx, "slack", channels.ChannelConfig{
			Token:    s.Config.Slack.BotToken,
			AppToken: s.Config.Slack.AppToken,
		}); err != nil {
			return fmt.Errorf("connect slack: %w", err)
		}
	}
	if s.Digest != nil {
		if err := s.Digest.Start(s.Config.Digest.MorningCron, s.Config.Digest.EveningCron); err != nil {
			return fmt.Errorf("start digest scheduler: %w", err)
		}
	}
	return nil
}

// Close releases everything the context owns
func (s *ServiceContext) Close() {
	if s.Digest != nil {
		s.Digest.Stop()
	}
	s.Agent.Timers().StopAll()
	if err := s.Channels.DisconnectAll(); err != nil {
		logging.Warnf("Channel disconnect: %v", err)
	}
	if err := s.DB.Close(); err != nil {
		logging.Warnf("Database close: %v", err)
	}
}
