package slack

import (
	"context"
	"fmt"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/focusloop/focusbot/internal/channels"
	"github.com/focusloop/focusbot/internal/logging"
)

// Adapter implements the Channel interface for Slack over Socket Mode
type Adapter struct {
	client  *slack.Client
	socket  *socketmode.Client
	handler func(channels.InboundMessage)
	mu      sync.RWMutex
	cancel  context.CancelFunc
	botID   string
}

// New creates a new Slack adapter
func New() *Adapter {
	return &Adapter{}
}

// ID returns the channel identifier
func (a *Adapter) ID() string {
	return "slack"
}

// Connect establishes the Socket Mode connection to Slack
func (a *Adapter) Connect(ctx context.Context, cfg channels.ChannelConfig) error {
	if cfg.Token == "" {
		return fmt.Errorf("slack bot token is required")
	}
	if cfg.AppToken == "" {
		return fmt.Errorf("slack app-level token is required for socket mode")
	}

	a.client = slack.New(
		cfg.Token,
		slack.OptionAppLevelToken(cfg.AppToken),
	)
	a.socket = socketmode.New(
		a.client,
		socketmode.OptionDebug(false),
	)

	authResp, err := a.client.AuthTest()
	if err != nil {
		return fmt.Errorf("failed to authenticate with slack: %w", err)
	}
	a.botID = authResp.BotID

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	go a.listen(ctx)
	go a.socket.Run()

	logging.Info("Slack bot connected and listening for messages")
	return nil
}

// Disconnect closes the connection
func (a *Adapter) Disconnect() error {
	if a.cancel != nil {
		a.cancel()
	}
	return nil
}

// Send posts a message to a Slack channel
func (a *Adapter) Send(ctx context.Context, msg channels.OutboundMessage) error {
	if a.client == nil {
		return fmt.Errorf("slack bot not connected")
	}

	opts := []slack.MsgOption{
		slack.MsgOptionText(msg.Text, false),
	}
	if msg.ThreadID != "" {
		opts = append(opts, slack.MsgOptionTS(msg.ThreadID))
	}

	_, _, err := a.client.PostMessageContext(ctx, msg.ChannelID, opts...)
	return err
}

// SetHandler sets the callback for incoming messages
func (a *Adapter) SetHandler(fn func(channels.InboundMessage)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = fn
}

// listen handles incoming events from Socket Mode
func (a *Adapter) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-a.socket.Events:
			a.handleEvent(event)
		}
	}
}

// handleEvent processes a Socket Mode event
func (a *Adapter) handleEvent(event socketmode.Event) {
	switch event.Type {
	case socketmode.EventTypeEventsAPI:
		eventsAPIEvent, ok := event.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		a.socket.Ack(*event.Request)

		switch innerEvent := eventsAPIEvent.InnerEvent.Data.(type) {
		case *slackevents.MessageEvent:
			a.handleMessage(innerEvent)
		}
	}
}

// handleMessage processes an incoming message
func (a *Adapter) handleMessage(msg *slackevents.MessageEvent) {
	// Ignore the bot's own messages and message edits/deletes
	if msg.BotID == a.botID || msg.User == "" {
		return
	}
	if msg.SubType != "" {
		return
	}

	userName := msg.User
	if userInfo, err := a.client.GetUserInfo(msg.User); err == nil {
		userName = userInfo.RealName
	}

	inbound := channels.InboundMessage{
		ChannelType: "slack",
		ChannelID:   msg.Channel,
		MessageID:   msg.TimeStamp,
		Text:        msg.Text,
		SenderID:    msg.User,
		SenderName:  userName,
		ThreadID:    msg.ThreadTimeStamp,
		Raw:         msg,
	}

	a.mu.RLock()
	handler := a.handler
	a.mu.RUnlock()
	if handler != nil {
		handler(inbound)
	}
}
