package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ContextMessage is one turn of recent conversation kept for the classifier prompt
type ContextMessage struct {
	Role      string `json:"role"` // user or assistant
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ConversationContext is the per-channel conversation state. It is an explicit
// value the caller loads, passes around, and writes back; the process keeps no
// ambient copy between requests.
type ConversationContext struct {
	ChannelID       string           `json:"channel_id"`
	ActiveProjectID string           `json:"active_project_id,omitempty"`
	ActiveTaskID    string           `json:"active_task_id,omitempty"`
	Messages        []ContextMessage `json:"messages"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

const maxContextMessages = 10

// Append adds a message, keeping only the most recent entries
func (c *ConversationContext) Append(role, content string) {
	c.Messages = append(c.Messages, ContextMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Unix(),
	})
	if len(c.Messages) > maxContextMessages {
		c.Messages = c.Messages[len(c.Messages)-maxContextMessages:]
	}
}

// GetConversationContext loads the context for a channel, returning an empty
// context (not an error) when the channel has none yet.
func (s *Store) GetConversationContext(ctx context.Context, channelID string) (*ConversationContext, error) {
	var cc ConversationContext
	var activeProject, activeTask sql.NullString
	var messagesJSON string
	var updatedAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT channel_id, active_project_id, active_task_id, messages, updated_at
		 FROM conversation_context WHERE channel_id = ?`, channelID).
		Scan(&cc.ChannelID, &activeProject, &activeTask, &messagesJSON, &updatedAt)
	if err == sql.ErrNoRows {
		return &ConversationContext{ChannelID: channelID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation context: %w", err)
	}

	cc.ActiveProjectID = activeProject.String
	cc.ActiveTaskID = activeTask.String
	cc.UpdatedAt = time.Unix(updatedAt, 0)
	if err := json.Unmarshal([]byte(messagesJSON), &cc.Messages); err != nil {
		// Corrupt history is dropped rather than blocking the conversation
		cc.Messages = nil
	}
	return &cc, nil
}

// SaveConversationContext upserts the context for a channel
func (s *Store) SaveConversationContext(ctx context.Context, cc *ConversationContext) error {
	messagesJSON, err := json.Marshal(cc.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal context messages: %w", err)
	}
	if len(cc.Messages) == 0 {
		messagesJSON = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversation_context (channel_id, active_project_id, active_task_id, messages, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (channel_id) DO UPDATE SET
		   active_project_id = excluded.active_project_id,
		   active_task_id = excluded.active_task_id,
		   messages = excluded.messages,
		   updated_at = excluded.updated_at`,
		cc.ChannelID, nullString(cc.ActiveProjectID), nullString(cc.ActiveTaskID),
		string(messagesJSON), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation context: %w", err)
	}
	return nil
}
