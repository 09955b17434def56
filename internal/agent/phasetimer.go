package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/focusloop/focusbot/internal/logging"
	"github.com/focusloop/focusbot/internal/session"
)

// PhaseTimer fires the in-process work and break phase signals for running
// sessions. Timers are advisory: all authoritative state lives in the store,
// so a restart loses pending signals but never corrupts a session.
type PhaseTimer struct {
	engine *session.Engine
	sender Sender

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewPhaseTimer creates a timer registry bound to the engine and sender
func NewPhaseTimer(engine *session.Engine, sender Sender) *PhaseTimer {
	return &PhaseTimer{
		engine: engine,
		sender: sender,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms the work-phase timer for a session. When the work minutes
// elapse the channel is notified and the break timer is armed; when the break
// elapses the session completes. Re-scheduling an armed session replaces its
// timer, which is how resume re-arms against the remaining budget.
func (p *PhaseTimer) Schedule(sessionID, channelID, taskTitle string, workMinutes, breakMinutes int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.timers[sessionID]; ok {
		t.Stop()
	}
	p.timers[sessionID] = time.AfterFunc(time.Duration(workMinutes)*time.Minute, func() {
		p.onWorkElapsed(sessionID, channelID, taskTitle, breakMinutes)
	})
}

func (p *PhaseTimer) onWorkElapsed(sessionID, channelID, taskTitle string, breakMinutes int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg := fmt.Sprintf("🔔 Work phase done on %q! Take a %d-minute break.", taskTitle, breakMinutes)
	if err := p.sender.Send(ctx, channelID, msg); err != nil {
		logging.Errorf("Failed to send work-phase notification: %v", err)
	}

	p.mu.Lock()
	p.timers[sessionID] = time.AfterFunc(time.Duration(breakMinutes)*time.Minute, func() {
		p.onBreakElapsed(sessionID, channelID, taskTitle)
	})
	p.mu.Unlock()
}

func (p *PhaseTimer) onBreakElapsed(sessionID, channelID, taskTitle string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p.mu.Lock()
	delete(p.timers, sessionID)
	p.mu.Unlock()

	// The session may have been paused or completed by hand while the break
	// timer was pending; state errors here are expected, not failures.
	if err := p.engine.Complete(ctx, sessionID); err != nil {
		logging.Warnf("Break-end completion skipped for session %s: %v", sessionID, err)
		return
	}

	msg := fmt.Sprintf("✅ Break's over - session on %q is complete. Start another when ready!", taskTitle)
	if err := p.sender.Send(ctx, channelID, msg); err != nil {
		logging.Errorf("Failed to send break-end notification: %v", err)
	}
}

// Stop cancels a single session's pending timer, if any
func (p *PhaseTimer) Stop(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.timers[sessionID]; ok {
		t.Stop()
		delete(p.timers, sessionID)
	}
}

// StopAll cancels every pending timer. Used on pause-all and shutdown.
func (p *PhaseTimer) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}

// Pending reports how many sessions have an armed timer
func (p *PhaseTimer) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}
