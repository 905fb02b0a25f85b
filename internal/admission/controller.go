// Package admission decides which inbound chat messages start a reply cycle.
// It drops duplicates and stale deliveries and folds rapid-fire messages
// from one sender into a single conversation turn.
package admission

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/hotel-quote-bot/pkg/logging"
)

// Status is the lifecycle state of a sender's conversation.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Reason explains an admission decision.
type Reason string

const (
	ReasonFirstMessage Reason = "first_message"
	ReasonReopened     Reason = "reopened"
	ReasonNewTurn      Reason = "new_turn"
	ReasonDuplicate    Reason = "duplicate"
	ReasonStale        Reason = "stale"
	ReasonClosing      Reason = "closing_grace"
	ReasonGrouped      Reason = "grouped"
)

// Decision is the result of Admit. Only admitted messages get a reply.
type Decision struct {
	Admitted bool
	Reason   Reason
}

// Conversation is the per-sender state owned by the Controller.
type Conversation struct {
	Status       Status
	LastActivity time.Time
	MessageIDs   []string
}

// Config tunes the admission windows.
type Config struct {
	// StaleAfter rejects messages older than this when delivered.
	StaleAfter time.Duration
	// GroupWindow absorbs follow-ups that arrive this soon after the last one.
	GroupWindow time.Duration
	// GraceWindow rejects trailing messages right after a reply cycle closed.
	GraceWindow time.Duration
	// InactivityTimeout is how long Sweep keeps idle conversations.
	InactivityTimeout time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		StaleAfter:        60 * time.Second,
		GroupWindow:       1 * time.Second,
		GraceWindow:       5 * time.Second,
		InactivityTimeout: time.Hour,
	}
}

// Controller serializes every admission decision behind one mutex so that
// concurrent webhook deliveries cannot both be admitted.
type Controller struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
	processed     ProcessedIDs
	cfg           Config
	now           func() time.Time
	logger        *logging.Logger
}

// NewController builds a Controller. A nil processed cache falls back to an
// in-memory one.
func NewController(cfg Config, processed ProcessedIDs, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	if processed == nil {
		processed = NewMemoryProcessedIDs(DefaultMaxProcessedIDs)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		conversations: make(map[string]*Conversation),
		processed:     processed,
		cfg:           cfg,
		now:           now,
		logger:        logger,
	}
}

// Admit records messageID from sender, sent at sentAt, and reports whether
// it should be processed now.
func (c *Controller) Admit(ctx context.Context, messageID, sender string, sentAt time.Time) (Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen, err := c.processed.Seen(ctx, messageID)
	if err != nil {
		return Decision{}, err
	}
	if seen {
		return Decision{Reason: ReasonDuplicate}, nil
	}

	// A failed Mark must leave conversation state untouched.
	if err := c.processed.Mark(ctx, messageID); err != nil {
		return Decision{}, err
	}
	decision := c.decide(messageID, sender, sentAt, c.now())
	c.logger.Debug("admission decision",
		"sender", sender,
		"message_id", messageID,
		"admitted", decision.Admitted,
		"reason", string(decision.Reason),
	)
	return decision, nil
}

func (c *Controller) decide(messageID, sender string, sentAt, now time.Time) Decision {
	if now.Sub(sentAt) > c.cfg.StaleAfter {
		return Decision{Reason: ReasonStale}
	}

	conv, ok := c.conversations[sender]
	if !ok {
		c.conversations[sender] = &Conversation{
			Status:       StatusActive,
			LastActivity: now,
			MessageIDs:   []string{messageID},
		}
		return Decision{Admitted: true, Reason: ReasonFirstMessage}
	}

	idle := now.Sub(conv.LastActivity)
	switch conv.Status {
	case StatusClosed:
		if idle < c.cfg.GraceWindow {
			return Decision{Reason: ReasonClosing}
		}
		conv.Status = StatusActive
		conv.LastActivity = now
		conv.MessageIDs = []string{messageID}
		return Decision{Admitted: true, Reason: ReasonReopened}
	default:
		conv.LastActivity = now
		if idle < c.cfg.GroupWindow {
			conv.MessageIDs = append(conv.MessageIDs, messageID)
			return Decision{Reason: ReasonGrouped}
		}
		return Decision{Admitted: true, Reason: ReasonNewTurn}
	}
}

// Close ends the sender's current reply cycle.
func (c *Controller) Close(sender string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conv, ok := c.conversations[sender]; ok {
		conv.Status = StatusClosed
		conv.LastActivity = c.now()
	}
}

// Sweep drops conversations idle longer than InactivityTimeout and returns
// how many were removed.
func (c *Controller) Sweep(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.InactivityTimeout <= 0 {
		return 0
	}
	now := c.now()
	removed := 0
	for sender, conv := range c.conversations {
		if now.Sub(conv.LastActivity) > c.cfg.InactivityTimeout {
			delete(c.conversations, sender)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("swept idle conversations", "removed", removed)
	}
	return removed
}

// Conversation returns a copy of the sender's state.
func (c *Controller) Conversation(sender string) (Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conv, ok := c.conversations[sender]
	if !ok {
		return Conversation{}, false
	}
	out := *conv
	out.MessageIDs = append([]string(nil), conv.MessageIDs...)
	return out, true
}

// ProcessedCount reports the size of the processed-id cache.
func (c *Controller) ProcessedCount(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processed.Len(ctx)
}
