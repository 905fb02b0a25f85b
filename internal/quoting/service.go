// Package quoting runs one reply cycle for an admitted WhatsApp message:
// extract the booking request, price it, render the quotation and answer
// through the relay.
package quoting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/hotel-quote-bot/internal/extraction"
	"github.com/wolfman30/hotel-quote-bot/internal/observability/metrics"
	"github.com/wolfman30/hotel-quote-bot/internal/pricing"
	"github.com/wolfman30/hotel-quote-bot/internal/quotepdf"
	"github.com/wolfman30/hotel-quote-bot/internal/relay"
	"github.com/wolfman30/hotel-quote-bot/pkg/logging"
)

var tracer = otel.Tracer("hotelquote.internal.quoting")

// ErrUnexpected marks failures that are not part of the normal reply flow.
var ErrUnexpected = errors.New("quoting: unexpected failure")

// Status is reported back to the relay as the webhook response status.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusIncomplete  Status = "info_incompleta"
	StatusQuoteFailed Status = "error_cotizacion"
)

// Messenger sends replies back to the chat. relay.Client implements it.
type Messenger interface {
	MarkRead(ctx context.Context, instance, remoteJID, messageID string) error
	SendPresence(ctx context.Context, instance, number, presence string, d time.Duration) error
	SendText(ctx context.Context, instance, number, text string) error
	SendDocument(ctx context.Context, instance string, doc relay.Document) error
}

// Renderer produces the quotation document.
type Renderer interface {
	Render(q quotepdf.Quotation) ([]byte, error)
}

// ConversationCloser marks a conversation as replied to.
type ConversationCloser interface {
	Close(sender string)
}

// Turn is one admitted inbound message.
type Turn struct {
	Instance  string
	RemoteJID string
	Sender    string
	MessageID string
	Text      string
}

// Outcome describes what the reply cycle did.
type Outcome struct {
	Status     Status
	Intent     extraction.BookingIntent
	Validation extraction.Validation
	Totals     *pricing.Totals
	Quotation  string
}

// Config wires a Service.
type Config struct {
	Messenger         Messenger
	Renderer          Renderer
	Conversations     ConversationCloser
	Rates             pricing.RateTable
	ComposingDuration time.Duration
	DocumentDelay     time.Duration
	Location          *time.Location
	Logger            *logging.Logger
	Metrics           *metrics.BotMetrics
	Now               func() time.Time
	NewQuoteNumber    func() string
}

// Service answers admitted turns.
type Service struct {
	messenger     Messenger
	renderer      Renderer
	conversations ConversationCloser
	rates         pricing.RateTable
	composing     time.Duration
	documentDelay time.Duration
	location      *time.Location
	logger        *logging.Logger
	metrics       *metrics.BotMetrics
	now           func() time.Time
	quoteNumber   func() string
}

func NewService(cfg Config) *Service {
	if cfg.Messenger == nil {
		panic("quoting: messenger is required")
	}
	if cfg.Renderer == nil {
		panic("quoting: renderer is required")
	}
	if cfg.Conversations == nil {
		panic("quoting: conversation closer is required")
	}
	if cfg.Rates == nil {
		cfg.Rates = pricing.DefaultRates()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewQuoteNumber == nil {
		cfg.NewQuoteNumber = func() string {
			return strings.ToUpper(uuid.NewString()[:8])
		}
	}
	return &Service{
		messenger:     cfg.Messenger,
		renderer:      cfg.Renderer,
		conversations: cfg.Conversations,
		rates:         cfg.Rates,
		composing:     cfg.ComposingDuration,
		documentDelay: cfg.DocumentDelay,
		location:      cfg.Location,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		now:           cfg.Now,
		quoteNumber:   cfg.NewQuoteNumber,
	}
}

// HandleTurn runs the reply cycle for turn. Relay failures are logged and
// folded into the returned status; a non-nil error wraps ErrUnexpected. The
// sender's conversation is closed on every return path.
func (s *Service) HandleTurn(ctx context.Context, turn Turn) (out Outcome, err error) {
	ctx, span := tracer.Start(ctx, "quoting.handle_turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("quoting.sender", turn.Sender),
		attribute.String("quoting.message_id", turn.MessageID),
	)

	started := s.now()
	log := s.logger.With("sender", turn.Sender, "message_id", turn.MessageID)

	defer s.conversations.Close(turn.Sender)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnexpected, r)
			log.Error("reply cycle panicked", "error", err)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetAttributes(attribute.String("quoting.status", string(out.Status)))
		s.metrics.ObserveTurn(string(out.Status), s.now().Sub(started).Seconds())
	}()

	s.observe(ctx, log, "mark_read", func(ctx context.Context) error {
		return s.messenger.MarkRead(ctx, turn.Instance, turn.RemoteJID, turn.MessageID)
	})

	intent := extraction.Extract(turn.Text, s.now().In(s.location))
	validation := intent.Validate()
	out.Intent = intent
	out.Validation = validation

	if !validation.OK() {
		log.Info("booking request incomplete", "reason", validation.Reason, "missing", validation.Missing)
		s.compose(ctx, log, turn)
		text := needMoreInfoText
		if validation.Reason == extraction.ReasonNonPositiveNights {
			text = invalidDatesText
		}
		s.sendText(ctx, log, turn, text)
		out.Status = StatusIncomplete
		return out, nil
	}

	s.compose(ctx, log, turn)

	totals := pricing.Quote(intent.RoomDescription, validation.Nights, s.rates)
	out.Totals = &totals
	out.Quotation = s.quoteNumber()

	doc, err := s.renderer.Render(quotepdf.Quotation{
		Number:   out.Quotation,
		IssuedAt: s.now().In(s.location),
		CheckIn:  intent.CheckIn,
		CheckOut: intent.CheckOut,
		Guests:   intent.GuestCount,
		Totals:   totals,
	})
	if err != nil {
		log.Error("failed to render quotation", "error", err)
		s.sendText(ctx, log, turn, quoteFailedText)
		out.Status = StatusQuoteFailed
		return out, nil
	}

	summary := summaryText(summaryInput{
		checkIn:  intent.CheckIn.Format(summaryDateFmt),
		checkOut: intent.CheckOut.Format(summaryDateFmt),
		totals:   totals,
	})
	if !s.sendText(ctx, log, turn, summary) {
		s.sendText(ctx, log, turn, quoteFailedText)
		out.Status = StatusQuoteFailed
		return out, nil
	}

	if err := sleep(ctx, s.documentDelay); err != nil {
		log.Warn("document delay interrupted", "error", err)
	}
	s.observe(ctx, log, "document", func(ctx context.Context) error {
		return s.messenger.SendDocument(ctx, turn.Instance, relay.Document{
			Number:   turn.Sender,
			Base64:   quotepdf.EncodeBase64(doc),
			FileName: documentFileName,
			MimeType: "application/pdf",
		})
	})

	s.metrics.ObserveQuote(totals.Gross)
	log.Info("quotation sent",
		"quotation", out.Quotation,
		"nights", totals.Nights,
		"gross", totals.Gross,
	)
	out.Status = StatusSuccess
	return out, nil
}

// compose shows the typing indicator and waits for the composing duration.
func (s *Service) compose(ctx context.Context, log *logging.Logger, turn Turn) {
	s.observe(ctx, log, "presence", func(ctx context.Context) error {
		return s.messenger.SendPresence(ctx, turn.Instance, turn.Sender, relay.PresenceComposing, s.composing)
	})
	if err := sleep(ctx, s.composing); err != nil {
		log.Warn("composing delay interrupted", "error", err)
	}
}

func (s *Service) sendText(ctx context.Context, log *logging.Logger, turn Turn, text string) bool {
	return s.observe(ctx, log, "text", func(ctx context.Context) error {
		return s.messenger.SendText(ctx, turn.Instance, turn.Sender, text)
	})
}

// observe runs a relay call, recording and logging its failure.
func (s *Service) observe(ctx context.Context, log *logging.Logger, call string, fn func(context.Context) error) bool {
	err := fn(ctx)
	s.metrics.ObserveOutbound(call, err)
	if err != nil {
		log.Warn("relay call failed", "call", call, "error", err)
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
