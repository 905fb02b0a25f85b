package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/hotel-quote-bot/internal/admission"
	"github.com/wolfman30/hotel-quote-bot/internal/observability/metrics"
	"github.com/wolfman30/hotel-quote-bot/internal/quoting"
	"github.com/wolfman30/hotel-quote-bot/pkg/logging"
)

var tracer = otel.Tracer("hotelquote.internal.http.handlers")

const (
	statusOK           = "ok"
	statusUnauthorized = "no_autorizado"
	maxWebhookBody     = 1 << 20
)

type admitter interface {
	Admit(ctx context.Context, messageID, sender string, sentAt time.Time) (admission.Decision, error)
	Sweep(ctx context.Context) int
}

type turnHandler interface {
	HandleTurn(ctx context.Context, turn quoting.Turn) (quoting.Outcome, error)
}

// WebhookConfig wires a WebhookHandler.
type WebhookConfig struct {
	Token string
	// AuthorizedNumber is the only sender that gets replies. Empty denies all.
	AuthorizedNumber string
	Admission        admitter
	Quotes           turnHandler
	Logger           *logging.Logger
	Metrics          *metrics.BotMetrics
}

// WebhookHandler receives Evolution relay events and answers booking
// requests from the authorized sender.
type WebhookHandler struct {
	token      []byte
	authorized string
	admission  admitter
	quotes     turnHandler
	logger     *logging.Logger
	metrics    *metrics.BotMetrics
}

func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	if cfg.Admission == nil {
		panic("handlers: admission controller is required")
	}
	if cfg.Quotes == nil {
		panic("handlers: quoting service is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WebhookHandler{
		token:      []byte(cfg.Token),
		authorized: normalizePhoneDigits(cfg.AuthorizedNumber),
		admission:  cfg.Admission,
		quotes:     cfg.Quotes,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// Handle processes POST /webhook?token=...
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "webhook.evolution", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	status := h.handle(ctx, w, r)
	span.SetAttributes(attribute.String("webhook.status", status))
	h.metrics.ObserveWebhook(status)
}

// handle writes the response and returns the status label for metrics.
func (h *WebhookHandler) handle(ctx context.Context, w http.ResponseWriter, r *http.Request) string {
	if !h.validToken(r.URL.Query().Get("token")) {
		h.logger.Warn("webhook rejected: invalid token", "remote_addr", r.RemoteAddr)
		jsonError(w, "Token invalido", http.StatusUnauthorized)
		return "unauthorized"
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		jsonError(w, "invalid body", http.StatusBadRequest)
		return "bad_request"
	}
	var evt evolutionEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		h.logger.Warn("webhook rejected: invalid payload", "error", err)
		jsonError(w, "invalid payload", http.StatusBadRequest)
		return "bad_request"
	}

	if evt.Event != eventMessagesUpsert || evt.Data.Key.FromMe {
		writeStatus(w, statusOK)
		return "ignored"
	}

	key := evt.Data.Key
	sender := key.Sender()
	if h.authorized == "" || normalizePhoneDigits(sender) != h.authorized {
		h.logger.Info("message from unauthorized sender ignored", "sender", sender)
		writeStatus(w, statusUnauthorized)
		return statusUnauthorized
	}

	text := evt.Data.Message.Text()
	if text == "" || sender == "" {
		writeStatus(w, statusOK)
		return "ignored"
	}

	decision, err := h.admission.Admit(ctx, key.ID, sender, evt.Data.MessageTimestamp.Time())
	if err != nil {
		h.logger.Error("admission failed", "error", err, "sender", sender, "message_id", key.ID)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return "error"
	}
	h.metrics.ObserveAdmission(decision.Admitted, string(decision.Reason))
	if !decision.Admitted {
		h.logger.Debug("message not admitted", "sender", sender, "message_id", key.ID, "reason", string(decision.Reason))
		writeStatus(w, statusOK)
		return "not_admitted"
	}

	if evicted := h.admission.Sweep(ctx); evicted > 0 {
		h.logger.Debug("evicted idle conversations", "count", evicted)
	}

	// The relay may hang up before the reply cycle finishes; the reply
	// must still go out.
	outcome, err := h.quotes.HandleTurn(context.WithoutCancel(ctx), quoting.Turn{
		Instance:  evt.Instance,
		RemoteJID: key.RemoteJID,
		Sender:    sender,
		MessageID: key.ID,
		Text:      text,
	})
	if err != nil {
		h.logger.Error("reply cycle failed", "error", err, "sender", sender, "message_id", key.ID)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return "error"
	}
	writeStatus(w, string(outcome.Status))
	return string(outcome.Status)
}

func (h *WebhookHandler) validToken(got string) bool {
	return subtle.ConstantTimeCompare([]byte(got), h.token) == 1
}
