package quoting

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/hotel-quote-bot/internal/pricing"
	"github.com/wolfman30/hotel-quote-bot/internal/quotepdf"
	"github.com/wolfman30/hotel-quote-bot/internal/relay"
	"github.com/wolfman30/hotel-quote-bot/pkg/logging"
)

var (
	santiago = time.FixedZone("CLT", -3*60*60)
	testNow  = time.Date(2026, time.October, 19, 10, 30, 0, 0, santiago)
)

const fullRequest = "necesito 2 dobles y 1 superior para el 10/12 al 15/12, somos 5 personas"

type sentCall struct {
	kind string
	text string
	doc  relay.Document
}

type fakeMessenger struct {
	calls  []sentCall
	failOn map[string]error
}

func (f *fakeMessenger) fail(kind string) error {
	if f.failOn == nil {
		return nil
	}
	return f.failOn[kind]
}

func (f *fakeMessenger) MarkRead(_ context.Context, _, _, _ string) error {
	f.calls = append(f.calls, sentCall{kind: "mark_read"})
	return f.fail("mark_read")
}

func (f *fakeMessenger) SendPresence(_ context.Context, _, _, presence string, _ time.Duration) error {
	f.calls = append(f.calls, sentCall{kind: "presence", text: presence})
	return f.fail("presence")
}

func (f *fakeMessenger) SendText(_ context.Context, _, _, text string) error {
	f.calls = append(f.calls, sentCall{kind: "text", text: text})
	return f.fail("text")
}

func (f *fakeMessenger) SendDocument(_ context.Context, _ string, doc relay.Document) error {
	f.calls = append(f.calls, sentCall{kind: "document", doc: doc})
	return f.fail("document")
}

func (f *fakeMessenger) kinds() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.kind)
	}
	return out
}

func (f *fakeMessenger) texts() []string {
	var out []string
	for _, c := range f.calls {
		if c.kind == "text" {
			out = append(out, c.text)
		}
	}
	return out
}

type fakeRenderer struct {
	err      error
	panicMsg string
	got      []quotepdf.Quotation
}

func (f *fakeRenderer) Render(q quotepdf.Quotation) ([]byte, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.got = append(f.got, q)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

type fakeCloser struct {
	closed []string
}

func (f *fakeCloser) Close(sender string) {
	f.closed = append(f.closed, sender)
}

type harness struct {
	svc       *Service
	messenger *fakeMessenger
	renderer  *fakeRenderer
	closer    *fakeCloser
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		messenger: &fakeMessenger{},
		renderer:  &fakeRenderer{},
		closer:    &fakeCloser{},
	}
	h.svc = NewService(Config{
		Messenger:      h.messenger,
		Renderer:       h.renderer,
		Conversations:  h.closer,
		Rates:          pricing.DefaultRates(),
		Location:       santiago,
		Logger:         logging.NewWithWriter("error", io.Discard),
		Now:            func() time.Time { return testNow },
		NewQuoteNumber: func() string { return "ABCD1234" },
	})
	return h
}

func turn(text string) Turn {
	return Turn{
		Instance:  "hotel",
		RemoteJID: "56911112222@s.whatsapp.net",
		Sender:    "56911112222",
		MessageID: "msg-1",
		Text:      text,
	}
}

func equalKinds(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
}

func TestHandleTurnSendsQuotation(t *testing.T) {
	h := newHarness(t)

	out, err := h.svc.HandleTurn(context.Background(), turn(fullRequest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", out.Status)
	}
	equalKinds(t, h.messenger.kinds(), "mark_read", "presence", "text", "document")

	if out.Totals == nil || out.Totals.Nights != 5 {
		t.Fatalf("expected 5 priced nights, got %+v", out.Totals)
	}
	if out.Totals.Gross != 1439602 {
		t.Fatalf("expected gross 1439602, got %d", out.Totals.Gross)
	}

	summary := h.messenger.texts()[0]
	for _, want := range []string{
		"Cotizacion generada:",
		"Check-in: 2026-12-10",
		"Check-out: 2026-12-15",
		"Noches: 5",
		"Habitaciones: 2 Doble 2 Camas, 1 Superior",
		"Total: $1.439.602 CLP",
		"Enviando PDF...",
	} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}

	doc := h.messenger.calls[3].doc
	if doc.FileName != "cotizacion.pdf" || doc.Number != "56911112222" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Base64 != quotepdf.EncodeBase64([]byte("%PDF-1.3 fake")) {
		t.Fatalf("document not base64 encoded: %q", doc.Base64)
	}

	if len(h.renderer.got) != 1 {
		t.Fatalf("expected one render, got %d", len(h.renderer.got))
	}
	q := h.renderer.got[0]
	if q.Number != "ABCD1234" || q.Guests != 5 || !q.IssuedAt.Equal(testNow) {
		t.Fatalf("unexpected quotation %+v", q)
	}
	if len(h.closer.closed) != 1 || h.closer.closed[0] != "56911112222" {
		t.Fatalf("expected conversation closed once, got %v", h.closer.closed)
	}
}

func TestHandleTurnAsksForMissingInformation(t *testing.T) {
	h := newHarness(t)

	out, err := h.svc.HandleTurn(context.Background(), turn("hola, quiero cotizar"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusIncomplete {
		t.Fatalf("expected info_incompleta, got %s", out.Status)
	}
	equalKinds(t, h.messenger.kinds(), "mark_read", "presence", "text")
	if h.messenger.texts()[0] != needMoreInfoText {
		t.Fatalf("unexpected reply %q", h.messenger.texts()[0])
	}
	if len(h.renderer.got) != 0 {
		t.Fatal("renderer should not run for incomplete requests")
	}
	if len(h.closer.closed) != 1 {
		t.Fatalf("expected conversation closed, got %v", h.closer.closed)
	}
}

func TestHandleTurnRenderFailure(t *testing.T) {
	h := newHarness(t)
	h.renderer.err = errors.New("font missing")

	out, err := h.svc.HandleTurn(context.Background(), turn(fullRequest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusQuoteFailed {
		t.Fatalf("expected error_cotizacion, got %s", out.Status)
	}
	equalKinds(t, h.messenger.kinds(), "mark_read", "presence", "text")
	if h.messenger.texts()[0] != quoteFailedText {
		t.Fatalf("unexpected reply %q", h.messenger.texts()[0])
	}
	if len(h.closer.closed) != 1 {
		t.Fatalf("expected conversation closed, got %v", h.closer.closed)
	}
}

func TestHandleTurnSummaryFailureSendsErrorText(t *testing.T) {
	h := newHarness(t)
	h.messenger.failOn = map[string]error{"text": errors.New("relay down")}

	out, err := h.svc.HandleTurn(context.Background(), turn(fullRequest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusQuoteFailed {
		t.Fatalf("expected error_cotizacion, got %s", out.Status)
	}
	equalKinds(t, h.messenger.kinds(), "mark_read", "presence", "text", "text")
	if got := h.messenger.texts()[1]; got != quoteFailedText {
		t.Fatalf("expected error text, got %q", got)
	}
}

func TestHandleTurnDocumentFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.messenger.failOn = map[string]error{
		"mark_read": errors.New("not found"),
		"presence":  errors.New("timeout"),
		"document":  errors.New("too large"),
	}

	out, err := h.svc.HandleTurn(context.Background(), turn(fullRequest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", out.Status)
	}
	equalKinds(t, h.messenger.kinds(), "mark_read", "presence", "text", "document")
}

func TestHandleTurnPanicStillClosesConversation(t *testing.T) {
	h := newHarness(t)
	h.renderer.panicMsg = "layout exploded"

	_, err := h.svc.HandleTurn(context.Background(), turn(fullRequest))
	if !errors.Is(err, ErrUnexpected) {
		t.Fatalf("expected ErrUnexpected, got %v", err)
	}
	if !strings.Contains(err.Error(), "layout exploded") {
		t.Fatalf("expected panic detail in error, got %v", err)
	}
	if len(h.closer.closed) != 1 {
		t.Fatalf("expected conversation closed after panic, got %v", h.closer.closed)
	}
}

func TestComposingDelayHonoursContext(t *testing.T) {
	h := newHarness(t)
	h.svc.composing = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.svc.HandleTurn(ctx, turn("hola"))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("composing delay ignored context cancellation")
	}
}

func TestSleepZeroDuration(t *testing.T) {
	if err := sleep(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
