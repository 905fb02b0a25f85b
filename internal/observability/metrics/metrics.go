package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the quotation bot.
type BotMetrics struct {
	webhookTotal   *prometheus.CounterVec
	admissionTotal *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
	quoteGross     prometheus.Histogram
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotelquote",
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Inbound relay webhooks by response status",
		}, []string{"status"}),
		admissionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotelquote",
			Subsystem: "admission",
			Name:      "decisions_total",
			Help:      "Admission decisions for inbound messages",
		}, []string{"admitted", "reason"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotelquote",
			Subsystem: "relay",
			Name:      "outbound_total",
			Help:      "Outbound relay calls by kind and result",
		}, []string{"call", "result"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hotelquote",
			Subsystem: "quoting",
			Name:      "turn_duration_seconds",
			Help:      "Duration of a reply cycle, composing delay included",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 8, 13, 21},
		}, []string{"status"}),
		quoteGross: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hotelquote",
			Subsystem: "quoting",
			Name:      "quote_gross_clp",
			Help:      "Gross total of issued quotations in CLP",
			Buckets:   prometheus.ExponentialBuckets(50000, 2, 10),
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhookTotal, m.admissionTotal, m.outboundTotal, m.turnLatency, m.quoteGross)
	return m
}

func (m *BotMetrics) ObserveWebhook(status string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveAdmission(admitted bool, reason string) {
	if m == nil {
		return
	}
	label := "false"
	if admitted {
		label = "true"
	}
	m.admissionTotal.WithLabelValues(label, reason).Inc()
}

func (m *BotMetrics) ObserveOutbound(call string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.outboundTotal.WithLabelValues(call, result).Inc()
}

func (m *BotMetrics) ObserveTurn(status string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(status).Observe(seconds)
}

func (m *BotMetrics) ObserveQuote(gross int64) {
	if m == nil {
		return
	}
	m.quoteGross.Observe(float64(gross))
}
