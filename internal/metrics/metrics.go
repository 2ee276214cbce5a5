package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ContactsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smspanel_contacts_total",
			Help: "Campaign contacts processed by outcome",
		},
		[]string{"outcome"}, // sent|failed|no_credit
	)

	DispatchPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smspanel_dispatch_passes_total",
			Help: "Dispatch passes by result",
		},
		[]string{"result"}, // completed|failed|aborted|rejected
	)

	QuickSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smspanel_quick_sends_total",
			Help: "Single messages sent outside a campaign",
		},
		[]string{"outcome"},
	)

	ChannelSendSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smspanel_channel_send_seconds",
			Help:    "Latency of one provider send attempt",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "result"}, // ok|error
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		ContactsTotal,
		DispatchPassesTotal,
		QuickSendsTotal,
		ChannelSendSeconds,
	)
}

func ObserveChannelSend(provider string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ChannelSendSeconds.WithLabelValues(provider, result).Observe(d.Seconds())
}
