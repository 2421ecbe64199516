package call

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	activePeers    prometheus.Gauge
	queuedSignals  prometheus.Counter
	droppedSignals *prometheus.CounterVec
	peerFailures   prometheus.Counter
	callsEnded     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		activePeers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coastal_call_active_peers",
			Help: "Peer connections in the current call pool.",
		}),
		queuedSignals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_call_queued_signals_total",
			Help: "Signals queued while local media was not ready.",
		}),
		droppedSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coastal_call_dropped_signals_total",
			Help: "Signals dropped, by reason.",
		}, []string{"reason"}),
		peerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_call_peer_failures_total",
			Help: "Participant connections removed after failing.",
		}),
		callsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coastal_calls_ended_total",
			Help: "Calls ended, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.activePeers,
		m.queuedSignals,
		m.droppedSignals,
		m.peerFailures,
		m.callsEnded,
	)
	return m
}

func (m *Metrics) SetActivePeers(n int) {
	if m == nil {
		return
	}
	m.activePeers.Set(float64(n))
}

func (m *Metrics) RecordQueued() {
	if m == nil {
		return
	}
	m.queuedSignals.Inc()
}

func (m *Metrics) RecordDropped(reason string) {
	if m == nil {
		return
	}
	m.droppedSignals.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordPeerFailure() {
	if m == nil {
		return
	}
	m.peerFailures.Inc()
}

func (m *Metrics) RecordEnded(reason EndReason) {
	if m == nil {
		return
	}
	m.callsEnded.WithLabelValues(string(reason)).Inc()
}
