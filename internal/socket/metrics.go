package socket

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	dials        prometheus.Counter
	dialFailures prometheus.Counter
	reconnects   prometheus.Counter
	giveUps      prometheus.Counter
	framesIn     *prometheus.CounterVec
	framesOut    prometheus.Counter
	droppedSends prometheus.Counter
	badFrames    prometheus.Counter
	open         prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		dials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_socket_dials_total",
			Help: "Websocket dial attempts.",
		}),
		dialFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_socket_dial_failures_total",
			Help: "Websocket dial attempts that failed.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_socket_reconnects_total",
			Help: "Reconnect attempts scheduled after an abnormal close.",
		}),
		giveUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_socket_give_ups_total",
			Help: "Times the client stopped reconnecting after the attempt cap.",
		}),
		framesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coastal_socket_frames_in_total",
			Help: "Inbound frames by type.",
		}, []string{"type"}),
		framesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_socket_frames_out_total",
			Help: "Frames written to the socket.",
		}),
		droppedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_socket_dropped_sends_total",
			Help: "Frames dropped because the socket was not open.",
		}),
		badFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coastal_socket_malformed_frames_total",
			Help: "Inbound frames dropped as malformed.",
		}),
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coastal_socket_open",
			Help: "Currently open websocket connections.",
		}),
	}

	reg.MustRegister(
		m.dials,
		m.dialFailures,
		m.reconnects,
		m.giveUps,
		m.framesIn,
		m.framesOut,
		m.droppedSends,
		m.badFrames,
		m.open,
	)
	return m
}

func (m *Metrics) RecordDial(err error) {
	if m == nil {
		return
	}
	m.dials.Inc()
	if err != nil {
		m.dialFailures.Inc()
	}
}

func (m *Metrics) RecordReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) RecordGiveUp() {
	if m == nil {
		return
	}
	m.giveUps.Inc()
}

func (m *Metrics) RecordFrameIn(typ string) {
	if m == nil {
		return
	}
	m.framesIn.WithLabelValues(typ).Inc()
}

func (m *Metrics) RecordFrameOut() {
	if m == nil {
		return
	}
	m.framesOut.Inc()
}

func (m *Metrics) RecordDroppedSend() {
	if m == nil {
		return
	}
	m.droppedSends.Inc()
}

func (m *Metrics) RecordMalformed() {
	if m == nil {
		return
	}
	m.badFrames.Inc()
}

func (m *Metrics) SetOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.open.Inc()
	} else {
		m.open.Dec()
	}
}
