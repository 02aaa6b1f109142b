// Package metrics records room server counters through OpenTelemetry and
// exposes them to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Attribute keys.
const (
	AttrType   = "type"
	AttrResult = "result"
	AttrReason = "reason"
)

// Config controls whether metrics are exported.
type Config struct {
	Enabled     bool
	ServiceName string
}

// Recorder is the metrics surface used by the room server. A nil or
// zero Recorder drops everything.
type Recorder struct {
	ctx            context.Context
	actions        metric.Int64Counter
	actionLatency  metric.Float64Histogram
	rejections     metric.Int64Counter
	fanoutFailures metric.Int64Counter
	roomsActive    metric.Int64UpDownCounter
	peersConnected metric.Int64UpDownCounter
}

// NewRecorder returns a recorder that records nothing.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Setup configures an OpenTelemetry meter provider backed by a Prometheus
// registry. It returns the recorder, the scrape handler and a shutdown func.
// When disabled the handler is nil.
func Setup(ctx context.Context, cfg Config) (*Recorder, http.Handler, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return NewRecorder(), nil, noop, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "pitchside"
	}

	reg := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	rec, err := newRecorder(provider)
	if err != nil {
		return nil, nil, nil, err
	}
	return rec, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), provider.Shutdown, nil
}

func newRecorder(provider metric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter("pitchside")

	actions, err := meter.Int64Counter("pitchside_actions_total",
		metric.WithDescription("Room commands handled, by message type and result."))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("pitchside_action_duration_ms",
		metric.WithDescription("Time spent applying one room command."))
	if err != nil {
		return nil, err
	}
	rejections, err := meter.Int64Counter("pitchside_rejections_total",
		metric.WithDescription("Actions rejected, by reason."))
	if err != nil {
		return nil, err
	}
	fanout, err := meter.Int64Counter("pitchside_fanout_failures_total",
		metric.WithDescription("Broadcast deliveries dropped for a closed or slow peer."))
	if err != nil {
		return nil, err
	}
	rooms, err := meter.Int64UpDownCounter("pitchside_rooms_active")
	if err != nil {
		return nil, err
	}
	peers, err := meter.Int64UpDownCounter("pitchside_peers_connected")
	if err != nil {
		return nil, err
	}

	return &Recorder{
		ctx:            context.Background(),
		actions:        actions,
		actionLatency:  latency,
		rejections:     rejections,
		fanoutFailures: fanout,
		roomsActive:    rooms,
		peersConnected: peers,
	}, nil
}

func (r *Recorder) enabled() bool {
	return r != nil && r.actions != nil
}

// RecordAction counts one handled command and its latency.
func (r *Recorder) RecordAction(msgType, result string, d time.Duration) {
	if !r.enabled() {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrType, msgType), attribute.String(AttrResult, result))
	r.actions.Add(r.ctx, 1, attrs)
	r.actionLatency.Record(r.ctx, float64(d.Microseconds())/1000, attrs)
}

// RecordRejection counts a rejected action by reason.
func (r *Recorder) RecordRejection(reason string) {
	if !r.enabled() {
		return
	}
	r.rejections.Add(r.ctx, 1, metric.WithAttributes(attribute.String(AttrReason, reason)))
}

// RecordFanoutFailure counts one dropped delivery.
func (r *Recorder) RecordFanoutFailure() {
	if !r.enabled() {
		return
	}
	r.fanoutFailures.Add(r.ctx, 1)
}

// RoomOpened and RoomClosed track live rooms.
func (r *Recorder) RoomOpened() {
	if r.enabled() {
		r.roomsActive.Add(r.ctx, 1)
	}
}

func (r *Recorder) RoomClosed() {
	if r.enabled() {
		r.roomsActive.Add(r.ctx, -1)
	}
}

// PeerConnected and PeerDisconnected track open websocket sessions.
func (r *Recorder) PeerConnected() {
	if r.enabled() {
		r.peersConnected.Add(r.ctx, 1)
	}
}

func (r *Recorder) PeerDisconnected() {
	if r.enabled() {
		r.peersConnected.Add(r.ctx, -1)
	}
}
