package gate

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"carpark-gate/internal/telemetry"
)

type InstrumentedProcessor struct {
	*Processor
	telemetry *telemetry.Provider

	// Metrics
	eventsTotal       metric.Int64Counter
	transitionsTotal  metric.Int64Counter
	rejectedTotal     metric.Int64Counter
	operationDuration metric.Float64Histogram
	occupancyGauge    metric.Int64ObservableGauge
	queueDepthGauge   metric.Int64ObservableGauge
	capacityGauge     metric.Int64ObservableGauge
}

func NewInstrumentedProcessor(processor *Processor, telemetry *telemetry.Provider) (*InstrumentedProcessor, error) {
	meter := telemetry.Meter()

	eventsTotal, err := meter.Int64Counter("gate_events_total",
		metric.WithDescription("Total number of events applied by the gate processor"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	transitionsTotal, err := meter.Int64Counter("gate_transitions_total",
		metric.WithDescription("Total number of gate transitions emitted"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	rejectedTotal, err := meter.Int64Counter("gate_events_rejected_total",
		metric.WithDescription("Total number of events rejected before reaching the core"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("gate_event_duration_seconds",
		metric.WithDescription("Duration of gate event processing"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64ObservableGauge("gate_spaces_used",
		metric.WithDescription("Current number of occupied spaces"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	queueDepthGauge, err := meter.Int64ObservableGauge("gate_queue_depth",
		metric.WithDescription("Number of cars waiting at the gates"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	capacityGauge, err := meter.Int64ObservableGauge("gate_capacity",
		metric.WithDescription("Configured car park capacity"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	ip := &InstrumentedProcessor{
		Processor:         processor,
		telemetry:         telemetry,
		eventsTotal:       eventsTotal,
		transitionsTotal:  transitionsTotal,
		rejectedTotal:     rejectedTotal,
		operationDuration: operationDuration,
		occupancyGauge:    occupancyGauge,
		queueDepthGauge:   queueDepthGauge,
		capacityGauge:     capacityGauge,
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		status := processor.Snapshot()
		o.ObserveInt64(occupancyGauge, int64(status.SpacesUsed))
		o.ObserveInt64(queueDepthGauge, int64(len(status.Waiting)))
		o.ObserveInt64(capacityGauge, int64(status.Capacity))
		return nil
	}, occupancyGauge, queueDepthGauge, capacityGauge)
	if err != nil {
		return nil, err
	}

	return ip, nil
}

func (ip *InstrumentedProcessor) Init(ctx context.Context) {
	_, span := ip.telemetry.Tracer().Start(ctx, "gate.init",
		trace.WithAttributes(attribute.Int("gate.capacity", ip.Capacity())))
	defer span.End()

	ip.Processor.Init()
}

func (ip *InstrumentedProcessor) OnEvent(ctx context.Context, ev Event) ([]Transition, error) {
	kind := "invalid"
	if Validate(ev) == nil {
		kind = ev.Kind().String()
	}

	ctx, span := ip.telemetry.Tracer().Start(ctx, "gate.on_event",
		trace.WithAttributes(attribute.String("gate.event", kind)))
	defer span.End()

	switch req := ev.(type) {
	case RequestEntry:
		span.SetAttributes(attribute.String("gate.gate_id", req.GateID))
	case *RequestEntry:
		if req != nil {
			span.SetAttributes(attribute.String("gate.gate_id", req.GateID))
		}
	}

	start := time.Now()

	transitions, err := ip.Processor.OnEvent(ev)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("event", kind),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		reason := "configuration"
		if errors.Is(err, ErrValidation) {
			reason = "validation"
		}
		ip.rejectedTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event", kind),
			attribute.String("reason", reason),
		))
		labels = append(labels, attribute.String("status", "rejected"))
		ip.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))
		return nil, err
	}

	for _, t := range transitions {
		span.AddEvent(t.Kind.String(), trace.WithAttributes(
			attribute.Int("spaces_used", t.SpacesUsed),
			attribute.Int("queue_depth", t.QueueDepth),
			attribute.String("gate_id", t.GateID),
		))
		ip.transitionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", t.Kind.String()),
		))
	}

	span.SetAttributes(attribute.Int("gate.transitions", len(transitions)))
	labels = append(labels, attribute.String("status", "applied"))
	ip.eventsTotal.Add(ctx, 1, metric.WithAttributes(labels...))
	ip.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return transitions, nil
}
