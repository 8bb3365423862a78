package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

const meterName = "github.com/chetansirohi/Leads-Agent/internal/engine"

// engineMetrics holds the engine's OpenTelemetry instruments. With no meter
// provider installed these are no-ops, so the engine works unchanged in tests.
type engineMetrics struct {
	runsStarted     metric.Int64Counter
	runsFinished    metric.Int64Counter
	runsInterrupted metric.Int64Counter
	nodeDuration    metric.Float64Histogram
}

func newEngineMetrics() *engineMetrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	runsStarted, _ := meter.Int64Counter("workflow.runs.started",
		metric.WithDescription("Workflow runs started"))
	runsFinished, _ := meter.Int64Counter("workflow.runs.finished",
		metric.WithDescription("Workflow runs reaching a terminal state"))
	runsInterrupted, _ := meter.Int64Counter("workflow.runs.interrupted",
		metric.WithDescription("Workflow runs suspended for human review"))
	nodeDuration, _ := meter.Float64Histogram("workflow.node.duration",
		metric.WithDescription("Node execution time"),
		metric.WithUnit("s"))

	return &engineMetrics{
		runsStarted:     runsStarted,
		runsFinished:    runsFinished,
		runsInterrupted: runsInterrupted,
		nodeDuration:    nodeDuration,
	}
}

func (m *engineMetrics) runStarted(ctx context.Context) {
	m.runsStarted.Add(ctx, 1)
}

func (m *engineMetrics) runFinished(ctx context.Context, status models.WorkflowStatus) {
	m.runsFinished.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
}

func (m *engineMetrics) runInterrupted(ctx context.Context) {
	m.runsInterrupted.Add(ctx, 1)
}

func (m *engineMetrics) nodeExecuted(ctx context.Context, node models.Node, d time.Duration) {
	m.nodeDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("node", string(node))))
}
