package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	engineOnce    sync.Once
	autofixRuns   metric.Int64Counter
	diagnosedItem metric.Int64Counter
)

func engineInstruments() {
	engineOnce.Do(func() {
		m := Meter("")
		autofixRuns, _ = m.Int64Counter("rd.autofix.runs",
			metric.WithDescription("Autofix runs by outcome"),
		)
		diagnosedItem, _ = m.Int64Counter("rd.diagnostics.items",
			metric.WithDescription("Diagnostic items emitted by severity"),
		)
	})
}

// RecordAutofix counts one autofix run. outcome is "fixed", "nothing" or "error".
func RecordAutofix(ctx context.Context, outcome string) {
	if !Enabled() {
		return
	}
	engineInstruments()
	autofixRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("rd.outcome", outcome)))
}

// RecordDiagnostics counts emitted diagnostic items per severity.
func RecordDiagnostics(ctx context.Context, bySeverity map[string]int) {
	if !Enabled() {
		return
	}
	engineInstruments()
	for sev, n := range bySeverity {
		diagnosedItem.Add(ctx, int64(n), metric.WithAttributes(attribute.String("rd.severity", sev)))
	}
}
