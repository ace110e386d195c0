// Package dispatch routes inbound gateway events through their normalizer
// into the journal. Failures are local to one event: nothing here ever stops
// the event stream.
package dispatch

import (
	"context"
	"log/slog"

	"guildscribe/internal/domain"
)

// Normalizer maps an event to its journal data; (nil, nil) suppresses the
// record.
type Normalizer interface {
	Normalize(ctx context.Context, ev domain.GatewayEvent) (any, error)
}

// Appender appends one record to the journal.
type Appender interface {
	Append(ctx context.Context, kind domain.EventKind, data any) error
}

// Dispatcher is a stateless router; it holds no queue and processes each
// event to completion before returning.
type Dispatcher struct {
	norm    Normalizer
	journal Appender
	log     *slog.Logger
}

func New(norm Normalizer, journal Appender, log *slog.Logger) *Dispatcher {
	return &Dispatcher{norm: norm, journal: journal, log: log}
}

// Dispatch normalizes and appends one event. Errors are logged and returned;
// the caller is expected to keep consuming the stream regardless. The
// journal stays best-effort-complete, not all-or-nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.GatewayEvent) error {
	data, err := d.norm.Normalize(ctx, ev)
	if err != nil {
		d.log.Error("drop event: normalize failed", "event", string(ev.Kind()), "error", err)
		return err
	}
	if data == nil {
		return nil
	}
	if err := d.journal.Append(ctx, ev.Kind(), data); err != nil {
		d.log.Error("journal append failed", "event", string(ev.Kind()), "error", err)
		return err
	}
	return nil
}

// Ready passes through the gateway readiness signal.
func (d *Dispatcher) Ready() {
	d.log.Info("application is ready")
}
