// Package dispatch fans a scored lead out to independent delivery channels.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/observability/metrics"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

var tracer = otel.Tracer("stopforeclosure.internal.dispatch")

// DefaultTimeout bounds each channel.
const DefaultTimeout = 8 * time.Second

// ErrSkipped is returned by a channel that chose not to act for this lead.
var ErrSkipped = errors.New("dispatch: skipped")

// Channel is one side effect of accepting a lead.
type Channel interface {
	Name() string
	// Applies reports whether the channel runs for lead at all. Channels that
	// do not apply produce no outcome.
	Applies(lead leads.ScoredLead) bool
	Deliver(ctx context.Context, lead leads.ScoredLead) error
}

// Outcome is the recorded result of one channel attempt.
type Outcome = leads.DispatchOutcome

// Dispatcher runs channels concurrently. A failure in one never affects another.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	metrics  *metrics.LeadMetrics
	logger   *logging.Logger
}

// Options configures a Dispatcher.
type Options struct {
	Timeout time.Duration
	Metrics *metrics.LeadMetrics
	Logger  *logging.Logger
}

// New builds a dispatcher. Nil channels are dropped.
func New(channels []Channel, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	kept := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if !isNil(ch) {
			kept = append(kept, ch)
		}
	}
	return &Dispatcher{
		channels: kept,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

// isNil also catches typed nil pointers returned by channel constructors that
// had nothing to deliver to.
func isNil(ch Channel) bool {
	if ch == nil {
		return true
	}
	v := reflect.ValueOf(ch)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Channels returns the configured channel names in dispatch order.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.Name()
	}
	return names
}

// Dispatch runs every applicable channel and waits for all of them, each bounded
// by the per-channel timeout. Outcomes are returned in channel order.
func (d *Dispatcher) Dispatch(ctx context.Context, lead leads.ScoredLead) []Outcome {
	ctx, span := tracer.Start(ctx, "dispatch.lead")
	defer span.End()
	span.SetAttributes(
		attribute.String("lead.id", lead.ID),
		attribute.String("lead.priority", string(lead.Priority)),
		attribute.Int("lead.score", lead.Score),
	)

	active := make([]Channel, 0, len(d.channels))
	for _, ch := range d.channels {
		if ch.Applies(lead) {
			active = append(active, ch)
		}
	}

	outcomes := make([]Outcome, len(active))
	// Channel errors are recorded as outcomes, so no goroutine fails the group
	// and one channel never cancels another.
	var g errgroup.Group
	for i, ch := range active {
		g.Go(func() error {
			outcomes[i] = d.run(ctx, ch, lead)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		status := "success"
		switch {
		case o.Skipped:
			status = "skipped"
		case !o.Success:
			status = "failed"
			d.logger.Warn("dispatch channel failed", "channel", o.Channel, "lead_id", lead.ID, "error", o.ErrorReason, "duration_ms", o.Duration.Milliseconds())
		}
		d.metrics.ObserveDispatch(o.Channel, status, o.Duration.Seconds())
	}
	return outcomes
}

func (d *Dispatcher) run(ctx context.Context, ch Channel, lead leads.ScoredLead) Outcome {
	name := ch.Name()
	ctx, span := tracer.Start(ctx, "dispatch.channel."+name)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- ch.Deliver(ctx, lead)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		// The channel goroutine finishes on its own; its late result is dropped.
		err = fmt.Errorf("timeout after %s: %w", d.timeout, ctx.Err())
	}

	out := Outcome{Channel: name, Duration: time.Since(start)}
	switch {
	case err == nil:
		out.Success = true
	case errors.Is(err, ErrSkipped):
		out.Skipped = true
		out.ErrorReason = err.Error()
	default:
		out.ErrorReason = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Bool("dispatch.success", out.Success))
	return out
}
