package implementation

import (
	"context"
	"errors"
	"time"

	"github.com/jt828/go-http-template/pkg/circuitbreaker"
	"github.com/jt828/go-http-template/pkg/observability"
	"github.com/jt828/go-http-template/pkg/retry"
	"github.com/prometheus/client_golang/prometheus/push"
)

type PushConfig struct {
	URL      string
	Job      string
	Interval time.Duration
}

// Pusher sends the registry snapshot to a Prometheus Pushgateway. Each push
// runs under retry inside the circuit breaker, so an unreachable gateway
// stops being retried once the breaker opens.
type Pusher struct {
	pusher   *push.Pusher
	cb       circuitbreaker.CircuitBreaker
	retry    retry.Retry
	log      observability.Logger
	tracer   observability.Tracer
	interval time.Duration
}

func NewPusher(
	cfg PushConfig,
	registry observability.Registry,
	cb circuitbreaker.CircuitBreaker,
	retry retry.Retry,
	log observability.Logger,
	tracer observability.Tracer,
) *Pusher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Pusher{
		pusher:   push.New(cfg.URL, cfg.Job).Gatherer(NewSnapshotGatherer(registry)),
		cb:       cb,
		retry:    retry,
		log:      log.With(observability.String("pushgateway", cfg.URL), observability.String("job", cfg.Job)),
		tracer:   tracer,
		interval: interval,
	}
}

func (p *Pusher) Push(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "metrics.push")
	defer span.End()

	_, err := p.cb.Execute(func() (any, error) {
		return nil, p.retry.Execute(ctx, func() error {
			return p.pusher.PushContext(ctx)
		})
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Run pushes every interval until ctx is done, then makes one last push so
// the gateway holds the final counts.
func (p *Pusher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.interval)
			if err := p.Push(finalCtx); err != nil {
				p.log.Warn("final metrics push failed", observability.Err(err))
			}
			cancel()
			return
		case <-ticker.C:
			if err := p.Push(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.log.Warn("metrics push failed", observability.Err(err))
			}
		}
	}
}
