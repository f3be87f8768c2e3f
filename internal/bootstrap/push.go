package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/jt828/go-http-template/pkg/circuitbreaker"
	cbImpl "github.com/jt828/go-http-template/pkg/circuitbreaker/implementation"
	"github.com/jt828/go-http-template/pkg/observability"
	obsImpl "github.com/jt828/go-http-template/pkg/observability/implementation"
	"github.com/jt828/go-http-template/pkg/retry"
	retryImpl "github.com/jt828/go-http-template/pkg/retry/implementation"
)

// InitializePusher returns nil when no Pushgateway is configured.
func InitializePusher(cfg Config, obs observability.Observability) *obsImpl.Pusher {
	if cfg.PushgatewayURL == "" {
		return nil
	}
	log := obs.Logger()

	cb := cbImpl.NewCircuitBreaker(circuitbreaker.Settings{
		Name:                "pushgateway",
		ConsecutiveFailures: 3,
		OpenTimeout:         cfg.PushInterval * 4,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
	})

	r := retryImpl.NewRetry(3,
		retry.WithInterval(200*time.Millisecond),
		retry.WithMaxInterval(cfg.PushInterval/2),
		retry.WithJitterPercent(10),
		retry.WithRetryable(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)

	return obsImpl.NewPusher(obsImpl.PushConfig{
		URL:      cfg.PushgatewayURL,
		Job:      cfg.PushJob,
		Interval: cfg.PushInterval,
	}, obs.Registry(), cb, r, log, obs.Tracer())
}
