package implementation

import (
	"github.com/jt828/go-http-template/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
)

type gobreakerCircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

func NewCircuitBreaker(settings circuitbreaker.Settings) circuitbreaker.CircuitBreaker {
	gs := gobreaker.Settings{
		Name:    settings.Name,
		Timeout: settings.OpenTimeout,
	}
	if settings.ConsecutiveFailures > 0 {
		threshold := settings.ConsecutiveFailures
		gs.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		}
	}
	if settings.OnStateChange != nil {
		onChange := settings.OnStateChange
		gs.OnStateChange = func(name string, from, to gobreaker.State) {
			onChange(name, toState(from), toState(to))
		}
	}

	return &gobreakerCircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[any](gs),
	}
}

func (g *gobreakerCircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	return g.cb.Execute(fn)
}

func (g *gobreakerCircuitBreaker) State() circuitbreaker.State {
	return toState(g.cb.State())
}

func toState(s gobreaker.State) circuitbreaker.State {
	switch s {
	case gobreaker.StateHalfOpen:
		return circuitbreaker.HalfOpen
	case gobreaker.StateOpen:
		return circuitbreaker.Open
	default:
		return circuitbreaker.Closed
	}
}
