// Package authz holds the permission evaluators: stateless predicates over
// the identity graph and the session's authentication state. Callers compose
// them with And and map a false decision to forbidden themselves.
package authz

import (
	"context"

	"eduauth/internal/domain"
	"eduauth/internal/observability/metrics"
)

type Evaluator interface {
	// Name identifies the evaluator in metrics and logs.
	Name() string

	// Evaluate must be side-effect free and safe to call several times per
	// request. The error return is reserved for store failures; a plain
	// denial is (false, nil).
	Evaluate(ctx context.Context, sessionID domain.SessionID) (bool, error)
}

// And denies as soon as one evaluator denies.
func And(evaluators ...Evaluator) Evaluator {
	return and{evaluators: evaluators}
}

type and struct {
	evaluators []Evaluator
}

func (a and) Name() string { return "and" }

func (a and) Evaluate(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	for _, e := range a.evaluators {
		ok, err := e.Evaluate(ctx, sessionID)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Observe wraps an evaluator with a decision counter.
func Observe(e Evaluator) Evaluator {
	return observed{inner: e}
}

type observed struct {
	inner Evaluator
}

func (o observed) Name() string { return o.inner.Name() }

func (o observed) Evaluate(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	ok, err := o.inner.Evaluate(ctx, sessionID)
	if err == nil {
		decision := "deny"
		if ok {
			decision = "allow"
		}
		metrics.PermissionChecksTotal.WithLabelValues(o.inner.Name(), decision).Inc()
	}
	return ok, err
}
