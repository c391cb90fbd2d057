package impl

import (
	"context"

	"eduauth/internal/domain"
	"eduauth/internal/store"
)

type factorStore interface {
	EnrolledByUser(ctx context.Context, userID domain.UserID) ([]domain.AuthFactor, error)
	RequireForSession(ctx context.Context, sessionID domain.SessionID, factors []domain.AuthFactor) error
	PendingBySession(ctx context.Context, sessionID domain.SessionID) ([]domain.SessionAuthFactor, error)
	Satisfy(ctx context.Context, sessionID domain.SessionID, kind domain.FactorKind) error
}

// FactorServiceImpl is the registry of second factors a session still owes.
type FactorServiceImpl struct {
	Factors factorStore
}

func NewFactorServiceImpl(st *store.Store) *FactorServiceImpl {
	return &FactorServiceImpl{Factors: gormFactorAdapter{store: st}}
}

type gormFactorAdapter struct {
	store *store.Store
}

func (g gormFactorAdapter) EnrolledByUser(ctx context.Context, userID domain.UserID) ([]domain.AuthFactor, error) {
	return g.store.Factors().ListByUser(ctx, userID)
}

func (g gormFactorAdapter) RequireForSession(ctx context.Context, sessionID domain.SessionID, factors []domain.AuthFactor) error {
	return g.store.Factors().RequireForSession(ctx, sessionID, factors)
}

func (g gormFactorAdapter) PendingBySession(ctx context.Context, sessionID domain.SessionID) ([]domain.SessionAuthFactor, error) {
	return g.store.Factors().PendingBySession(ctx, sessionID)
}

func (g gormFactorAdapter) Satisfy(ctx context.Context, sessionID domain.SessionID, kind domain.FactorKind) error {
	return g.store.Factors().Satisfy(ctx, sessionID, kind)
}

func (f *FactorServiceImpl) Pending(ctx context.Context, sessionID domain.SessionID) ([]domain.FactorKind, error) {
	rows, err := f.Factors.PendingBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	kinds := make([]domain.FactorKind, 0, len(rows))
	for _, row := range rows {
		kinds = append(kinds, row.Kind)
	}
	return kinds, nil
}

func (f *FactorServiceImpl) Require(ctx context.Context, sessionID domain.SessionID, userID domain.UserID) error {
	enrolled, err := f.Factors.EnrolledByUser(ctx, userID)
	if err != nil {
		return err
	}
	return f.Factors.RequireForSession(ctx, sessionID, enrolled)
}

func (f *FactorServiceImpl) Satisfy(ctx context.Context, sessionID domain.SessionID, kind domain.FactorKind) error {
	return f.Factors.Satisfy(ctx, sessionID, kind)
}
