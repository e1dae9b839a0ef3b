package services

import (
	"context"
	"errors"

	"github.com/terratensor/teryt/internal/core/domain"
	"github.com/terratensor/teryt/internal/core/ports"
	"github.com/terratensor/teryt/internal/platform/logger"
)

// Upserter writes registry records of one kind, touching the store only when
// the incoming record differs from the stored one.
type Upserter[T domain.Record[T]] struct {
	repo   ports.UnitRepository[T]
	kind   domain.Kind
	byName bool
	log    *logger.Logger
}

// NewUpserter returns an upserter looking records up by id, or by (id, name)
// when byName is set.
func NewUpserter[T domain.Record[T]](repo ports.UnitRepository[T], kind domain.Kind, byName bool, log *logger.Logger) *Upserter[T] {
	if log == nil {
		log = logger.Nop()
	}
	return &Upserter[T]{repo: repo, kind: kind, byName: byName, log: log}
}

func (u *Upserter[T]) lookup(ctx context.Context, rec T) (T, error) {
	if u.byName {
		return u.repo.GetNamed(ctx, rec.Key(), rec.Label())
	}
	return u.repo.Get(ctx, rec.Key())
}

func (u *Upserter[T]) Upsert(ctx context.Context, rec T) (domain.UpsertResult, error) {
	stored, err := u.lookup(ctx, rec)
	if errors.Is(err, domain.ErrNotFound) {
		if err := u.repo.Create(ctx, rec); err != nil {
			return domain.Unchanged, err
		}
		fields := []interface{}{"kind", u.kind, "id", rec.Key(), "name", rec.Label()}
		if parent, ok := rec.Parent(); ok {
			fields = append(fields, "parent", parent.String())
		}
		u.log.Debug("record created", fields...)
		return domain.Created, nil
	}
	if err != nil {
		return domain.Unchanged, err
	}

	changes := rec.Diff(stored)
	if len(changes) == 0 {
		return domain.Unchanged, nil
	}
	if err := u.repo.Update(ctx, rec); err != nil {
		return domain.Unchanged, err
	}
	for _, c := range changes {
		u.log.Info("record updated",
			"kind", u.kind,
			"id", rec.Key(),
			"field", c.Field,
			"old", c.Old,
			"new", c.New,
		)
	}
	return domain.Updated, nil
}
