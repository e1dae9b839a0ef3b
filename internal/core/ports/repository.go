package ports

import (
	"context"

	"github.com/terratensor/teryt/internal/core/domain"
)

// UnitRepository is the store port for one kind of unit.
type UnitRepository[T any] interface {
	// Get looks a record up by id. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id string) (T, error)
	// GetNamed looks a record up by (id, name).
	GetNamed(ctx context.Context, id, name string) (T, error)
	Create(ctx context.Context, value T) error
	// Update overwrites every attribute of the record with the same id.
	Update(ctx context.Context, value T) error
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// LocalityRepository adds the lookups used to attach districts to cities.
type LocalityRepository interface {
	UnitRepository[domain.Locality]
	FindInMunicipality(ctx context.Context, provinceID, countyID, municipalityID string) ([]domain.Locality, error)
	FindInCounty(ctx context.Context, provinceID, countyID string) ([]domain.Locality, error)
}

// Store gives access to every table of the registry.
type Store interface {
	Provinces() UnitRepository[domain.Province]
	Counties() UnitRepository[domain.County]
	Municipalities() UnitRepository[domain.Municipality]
	// Localities spans cities and villages; lookups ignore the type.
	Localities() LocalityRepository
	Cities() LocalityRepository
	Villages() LocalityRepository
	Districts() UnitRepository[domain.District]

	// InTx runs fn inside a transaction. The store handed to fn is bound to it.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
