package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/terratensor/teryt/internal/core/domain"
	"github.com/terratensor/teryt/internal/core/ports"
)

// Store implements ports.Store on top of gorm.
type Store struct {
	db *gorm.DB
}

var _ ports.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Provinces() ports.UnitRepository[domain.Province] {
	return &table[domain.Province, ProvinceModel]{
		db:       s.db,
		kind:     domain.KindProvince,
		toModel:  provinceToModel,
		toDomain: provinceFromModel,
	}
}

func (s *Store) Counties() ports.UnitRepository[domain.County] {
	return &table[domain.County, CountyModel]{
		db:       s.db,
		kind:     domain.KindCounty,
		toModel:  countyToModel,
		toDomain: countyFromModel,
	}
}

func (s *Store) Municipalities() ports.UnitRepository[domain.Municipality] {
	return &table[domain.Municipality, MunicipalityModel]{
		db:       s.db,
		kind:     domain.KindMunicipality,
		toModel:  municipalityToModel,
		toDomain: municipalityFromModel,
	}
}

func (s *Store) Localities() ports.LocalityRepository {
	return s.localities(domain.KindCity, "")
}

func (s *Store) Cities() ports.LocalityRepository {
	return s.localities(domain.KindCity, domain.LocalityCity)
}

func (s *Store) Villages() ports.LocalityRepository {
	return s.localities(domain.KindVillage, domain.LocalityVillage)
}

func (s *Store) localities(kind domain.Kind, typ domain.LocalityType) *localityTable {
	t := &localityTable{table[domain.Locality, LocalityModel]{
		db:       s.db,
		kind:     kind,
		toModel:  localityToModel,
		toDomain: localityFromModel,
	}}
	if typ != "" {
		t.scope = func(q *gorm.DB) *gorm.DB { return q.Where("type = ?", string(typ)) }
	}
	return t
}

func (s *Store) Districts() ports.UnitRepository[domain.District] {
	return &table[domain.District, DistrictModel]{
		db:       s.db,
		kind:     domain.KindDistrict,
		toModel:  districtToModel,
		toDomain: districtFromModel,
	}
}

func (s *Store) InTx(ctx context.Context, fn func(tx ports.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// table maps one domain kind T onto its gorm model M.
type table[T domain.Record[T], M any] struct {
	db       *gorm.DB
	kind     domain.Kind
	scope    func(*gorm.DB) *gorm.DB
	toModel  func(T) M
	toDomain func(M) T
}

func (t *table[T, M]) query(ctx context.Context) *gorm.DB {
	q := t.db.WithContext(ctx).Model(new(M))
	if t.scope != nil {
		q = t.scope(q)
	}
	return q
}

func (t *table[T, M]) take(q *gorm.DB, id string) (T, error) {
	var (
		m    M
		zero T
	)
	if err := q.Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, domain.ErrNotFound
		}
		return zero, wrapErr(t.kind, "get", id, err)
	}
	return t.toDomain(m), nil
}

func (t *table[T, M]) find(q *gorm.DB) ([]T, error) {
	rows := make([]M, 0)
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, wrapErr(t.kind, "find", "", err)
	}
	result := make([]T, 0, len(rows))
	for _, m := range rows {
		result = append(result, t.toDomain(m))
	}
	return result, nil
}

func (t *table[T, M]) Get(ctx context.Context, id string) (T, error) {
	return t.take(t.query(ctx).Where("id = ?", id), id)
}

func (t *table[T, M]) GetNamed(ctx context.Context, id, name string) (T, error) {
	return t.take(t.query(ctx).Where("id = ? AND name = ?", id, name), id)
}

func (t *table[T, M]) Create(ctx context.Context, value T) error {
	m := t.toModel(value)
	err := t.db.WithContext(ctx).Create(&m).Error
	return wrapErr(t.kind, "create", value.Key(), err)
}

func (t *table[T, M]) Update(ctx context.Context, value T) error {
	m := t.toModel(value)
	res := t.query(ctx).
		Where("id = ?", value.Key()).
		Select("*").
		Omit("created_at").
		Updates(&m)
	if res.Error != nil {
		return wrapErr(t.kind, "update", value.Key(), res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *table[T, M]) DeleteAll(ctx context.Context) (int64, error) {
	res := t.query(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(new(M))
	if res.Error != nil {
		return 0, wrapErr(t.kind, "flush", "", res.Error)
	}
	return res.RowsAffected, nil
}

func (t *table[T, M]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := t.query(ctx).Count(&n).Error; err != nil {
		return 0, wrapErr(t.kind, "count", "", err)
	}
	return n, nil
}

type localityTable struct {
	table[domain.Locality, LocalityModel]
}

func (t *localityTable) FindInMunicipality(ctx context.Context, provinceID, countyID, municipalityID string) ([]domain.Locality, error) {
	return t.find(t.query(ctx).Where(
		"province_id = ? AND county_id = ? AND municipality_id = ?",
		provinceID, countyID, municipalityID,
	))
}

func (t *localityTable) FindInCounty(ctx context.Context, provinceID, countyID string) ([]domain.Locality, error) {
	return t.find(t.query(ctx).Where("province_id = ? AND county_id = ?", provinceID, countyID))
}
