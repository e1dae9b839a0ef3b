package services

import (
	"context"
	"errors"
	"time"

	"github.com/terratensor/teryt/internal/app/pipeline"
	"github.com/terratensor/teryt/internal/core/domain"
	"github.com/terratensor/teryt/internal/core/ports"
	"github.com/terratensor/teryt/internal/platform/logger"
)

// importDistricts attaches every city part to its city. Rows that cannot be
// resolved are collected for the whole pass and reported together; nothing of
// the pass is kept in that case.
func (i *Importer) importDistricts(ctx context.Context, log *logger.Logger) (domain.PassStats, error) {
	start := time.Now()
	stats := domain.PassStats{Kind: domain.KindDistrict}

	doc, bar, err := i.open(i.cfg.SimcPath(), pipeline.DistrictRows, domain.KindDistrict)
	if err != nil {
		return stats, err
	}

	err = i.store.InTx(ctx, func(tx ports.Store) error {
		up := NewUpserter(tx.Districts(), domain.KindDistrict, i.byName(), log)
		resolver := newCityResolver(tx.Cities())

		var unresolved []error
		for row, err := range doc.Rows(pipeline.DistrictRows) {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			dr, err := pipeline.DistrictFromRow(row)
			if err != nil {
				return err
			}
			_ = bar.Add(1)

			district, err := resolver.resolve(ctx, dr)
			var perr *domain.ParentResolutionError
			if errors.As(err, &perr) {
				log.Warn("district not resolved", "id", perr.DistrictID, "candidates", perr.Candidates)
				unresolved = append(unresolved, err)
				continue
			}
			if err != nil {
				return err
			}
			if len(unresolved) > 0 {
				continue
			}

			res, err := up.Upsert(ctx, district)
			if err != nil {
				return err
			}
			stats.Add(res)
		}
		return errors.Join(unresolved...)
	})

	stats.Duration = time.Since(start)
	return stats, err
}

// cityResolver finds the city a district belongs to. Lookups are cached per
// municipality and per county since city parts of one city come in runs.
type cityResolver struct {
	cities       ports.LocalityRepository
	municipality map[string][]domain.Locality
	county       map[string][]domain.Locality
}

func newCityResolver(cities ports.LocalityRepository) *cityResolver {
	return &cityResolver{
		cities:       cities,
		municipality: make(map[string][]domain.Locality),
		county:       make(map[string][]domain.Locality),
	}
}

// resolve looks for cities in the district's municipality first, then in its
// county. A county match moves the district into the city's municipality.
func (r *cityResolver) resolve(ctx context.Context, row pipeline.DistrictRow) (domain.District, error) {
	d := row.District
	c := row.Codes

	candidates, err := r.inMunicipality(ctx, c)
	if err != nil {
		return d, err
	}
	if len(candidates) == 0 {
		if candidates, err = r.inCounty(ctx, c); err != nil {
			return d, err
		}
	}

	city, err := pickCity(candidates, row)
	if err != nil {
		return d, err
	}
	d.CityID = city.ID
	d.MunicipalityID = city.MunicipalityID
	return d, nil
}

func (r *cityResolver) inMunicipality(ctx context.Context, c domain.Codes) ([]domain.Locality, error) {
	key := c.MunicipalityKey()
	if cities, ok := r.municipality[key]; ok {
		return cities, nil
	}
	cities, err := r.cities.FindInMunicipality(ctx, c.ProvinceKey(), c.CountyKey(), key)
	if err != nil {
		return nil, err
	}
	r.municipality[key] = cities
	return cities, nil
}

func (r *cityResolver) inCounty(ctx context.Context, c domain.Codes) ([]domain.Locality, error) {
	key := c.CountyKey()
	if cities, ok := r.county[key]; ok {
		return cities, nil
	}
	cities, err := r.cities.FindInCounty(ctx, c.ProvinceKey(), key)
	if err != nil {
		return nil, err
	}
	r.county[key] = cities
	return cities, nil
}

// pickCity takes the only candidate, or the one named by SYMPOD when there are several.
func pickCity(candidates []domain.Locality, row pipeline.DistrictRow) (domain.Locality, error) {
	fail := &domain.ParentResolutionError{DistrictID: row.District.ID, Codes: row.Codes}

	switch len(candidates) {
	case 0:
		return domain.Locality{}, fail
	case 1:
		return candidates[0], nil
	}
	for _, city := range candidates {
		if city.ID == row.ParentSym {
			return city, nil
		}
	}
	for _, city := range candidates {
		fail.Candidates = append(fail.Candidates, city.ID)
	}
	return domain.Locality{}, fail
}
