package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/terratensor/teryt/internal/app/pipeline"
	"github.com/terratensor/teryt/internal/config"
	"github.com/terratensor/teryt/internal/core/domain"
	"github.com/terratensor/teryt/internal/core/ports"
	"github.com/terratensor/teryt/internal/platform/logger"
)

// Request selects what a run does. Flush runs before Import.
type Request struct {
	Kinds  []domain.Kind
	Flush  bool
	Import bool
}

type Importer struct {
	cfg      *config.Config
	store    ports.Store
	log      *logger.Logger
	progress io.Writer
}

func NewImporter(cfg *config.Config, store ports.Store, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	i := &Importer{cfg: cfg, store: store, log: log}
	if cfg.ShowProgress {
		i.progress = os.Stderr
	}
	return i
}

// Run flushes and imports the requested kinds. Each kind is processed in its
// own transaction; a failing kind stops the run and leaves earlier kinds committed.
func (i *Importer) Run(ctx context.Context, req Request) ([]domain.PassStats, error) {
	log := i.log.With("run_id", uuid.NewString())

	if err := i.checkInputs(); err != nil {
		return nil, err
	}

	var stats []domain.PassStats

	if req.Flush {
		for _, kind := range domain.FlushOrder(req.Kinds) {
			s, err := i.flush(ctx, kind)
			if err != nil {
				return stats, fmt.Errorf("flush %s: %w", kind, err)
			}
			log.Info("flushed", "kind", kind, "deleted", s.Deleted, "duration", s.Duration)
			stats = append(stats, s)
		}
	}

	if req.Import {
		for _, kind := range domain.ImportOrder(req.Kinds) {
			log.Info("importing", "kind", kind)
			s, err := i.importKind(ctx, log, kind)
			if err != nil {
				return stats, fmt.Errorf("import %s: %w", kind, err)
			}
			log.Info("imported",
				"kind", kind,
				"created", s.Created,
				"updated", s.Updated,
				"unchanged", s.Unchanged,
				"duration", s.Duration,
			)
			stats = append(stats, s)
		}
	}

	return stats, nil
}

// checkInputs creates the import directory when absent and requires both
// registry files to be present before anything is touched.
func (i *Importer) checkInputs() error {
	if err := os.MkdirAll(i.cfg.ImportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create import dir: %w", err)
	}
	for _, path := range []string{i.cfg.TercPath(), i.cfg.SimcPath()} {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return &domain.InputMissingError{Path: path}
			}
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return nil
}

func (i *Importer) flush(ctx context.Context, kind domain.Kind) (domain.PassStats, error) {
	start := time.Now()
	stats := domain.PassStats{Kind: kind}

	err := i.store.InTx(ctx, func(tx ports.Store) error {
		var (
			n   int64
			err error
		)
		switch kind {
		case domain.KindProvince:
			n, err = tx.Provinces().DeleteAll(ctx)
		case domain.KindCounty:
			n, err = tx.Counties().DeleteAll(ctx)
		case domain.KindMunicipality:
			n, err = tx.Municipalities().DeleteAll(ctx)
		case domain.KindCity:
			n, err = tx.Cities().DeleteAll(ctx)
		case domain.KindVillage:
			n, err = tx.Villages().DeleteAll(ctx)
		case domain.KindDistrict:
			n, err = tx.Districts().DeleteAll(ctx)
		default:
			return fmt.Errorf("unknown kind %q", kind)
		}
		stats.Deleted = n
		return err
	})

	stats.Duration = time.Since(start)
	return stats, err
}

func (i *Importer) importKind(ctx context.Context, log *logger.Logger, kind domain.Kind) (domain.PassStats, error) {
	localities := func(s ports.Store) ports.UnitRepository[domain.Locality] { return s.Localities() }

	switch kind {
	case domain.KindProvince:
		return importUnits(ctx, i, log, unitPass[domain.Province]{
			kind: kind, path: i.cfg.TercPath(), rows: pipeline.ProvinceRows,
			mapRow: pipeline.ProvinceFromRow, repo: ports.Store.Provinces,
		})
	case domain.KindCounty:
		return importUnits(ctx, i, log, unitPass[domain.County]{
			kind: kind, path: i.cfg.TercPath(), rows: pipeline.CountyRows,
			mapRow: pipeline.CountyFromRow, repo: ports.Store.Counties,
		})
	case domain.KindMunicipality:
		return importUnits(ctx, i, log, unitPass[domain.Municipality]{
			kind: kind, path: i.cfg.TercPath(), rows: pipeline.MunicipalityRows,
			mapRow: pipeline.MunicipalityFromRow, repo: ports.Store.Municipalities,
		})
	case domain.KindCity:
		return importUnits(ctx, i, log, unitPass[domain.Locality]{
			kind: kind, path: i.cfg.SimcPath(), rows: pipeline.CityRows,
			mapRow: pipeline.LocalityFromRow, repo: localities,
		})
	case domain.KindVillage:
		return importUnits(ctx, i, log, unitPass[domain.Locality]{
			kind: kind, path: i.cfg.SimcPath(), rows: pipeline.VillageRows,
			mapRow: pipeline.LocalityFromRow, repo: localities,
		})
	case domain.KindDistrict:
		return i.importDistricts(ctx, log)
	}
	return domain.PassStats{Kind: kind}, fmt.Errorf("unknown kind %q", kind)
}

// unitPass describes how one kind is read from its registry and where it is stored.
type unitPass[T domain.Record[T]] struct {
	kind   domain.Kind
	path   string
	rows   pipeline.Selector
	mapRow func(pipeline.Row) (T, error)
	repo   func(ports.Store) ports.UnitRepository[T]
}

func importUnits[T domain.Record[T]](ctx context.Context, i *Importer, log *logger.Logger, p unitPass[T]) (domain.PassStats, error) {
	start := time.Now()
	stats := domain.PassStats{Kind: p.kind}

	doc, bar, err := i.open(p.path, p.rows, p.kind)
	if err != nil {
		return stats, err
	}

	err = i.store.InTx(ctx, func(tx ports.Store) error {
		up := NewUpserter(p.repo(tx), p.kind, i.byName(), log)
		for row, err := range doc.Rows(p.rows) {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := p.mapRow(row)
			if err != nil {
				return err
			}
			res, err := up.Upsert(ctx, rec)
			if err != nil {
				return err
			}
			stats.Add(res)
			_ = bar.Add(1)
		}
		return nil
	})

	stats.Duration = time.Since(start)
	return stats, err
}

// open parses a registry document for one pass and prepares its progress bar.
func (i *Importer) open(path string, sel pipeline.Selector, kind domain.Kind) (*pipeline.Document, progressBar, error) {
	doc, err := pipeline.Parse(path)
	if err != nil {
		return nil, nil, err
	}
	total, err := doc.Count(sel)
	if err != nil {
		return nil, nil, err
	}
	return doc, pipeline.ProgressBar(total, fmt.Sprintf("Importing %s", kind), i.progress), nil
}

type progressBar interface {
	Add(int) error
}

func (i *Importer) byName() bool {
	return i.cfg.UpsertLookup == config.LookupByIDName
}
