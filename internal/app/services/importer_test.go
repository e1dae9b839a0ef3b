package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/terratensor/teryt/internal/adapters/repositories/sqlstore"
	"github.com/terratensor/teryt/internal/config"
	"github.com/terratensor/teryt/internal/core/domain"
	"github.com/terratensor/teryt/internal/testutil"
)

func openTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	db, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "teryt_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := sqlstore.RunMigrations(context.Background(), db, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return sqlstore.NewStore(db)
}

type fixture struct {
	dir      string
	store    *sqlstore.Store
	importer *Importer
}

func newFixture(t *testing.T, lookup string) *fixture {
	t.Helper()
	dir := t.TempDir()
	store := openTestStore(t)
	cfg := &config.Config{
		ImportDir:    dir,
		UpsertLookup: lookup,
		DBDriver:     config.DriverSQLite,
		DBDSN:        "unused",
	}
	return &fixture{dir: dir, store: store, importer: NewImporter(cfg, store, nil)}
}

func (f *fixture) write(t *testing.T, terc, simc []testutil.Row) {
	t.Helper()
	testutil.WriteRegistry(t, f.dir, "TERC", terc...)
	testutil.WriteRegistry(t, f.dir, "SIMC", simc...)
}

func (f *fixture) run(t *testing.T, req Request) []domain.PassStats {
	t.Helper()
	stats, err := f.importer.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run %+v: %v", req, err)
	}
	return stats
}

func (f *fixture) counts(t *testing.T) map[domain.Kind]int64 {
	t.Helper()
	ctx := context.Background()
	counters := map[domain.Kind]func(context.Context) (int64, error){
		domain.KindProvince:     f.store.Provinces().Count,
		domain.KindCounty:       f.store.Counties().Count,
		domain.KindMunicipality: f.store.Municipalities().Count,
		domain.KindCity:         f.store.Cities().Count,
		domain.KindVillage:      f.store.Villages().Count,
		domain.KindDistrict:     f.store.Districts().Count,
	}
	out := make(map[domain.Kind]int64, len(counters))
	for kind, count := range counters {
		n, err := count(ctx)
		if err != nil {
			t.Fatalf("count %s: %v", kind, err)
		}
		out[kind] = n
	}
	return out
}

func importAll() Request {
	return Request{Kinds: domain.Hierarchy, Import: true}
}

func TestImportAll(t *testing.T) {
	f := newFixture(t, config.LookupByID)
	f.write(t, testutil.SampleTERC(), testutil.SampleSIMC())

	stats := f.run(t, importAll())
	if len(stats) != len(domain.Hierarchy) {
		t.Fatalf("expected %d passes, got %d", len(domain.Hierarchy), len(stats))
	}
	for i, s := range stats {
		if s.Kind != domain.Hierarchy[i] {
			t.Errorf("pass %d is %s; want %s", i, s.Kind, domain.Hierarchy[i])
		}
		if s.Updated != 0 || s.Unchanged != 0 {
			t.Errorf("first import of %s should only create: %s", s.Kind, s)
		}
	}

	want := map[domain.Kind]int64{
		domain.KindProvince:     1,
		domain.KindCounty:       2,
		domain.KindMunicipality: 4,
		domain.KindCity:         3,
		domain.KindVillage:      1,
		domain.KindDistrict:     2,
	}
	got := f.counts(t)
	for kind, n := range want {
		if got[kind] != n {
			t.Errorf("%s: got %d rows, want %d", kind, got[kind], n)
		}
	}

	ctx := context.Background()
	p, err := f.store.Provinces().Get(ctx, "02")
	if err != nil {
		t.Fatalf("get province: %v", err)
	}
	if p.Name != "dolnośląskie" || p.Slug != "dolnoslaskie" {
		t.Errorf("unexpected province %+v", p)
	}

	m, err := f.store.Municipalities().Get(ctx, "020103")
	if err != nil {
		t.Fatalf("get municipality: %v", err)
	}
	if m.Type != domain.MunicipalityUrbanRural || m.CountyID != "0201" {
		t.Errorf("unexpected municipality %+v", m)
	}
}

func TestDistrictResolution(t *testing.T) {
	f := newFixture(t, config.LookupByID)
	f.write(t, testutil.SampleTERC(), testutil.SampleSIMC())
	f.run(t, importAll())

	tests := []struct {
		name         string
		id           string
		city         string
		municipality string
	}{
		{"same municipality", "0935990", "0935989", "020101"},
		{"county fallback overrides municipality", "0986290", "0986283", "026401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := f.store.Districts().Get(context.Background(), tt.id)
			if err != nil {
				t.Fatalf("get district: %v", err)
			}
			if d.CityID != tt.city || d.MunicipalityID != tt.municipality {
				t.Fatalf("district %s attached to city %s in %s; want %s in %s",
					tt.id, d.CityID, d.MunicipalityID, tt.city, tt.municipality)
			}
		})
	}
}

func TestReimportIsIdempotent(t *testing.T) {
	f := newFixture(t, config.LookupByID)
	f.write(t, testutil.SampleTERC(), testutil.SampleSIMC())
	f.run(t, importAll())

	for _, s := range f.run(t, importAll()) {
		if s.Writes() != 0 {
			t.Errorf("second import wrote to %s: %s", s.Kind, s)
		}
		if s.Unchanged == 0 {
			t.Errorf("second import saw no %s rows", s.Kind)
		}
	}
}

func TestReimportUpdatesChangedRows(t *testing.T) {
	f := newFixture(t, config.LookupByID)
	f.write(t, testutil.SampleTERC(), testutil.SampleSIMC())
	f.run(t, importAll())

	terc := testutil.SampleTERC()
	terc[0] = testutil.TERC("02", "", "", "", "DOLNOŚLĄSKIE", "województwo", "2025-01-01")
	f.write(t, terc, testutil.SampleSIMC())

	stats := f.run(t, Request{Kinds: []domain.Kind{domain.KindProvince, domain.KindCounty}, Import: true})
	if stats[0].Updated != 1 || stats[0].Created != 0 {
		t.Fatalf("expected the province to be updated: %s", stats[0])
	}
	if stats[1].Writes() != 0 {
		t.Fatalf("counties did not change: %s", stats[1])
	}

	p, err := f.store.Provinces().Get(context.Background(), "02")
	if err != nil {
		t.Fatalf("get province: %v", err)
	}
	if domain.FormatDate(p.TerytDate) != "2025-01-01" {
		t.Fatalf("date not updated: %s", domain.FormatDate(p.TerytDate))
	}
}

func TestVillageBecomesCity(t *testing.T) {
	f := newFixture(t, config.LookupByID)
	f.write(t, testutil.SampleTERC(), testutil.SampleSIMC())
	f.run(t, importAll())

	simc := testutil.SampleSIMC()
	simc[1] = testutil.SIMC("02", "01", "02", "2", "96", "Kruszyn", "0200001", "0200001", "2024-01-01")
	f.write(t, testutil.SampleTERC(), simc)

	stats := f.run(t, Request{Kinds: []domain.Kind{domain.KindCity}, Import: true})
	if stats[0].Updated != 1 || stats[0].Created != 0 {
		t.Fatalf("expected the village to be retyped in place: %s", stats[0])
	}
	got := f.counts(t)
	if got[domain.KindCity] != 4 || got[domain.KindVillage] != 0 {
		t.Fatalf("unexpected locality counts %v", got)
	}
}

func TestFlush(t *testing.T) {
	tests := []struct {
		name  string
		kinds []domain.Kind
		want  map[domain.Kind]int64
	}{
		{
			name:  "county cascades to its children",
			kinds: []domain.Kind{domain.KindCounty},
			want: map[domain.Kind]int64{
				domain.KindProvince: 1, domain.KindCounty: 0, domain.KindMunicipality: 0,
				domain.KindCity: 0, domain.KindVillage: 0, domain.KindDistrict: 0,
			},
		},
		{
			name:  "villages keep cities",
			kinds: []domain.Kind{domain.KindVillage},
			want: map[domain.Kind]int64{
				domain.KindProvince: 1, domain.KindCounty: 2, domain.KindMunicipality: 4,
				domain.KindCity: 3, domain.KindVillage: 0, domain.KindDistrict: 2,
			},
		},
		{
			name:  "districts only",
			kinds: []domain.Kind{domain.KindDistrict},
			want: map[domain.Kind]int64{
				domain.KindProvince: 1, domain.KindCounty: 2, domain.KindMunicipality: 4,
				domain.KindCity: 3, domain.KindVillage: 1, domain.KindDistrict: 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.LookupByID)
			f.write(t, testutil.SampleTERC(), testutil.SampleSIMC())
			f.run(t, importAll())

			stats := f.run(t, Request{Kinds: tt.kinds, Flush: true})
			if len(stats) != len(tt.kinds) || stats[0].Deleted == 0 {
				t.Fatalf("unexpected flush stats %+v", stats)
			}
			got := f.counts(t)
			for kind, n := range tt.want {
				if got[kind] != n {
					t.Errorf("%s: got %d rows, want %d", kind, got[kind], n)
				}
			}
		})
	}
}

func TestFlushThenImportRestoresEverything(t *testing.T) {
	f := newFixture(t, config.LookupByID)
	f.write(t, testutil.SampleTERC(), testutil.SampleSIMC())
	f.run(t, importAll())

	stats := f.run(t, Request{Kinds: domain.Hierarchy, Flush: true, Import: true})
	if len(stats) != 2*len(domain.Hierarchy) {
		t.Fatalf("expected flush and import passes, got %d", len(stats))
	}
	if stats[0].Kind != domain.KindDistrict || stats[len(domain.Hierarchy)].Kind != domain.KindProvince {
		t.Fatalf("flush must run children first and import parents first: %v, %v",
			stats[0].Kind, stats[len(domain.Hierarchy)].Kind)
	}
	if got := f.counts(t); got[domain.KindDistrict] != 2 {
		t.Fatalf("districts not restored: %v", got)
	}
}

func TestMissingInput(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		missing string
	}{
		{"nothing", nil, "TERC.xml"},
		{"no simc", []string{"TERC"}, "SIMC.xml"},
		{"no terc", []string{"SIMC"}, "TERC.xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.LookupByID)
			for _, catalog := range tt.files {
				testutil.WriteRegistry(t, f.dir, catalog)
			}

			_, err := f.importer.Run(context.Background(), importAll())
			var missing *domain.InputMissingError
			if !errors.As(err, &missing) {
				t.Fatalf("expected InputMissingError, got %v", err)
			}
			if filepath.Base(missing.Path) != tt.missing {
				t.Fatalf("reported %s; want %s", missing.Path, tt.missing)
			}
		})
	}
}

func TestImportDirIsCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "import")
	cfg := &config.Config{ImportDir: dir, UpsertLookup: config.LookupByID}
	importer := NewImporter(cfg, openTestStore(t), nil)

	_, err := importer.Run(context.Background(), importAll())
	var missing *domain.InputMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected InputMissingError, got %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("import dir was not created: %v", err)
	}
}

func TestMalformedRowRollsBackPass(t *testing.T) {
	f := newFixture(t, config.LookupByID)
	terc := testutil.SampleTERC()
	terc[6] = testutil.TERC("02", "64", "", "", "Wrocław", "miasto na prawach powiatu", "2024-13-01")
	f.write(t, terc, testutil.SampleSIMC())

	stats, err := f.importer.Run(context.Background(), importAll())
	var malformed *domain.MalformedRowError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRowError, got %v", err)
	}
	if malformed.Index != 7 || malformed.Column != "STAN_NA" || !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("unexpected error location: %v", malformed)
	}
	if len(stats) != 1 {
		t.Fatalf("only the province pass should have completed, got %d", len(stats))
	}

	got := f.counts(t)
	if got[domain.KindProvince] != 1 || got[domain.KindCounty] != 0 {
		t.Fatalf("county pass should have rolled back: %v", got)
	}
}

func TestLookupModes(t *testing.T) {
	renamed := testutil.SampleTERC()
	renamed[0] = testutil.TERC("02", "", "", "", "DOLNY ŚLĄSK", "województwo", "2024-01-01")
	provinces := Request{Kinds: []domain.Kind{domain.KindProvince}, Import: true}

	t.Run("by id renames in place", func(t *testing.T) {
		f := newFixture(t, config.LookupByID)
		f.write(t, testutil.SampleTERC(), testutil.SampleSIMC())
		f.run(t, provinces)
		f.write(t, renamed, testutil.SampleSIMC())

		stats := f.run(t, provinces)
		if stats[0].Updated != 1 {
			t.Fatalf("expected an update: %s", stats[0])
		}
		p, err := f.store.Provinces().Get(context.Background(), "02")
		if err != nil || p.Name != "dolny śląsk" || p.Slug != "dolny-slask" {
			t.Fatalf("unexpected province %+v, %v", p, err)
		}
	})

	t.Run("by id and name rejects rename", func(t *testing.T) {
		f := newFixture(t, config.LookupByIDName)
		f.write(t, testutil.SampleTERC(), testutil.SampleSIMC())
		f.run(t, provinces)
		f.write(t, renamed, testutil.SampleSIMC())

		_, err := f.importer.Run(context.Background(), provinces)
		var violation *domain.StoreConstraintViolation
		if !errors.As(err, &violation) {
			t.Fatalf("expected StoreConstraintViolation, got %v", err)
		}
		p, err := f.store.Provinces().Get(context.Background(), "02")
		if err != nil || p.Name != "dolnośląskie" {
			t.Fatalf("stored province must be untouched, got %+v, %v", p, err)
		}
	})
}

func TestUnresolvedDistrictsFailThePass(t *testing.T) {
	f := newFixture(t, config.LookupByID)
	simc := append(testutil.SampleSIMC(),
		testutil.SIMC("02", "99", "01", "1", "99", "Nigdzie", "0999991", "0999990", "2024-01-01"),
		testutil.SIMC("02", "98", "01", "1", "99", "Donikąd", "0999992", "0999990", "2024-01-01"),
	)
	f.write(t, testutil.SampleTERC(), simc)

	_, err := f.importer.Run(context.Background(), importAll())
	if err == nil {
		t.Fatal("expected the district pass to fail")
	}

	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		t.Fatalf("expected every unresolved district to be reported, got %v", err)
	}
	var ids []string
	for _, e := range joined.Unwrap() {
		var perr *domain.ParentResolutionError
		if !errors.As(e, &perr) {
			t.Fatalf("expected ParentResolutionError, got %v", e)
		}
		ids = append(ids, perr.DistrictID)
	}
	if len(ids) != 2 || ids[0] != "0999991" || ids[1] != "0999992" {
		t.Fatalf("unexpected unresolved districts %v", ids)
	}

	got := f.counts(t)
	if got[domain.KindDistrict] != 0 {
		t.Fatalf("district pass should have rolled back, found %d", got[domain.KindDistrict])
	}
	if got[domain.KindCity] != 3 {
		t.Fatalf("earlier passes must stay committed: %v", got)
	}
}

func TestAmbiguousCityUsesParentSym(t *testing.T) {
	tests := []struct {
		name         string
		sympod       string
		city         string
		municipality string
		candidates   int
	}{
		{"parent symbol picks the city", "0935996", "0935996", "020103", 0},
		{"no parent symbol match", "0999999", "", "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.LookupByID)
			// municipality 05 has no city, the county has two
			simc := append(testutil.SampleSIMC(),
				testutil.SIMC("02", "01", "05", "2", "99", "Wygon", "0935999", tt.sympod, "2024-01-01"))
			f.write(t, testutil.SampleTERC(), simc)

			_, err := f.importer.Run(context.Background(), importAll())
			if tt.candidates > 0 {
				var perr *domain.ParentResolutionError
				if !errors.As(err, &perr) {
					t.Fatalf("expected ParentResolutionError, got %v", err)
				}
				if len(perr.Candidates) != tt.candidates {
					t.Fatalf("got candidates %v", perr.Candidates)
				}
				return
			}
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			d, err := f.store.Districts().Get(context.Background(), "0935999")
			if err != nil {
				t.Fatalf("get district: %v", err)
			}
			if d.CityID != tt.city || d.MunicipalityID != tt.municipality {
				t.Fatalf("got city %s in %s; want %s in %s", d.CityID, d.MunicipalityID, tt.city, tt.municipality)
			}
		})
	}
}
