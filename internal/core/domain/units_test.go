package domain

import (
	"testing"
	"time"
)

func TestDiff(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := Locality{
		Unit:           Unit{ID: "0935989", Name: "Bolesławiec", Slug: "boleslawiec", TerytDate: day},
		ProvinceID:     "02",
		CountyID:       "0201",
		MunicipalityID: "020101",
		Type:           LocalityCity,
	}

	tests := []struct {
		name   string
		change func(l *Locality)
		fields []string
	}{
		{"identical", func(*Locality) {}, nil},
		{"same day in another zone", func(l *Locality) {
			l.TerytDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
		}, nil},
		{"date", func(l *Locality) { l.TerytDate = day.AddDate(1, 0, 0) }, []string{"teryt_date"}},
		{"rename", func(l *Locality) {
			l.Name = "Bolesławiec Śląski"
			l.Slug = "boleslawiec-slaski"
		}, []string{"name", "slug"}},
		{"type and parent", func(l *Locality) {
			l.Type = LocalityVillage
			l.MunicipalityID = "020102"
		}, []string{"municipality_id", "type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			incoming := base
			tt.change(&incoming)

			changes := incoming.Diff(base)
			if len(changes) != len(tt.fields) {
				t.Fatalf("got changes %+v; want fields %v", changes, tt.fields)
			}
			for i, c := range changes {
				if c.Field != tt.fields[i] {
					t.Errorf("change %d is %s; want %s", i, c.Field, tt.fields[i])
				}
			}
		})
	}
}

func TestDiffReportsOldAndNew(t *testing.T) {
	stored := District{Unit: Unit{ID: "0986290", Name: "Leśnica"}, CityID: "0986283"}
	incoming := stored
	incoming.CityID = "0935989"

	changes := incoming.Diff(stored)
	if len(changes) != 1 {
		t.Fatalf("expected one change, got %+v", changes)
	}
	want := FieldChange{Field: "city_id", Old: "0986283", New: "0935989"}
	if changes[0] != want {
		t.Fatalf("got %+v; want %+v", changes[0], want)
	}
}

func TestParents(t *testing.T) {
	tests := []struct {
		name   string
		parent func() (Ref, bool)
		want   Ref
		ok     bool
	}{
		{"province", Province{}.Parent, Ref{}, false},
		{"county", County{ProvinceID: "02"}.Parent, Ref{Kind: KindProvince, ID: "02"}, true},
		{"municipality", Municipality{CountyID: "0201"}.Parent, Ref{Kind: KindCounty, ID: "0201"}, true},
		{"locality", Locality{MunicipalityID: "020101"}.Parent, Ref{Kind: KindMunicipality, ID: "020101"}, true},
		{"district", District{CityID: "0935989"}.Parent, Ref{Kind: KindCity, ID: "0935989"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.parent()
			if got != tt.want || ok != tt.ok {
				t.Errorf("Parent() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPassStats(t *testing.T) {
	s := PassStats{Kind: KindCity}
	for _, r := range []UpsertResult{Created, Created, Updated, Unchanged} {
		s.Add(r)
	}
	if s.Created != 2 || s.Updated != 1 || s.Unchanged != 1 || s.Writes() != 3 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if got, want := s.String(), "city: 2 created, 1 updated, 1 unchanged"; got != want {
		t.Fatalf("String() = %q; want %q", got, want)
	}
}
