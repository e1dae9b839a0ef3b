package domain

import (
	"fmt"
	"time"
)

// DateLayout is the format of the STAN_NA column.
const DateLayout = "2006-01-02"

// MunicipalityType is the RODZ column of a municipality row.
type MunicipalityType string

const (
	MunicipalityUrban      MunicipalityType = "1"
	MunicipalityRural      MunicipalityType = "2"
	MunicipalityUrbanRural MunicipalityType = "3"
)

func (t MunicipalityType) Valid() bool {
	switch t {
	case MunicipalityUrban, MunicipalityRural, MunicipalityUrbanRural:
		return true
	}
	return false
}

func (t MunicipalityType) String() string {
	switch t {
	case MunicipalityUrban:
		return "gmina miejska"
	case MunicipalityRural:
		return "gmina wiejska"
	case MunicipalityUrbanRural:
		return "gmina miejsko-wiejska"
	}
	return string(t)
}

// LocalityType is the RM column of a SIMC row. Cities and villages share one table.
type LocalityType string

const (
	LocalityCity    LocalityType = "96"
	LocalityVillage LocalityType = "01"
	// LocalityCityPart marks SIMC rows imported as districts.
	LocalityCityPart LocalityType = "99"
)

func (t LocalityType) Kind() Kind {
	if t == LocalityCity {
		return KindCity
	}
	return KindVillage
}

func (t LocalityType) String() string {
	switch t {
	case LocalityCity:
		return "city"
	case LocalityVillage:
		return "village"
	case LocalityCityPart:
		return "city part"
	}
	return string(t)
}

// Ref points at a unit of a given kind.
type Ref struct {
	Kind Kind
	ID   string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// FieldChange is one attribute that differs between an incoming record and the stored one.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Record is implemented by every unit kind the upserter handles.
type Record[T any] interface {
	Key() string
	Label() string
	Parent() (Ref, bool)
	Diff(stored T) []FieldChange
}

// Unit holds the attributes shared by every kind.
type Unit struct {
	ID        string
	Name      string
	Slug      string
	TerytDate time.Time
}

func (u Unit) Key() string   { return u.ID }
func (u Unit) Label() string { return u.Name }

func (u Unit) String() string {
	return fmt.Sprintf("%s (%s)", u.Name, u.ID)
}

func (u Unit) diff(stored Unit) []FieldChange {
	var changes []FieldChange
	changes = appendChange(changes, "id", stored.ID, u.ID)
	changes = appendChange(changes, "name", stored.Name, u.Name)
	changes = appendChange(changes, "slug", stored.Slug, u.Slug)
	changes = appendChange(changes, "teryt_date", FormatDate(stored.TerytDate), FormatDate(u.TerytDate))
	return changes
}

type Province struct {
	Unit
}

func (p Province) Parent() (Ref, bool) { return Ref{}, false }

func (p Province) Diff(stored Province) []FieldChange {
	return p.Unit.diff(stored.Unit)
}

type County struct {
	Unit
	ProvinceID string
}

func (c County) Parent() (Ref, bool) { return Ref{Kind: KindProvince, ID: c.ProvinceID}, true }

func (c County) Diff(stored County) []FieldChange {
	changes := c.Unit.diff(stored.Unit)
	return appendChange(changes, "province_id", stored.ProvinceID, c.ProvinceID)
}

type Municipality struct {
	Unit
	ProvinceID string
	CountyID   string
	Type       MunicipalityType
}

func (m Municipality) Parent() (Ref, bool) { return Ref{Kind: KindCounty, ID: m.CountyID}, true }

func (m Municipality) Diff(stored Municipality) []FieldChange {
	changes := m.Unit.diff(stored.Unit)
	changes = appendChange(changes, "province_id", stored.ProvinceID, m.ProvinceID)
	changes = appendChange(changes, "county_id", stored.CountyID, m.CountyID)
	return appendChange(changes, "type", string(stored.Type), string(m.Type))
}

// Locality is a SIMC place: a city or a village depending on Type.
type Locality struct {
	Unit
	ProvinceID     string
	CountyID       string
	MunicipalityID string
	Type           LocalityType
}

func (l Locality) Parent() (Ref, bool) {
	return Ref{Kind: KindMunicipality, ID: l.MunicipalityID}, true
}

func (l Locality) Diff(stored Locality) []FieldChange {
	changes := l.Unit.diff(stored.Unit)
	changes = appendChange(changes, "province_id", stored.ProvinceID, l.ProvinceID)
	changes = appendChange(changes, "county_id", stored.CountyID, l.CountyID)
	changes = appendChange(changes, "municipality_id", stored.MunicipalityID, l.MunicipalityID)
	return appendChange(changes, "type", string(stored.Type), string(l.Type))
}

type District struct {
	Unit
	ProvinceID     string
	CountyID       string
	MunicipalityID string
	CityID         string
}

func (d District) Parent() (Ref, bool) { return Ref{Kind: KindCity, ID: d.CityID}, true }

func (d District) Diff(stored District) []FieldChange {
	changes := d.Unit.diff(stored.Unit)
	changes = appendChange(changes, "province_id", stored.ProvinceID, d.ProvinceID)
	changes = appendChange(changes, "county_id", stored.CountyID, d.CountyID)
	changes = appendChange(changes, "municipality_id", stored.MunicipalityID, d.MunicipalityID)
	return appendChange(changes, "city_id", stored.CityID, d.CityID)
}

// FormatDate renders a registry date, ignoring the time of day and location.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// NormalizeDate strips time and location, as stores hand dates back in various zones.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func appendChange(changes []FieldChange, field, before, after string) []FieldChange {
	if before == after {
		return changes
	}
	return append(changes, FieldChange{Field: field, Old: before, New: after})
}
