package sqlstore

import (
	"time"

	"github.com/terratensor/teryt/internal/core/domain"
)

// UnitColumns are shared by every table.
type UnitColumns struct {
	ID        string    `gorm:"primaryKey;size:7"`
	Name      string    `gorm:"size:200;not null;index"`
	Slug      string    `gorm:"size:255;not null;index"`
	TerytDate time.Time `gorm:"type:date;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func unitColumns(u domain.Unit) UnitColumns {
	return UnitColumns{ID: u.ID, Name: u.Name, Slug: u.Slug, TerytDate: domain.NormalizeDate(u.TerytDate)}
}

func (c UnitColumns) unit() domain.Unit {
	return domain.Unit{ID: c.ID, Name: c.Name, Slug: c.Slug, TerytDate: domain.NormalizeDate(c.TerytDate)}
}

type ProvinceModel struct {
	UnitColumns
}

func (ProvinceModel) TableName() string { return "provinces" }

type CountyModel struct {
	UnitColumns
	ProvinceID string `gorm:"size:7;not null;index"`
}

func (CountyModel) TableName() string { return "counties" }

type MunicipalityModel struct {
	UnitColumns
	ProvinceID string `gorm:"size:7;not null;index"`
	CountyID   string `gorm:"size:7;not null;index"`
	Type       string `gorm:"size:1;not null"`
}

func (MunicipalityModel) TableName() string { return "municipalities" }

type LocalityModel struct {
	UnitColumns
	ProvinceID     string `gorm:"size:7;not null"`
	CountyID       string `gorm:"size:7;not null"`
	MunicipalityID string `gorm:"size:7;not null"`
	Type           string `gorm:"size:2;not null;index"`
}

func (LocalityModel) TableName() string { return "localities" }

type DistrictModel struct {
	UnitColumns
	ProvinceID     string `gorm:"size:7;not null"`
	CountyID       string `gorm:"size:7;not null"`
	MunicipalityID string `gorm:"size:7;not null"`
	CityID         string `gorm:"size:7;not null;index"`
}

func (DistrictModel) TableName() string { return "districts" }

func provinceToModel(v domain.Province) ProvinceModel {
	return ProvinceModel{UnitColumns: unitColumns(v.Unit)}
}

func provinceFromModel(m ProvinceModel) domain.Province {
	return domain.Province{Unit: m.unit()}
}

func countyToModel(v domain.County) CountyModel {
	return CountyModel{UnitColumns: unitColumns(v.Unit), ProvinceID: v.ProvinceID}
}

func countyFromModel(m CountyModel) domain.County {
	return domain.County{Unit: m.unit(), ProvinceID: m.ProvinceID}
}

func municipalityToModel(v domain.Municipality) MunicipalityModel {
	return MunicipalityModel{
		UnitColumns: unitColumns(v.Unit),
		ProvinceID:  v.ProvinceID,
		CountyID:    v.CountyID,
		Type:        string(v.Type),
	}
}

func municipalityFromModel(m MunicipalityModel) domain.Municipality {
	return domain.Municipality{
		Unit:       m.unit(),
		ProvinceID: m.ProvinceID,
		CountyID:   m.CountyID,
		Type:       domain.MunicipalityType(m.Type),
	}
}

func localityToModel(v domain.Locality) LocalityModel {
	return LocalityModel{
		UnitColumns:    unitColumns(v.Unit),
		ProvinceID:     v.ProvinceID,
		CountyID:       v.CountyID,
		MunicipalityID: v.MunicipalityID,
		Type:           string(v.Type),
	}
}

func localityFromModel(m LocalityModel) domain.Locality {
	return domain.Locality{
		Unit:           m.unit(),
		ProvinceID:     m.ProvinceID,
		CountyID:       m.CountyID,
		MunicipalityID: m.MunicipalityID,
		Type:           domain.LocalityType(m.Type),
	}
}

func districtToModel(v domain.District) DistrictModel {
	return DistrictModel{
		UnitColumns:    unitColumns(v.Unit),
		ProvinceID:     v.ProvinceID,
		CountyID:       v.CountyID,
		MunicipalityID: v.MunicipalityID,
		CityID:         v.CityID,
	}
}

func districtFromModel(m DistrictModel) domain.District {
	return domain.District{
		Unit:           m.unit(),
		ProvinceID:     m.ProvinceID,
		CountyID:       m.CountyID,
		MunicipalityID: m.MunicipalityID,
		CityID:         m.CityID,
	}
}
