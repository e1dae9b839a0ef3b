package pipeline

import (
	"fmt"

	"github.com/terratensor/teryt/internal/core/domain"
)

// SIMC columns: WOJ, POW, GMI, RODZ_GMI, RM, MZ, NAZWA, SYM, SYMPOD, STAN_NA.
var (
	simcProvince     = SchemaColumn{0, "WOJ"}
	simcCounty       = SchemaColumn{1, "POW"}
	simcMunicipality = SchemaColumn{2, "GMI"}
	simcType         = SchemaColumn{4, "RM"}
	simcName         = SchemaColumn{6, "NAZWA"}
	simcSym          = SchemaColumn{7, "SYM"}
	simcParentSym    = SchemaColumn{8, "SYMPOD"}
	simcDate         = SchemaColumn{9, "STAN_NA"}
)

var (
	CityRows     = ColumnEquals(simcType.Name, string(domain.LocalityCity))
	VillageRows  = ColumnEquals(simcType.Name, string(domain.LocalityVillage))
	DistrictRows = ColumnEquals(simcType.Name, string(domain.LocalityCityPart))
)

// DistrictRow is a city part before its city is known.
type DistrictRow struct {
	District  domain.District
	Codes     domain.Codes
	ParentSym string
}

func simcCodes(r Row) (domain.Codes, error) {
	var (
		codes domain.Codes
		err   error
	)
	if codes.Province, err = r.Text(simcProvince); err != nil {
		return codes, err
	}
	if codes.County, err = r.Text(simcCounty); err != nil {
		return codes, err
	}
	if codes.Municipality, err = r.Text(simcMunicipality); err != nil {
		return codes, err
	}
	return codes, nil
}

func simcUnit(r Row) (domain.Unit, error) {
	id, err := r.Text(simcSym)
	if err != nil {
		return domain.Unit{}, err
	}
	name, err := r.Text(simcName)
	if err != nil {
		return domain.Unit{}, err
	}
	date, err := r.Date(simcDate)
	if err != nil {
		return domain.Unit{}, err
	}
	return domain.Unit{ID: id, Name: name, Slug: Slugify(name), TerytDate: date}, nil
}

// LocalityFromRow maps a city or village row; the RM column becomes the type.
func LocalityFromRow(r Row) (domain.Locality, error) {
	codes, err := simcCodes(r)
	if err != nil {
		return domain.Locality{}, err
	}
	u, err := simcUnit(r)
	if err != nil {
		return domain.Locality{}, err
	}
	typ, err := r.Text(simcType)
	if err != nil {
		return domain.Locality{}, err
	}
	switch domain.LocalityType(typ) {
	case domain.LocalityCity, domain.LocalityVillage:
	default:
		return domain.Locality{}, r.malformed(simcType.Name, fmt.Errorf("%w: locality type %q", domain.ErrInvalidValue, typ))
	}
	return domain.Locality{
		Unit:           u,
		ProvinceID:     codes.ProvinceKey(),
		CountyID:       codes.CountyKey(),
		MunicipalityID: codes.MunicipalityKey(),
		Type:           domain.LocalityType(typ),
	}, nil
}

func DistrictFromRow(r Row) (DistrictRow, error) {
	codes, err := simcCodes(r)
	if err != nil {
		return DistrictRow{}, err
	}
	u, err := simcUnit(r)
	if err != nil {
		return DistrictRow{}, err
	}
	parent, err := r.Optional(simcParentSym)
	if err != nil {
		return DistrictRow{}, err
	}
	return DistrictRow{
		District: domain.District{
			Unit:           u,
			ProvinceID:     codes.ProvinceKey(),
			CountyID:       codes.CountyKey(),
			MunicipalityID: codes.MunicipalityKey(),
		},
		Codes:     codes,
		ParentSym: parent,
	}, nil
}
