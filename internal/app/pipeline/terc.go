package pipeline

import (
	"fmt"
	"strings"

	"github.com/terratensor/teryt/internal/core/domain"
)

// TERC columns: WOJ, POW, GMI, RODZ, NAZWA, NAZWA_DOD, STAN_NA.
var (
	tercProvince     = SchemaColumn{0, "WOJ"}
	tercCounty       = SchemaColumn{1, "POW"}
	tercMunicipality = SchemaColumn{2, "GMI"}
	tercType         = SchemaColumn{3, "RODZ"}
	tercName         = SchemaColumn{4, "NAZWA"}
	tercLabel        = SchemaColumn{5, "NAZWA_DOD"}
	tercDate         = SchemaColumn{6, "STAN_NA"}
)

// Administrative level selectors over NAZWA_DOD.
var (
	ProvinceRows     = ColumnEquals(tercLabel.Name, "województwo")
	CountyRows       = ColumnContains(tercLabel.Name, "powiat")
	MunicipalityRows = ColumnContains(tercLabel.Name, "gmina")
)

// tercCodes reads the first depth code columns (1 = WOJ, 2 = +POW, 3 = +GMI).
func tercCodes(r Row, depth int) (domain.Codes, error) {
	var (
		codes domain.Codes
		err   error
	)
	targets := []*string{&codes.Province, &codes.County, &codes.Municipality}
	columns := []SchemaColumn{tercProvince, tercCounty, tercMunicipality}
	for i := 0; i < depth; i++ {
		if *targets[i], err = r.Text(columns[i]); err != nil {
			return domain.Codes{}, err
		}
	}
	return codes, nil
}

func tercUnit(r Row, id string) (domain.Unit, error) {
	name, err := r.Text(tercName)
	if err != nil {
		return domain.Unit{}, err
	}
	date, err := r.Date(tercDate)
	if err != nil {
		return domain.Unit{}, err
	}
	return domain.Unit{ID: id, Name: name, Slug: Slugify(name), TerytDate: date}, nil
}

// ProvinceFromRow maps a województwo row. Province names are published upper
// case and stored lower case.
func ProvinceFromRow(r Row) (domain.Province, error) {
	codes, err := tercCodes(r, 1)
	if err != nil {
		return domain.Province{}, err
	}
	u, err := tercUnit(r, codes.ProvinceKey())
	if err != nil {
		return domain.Province{}, err
	}
	u.Name = strings.ToLower(u.Name)
	u.Slug = Slugify(u.Name)
	return domain.Province{Unit: u}, nil
}

func CountyFromRow(r Row) (domain.County, error) {
	codes, err := tercCodes(r, 2)
	if err != nil {
		return domain.County{}, err
	}
	u, err := tercUnit(r, codes.CountyKey())
	if err != nil {
		return domain.County{}, err
	}
	return domain.County{Unit: u, ProvinceID: codes.ProvinceKey()}, nil
}

func MunicipalityFromRow(r Row) (domain.Municipality, error) {
	codes, err := tercCodes(r, 3)
	if err != nil {
		return domain.Municipality{}, err
	}
	u, err := tercUnit(r, codes.MunicipalityKey())
	if err != nil {
		return domain.Municipality{}, err
	}
	typ, err := r.Text(tercType)
	if err != nil {
		return domain.Municipality{}, err
	}
	if !domain.MunicipalityType(typ).Valid() {
		return domain.Municipality{}, r.malformed(tercType.Name, fmt.Errorf("%w: municipality type %q", domain.ErrInvalidValue, typ))
	}
	return domain.Municipality{
		Unit:       u,
		ProvinceID: codes.ProvinceKey(),
		CountyID:   codes.CountyKey(),
		Type:       domain.MunicipalityType(typ),
	}, nil
}
