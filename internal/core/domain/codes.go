package domain

// Codes are the hierarchical short codes of a registry row: WOJ, POW and GMI.
// Composite keys are plain string concatenations, so leading zeros survive.
type Codes struct {
	Province     string
	County       string
	Municipality string
}

func (c Codes) ProvinceKey() string {
	return c.Province
}

func (c Codes) CountyKey() string {
	return c.Province + c.County
}

func (c Codes) MunicipalityKey() string {
	return c.Province + c.County + c.Municipality
}
