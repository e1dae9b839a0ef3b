package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Kind identifies one level of the TERYT hierarchy.
type Kind string

const (
	KindProvince     Kind = "province"
	KindCounty       Kind = "county"
	KindMunicipality Kind = "municipality"
	KindCity         Kind = "city"
	KindVillage      Kind = "village"
	KindDistrict     Kind = "district"
)

// KindAll selects every kind.
const KindAll = "all"

// Hierarchy lists the kinds in import order. Parents always come first.
var Hierarchy = []Kind{
	KindProvince,
	KindCounty,
	KindMunicipality,
	KindCity,
	KindVillage,
	KindDistrict,
}

func (k Kind) rank() int {
	return slices.Index(Hierarchy, k)
}

func (k Kind) Valid() bool {
	return k.rank() >= 0
}

// ParseKinds turns command line labels into a set of kinds in hierarchy order.
// Labels may be comma separated; "all" selects everything.
func ParseKinds(labels []string) ([]Kind, error) {
	seen := make(map[Kind]bool)
	for _, raw := range labels {
		for _, label := range strings.Split(raw, ",") {
			label = strings.ToLower(strings.TrimSpace(label))
			if label == "" {
				continue
			}
			if label == KindAll {
				return slices.Clone(Hierarchy), nil
			}
			k := Kind(label)
			if !k.Valid() {
				return nil, fmt.Errorf("unknown data type %q (expected one of %s or %s)", label, joinKinds(Hierarchy), KindAll)
			}
			seen[k] = true
		}
	}

	kinds := make([]Kind, 0, len(seen))
	for _, k := range Hierarchy {
		if seen[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// ImportOrder returns kinds sorted parents first.
func ImportOrder(kinds []Kind) []Kind {
	out := slices.Clone(kinds)
	slices.SortStableFunc(out, func(a, b Kind) int { return a.rank() - b.rank() })
	return out
}

// FlushOrder returns kinds sorted children first, so foreign keys are never left dangling.
func FlushOrder(kinds []Kind) []Kind {
	out := ImportOrder(kinds)
	slices.Reverse(out)
	return out
}

func joinKinds(kinds []Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
