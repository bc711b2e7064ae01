package catalog

import (
	"github.com/qubesight-bit/gosafe.lat-sub000/catalog/entities"
	"github.com/qubesight-bit/gosafe.lat-sub000/names"
	"github.com/qubesight-bit/gosafe.lat-sub000/pairs"
)

// FindInteraction looks a pair up in the curated interaction table.
//
// An exact canonical match wins. Otherwise records are scanned in table order
// with relaxed matching: a stored name matches a query name when either
// contains the other ("ssri" matches "SSRIs"). Each record is tried as (a, b)
// and then (b, a) before moving on.
func (c *Catalog) FindInteraction(a, b string) (entities.InteractionRecord, bool) {
	qa, qb := names.Canonical(a), names.Canonical(b)
	if qa == "" || qb == "" {
		return entities.InteractionRecord{}, false
	}

	if idx, ok := pairs.Lookup(c.exact, qa, qb); ok {
		return c.interactions[idx], true
	}

	for _, r := range c.interactions {
		if names.Overlaps(r.SubstanceA, qa) && names.Overlaps(r.SubstanceB, qb) {
			return r, true
		}
		if names.Overlaps(r.SubstanceA, qb) && names.Overlaps(r.SubstanceB, qa) {
			return r, true
		}
	}

	return entities.InteractionRecord{}, false
}
