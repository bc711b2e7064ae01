package interactions

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/qubesight-bit/gosafe.lat-sub000/logging"
	"github.com/qubesight-bit/gosafe.lat-sub000/names"
	"github.com/qubesight-bit/gosafe.lat-sub000/severity"
	"github.com/qubesight-bit/gosafe.lat-sub000/tripsit"
)

// CheckCombo looks the pair up in the community combination chart. a's
// chart is searched for b first, then b's chart for a. The raw status is
// classified with severity.Normalize.
func (s *Service) CheckCombo(ctx context.Context, a, b string) ComboResult {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	res := ComboResult{SubstanceA: a, SubstanceB: b}

	switch {
	case a == "" || b == "":
		res.Reason = ComboReasonEmptyName
		return res
	case names.Equal(a, b):
		res.Reason = ComboReasonSameSubstance
		return res
	case s.community == nil:
		res.Reason = ComboReasonCollaboratorError
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	failed := false
	for _, dir := range [][2]string{{a, b}, {b, a}} {
		combos, err := s.community.Combos(ctx, dir[0])
		if err != nil {
			if !errors.Is(err, tripsit.ErrNotFound) {
				logging.Warn("Combination chart fetch failed", "substance", dir[0], "error", err)
				failed = true
			}
			continue
		}

		if combo, ok := findCombo(combos, dir[1]); ok {
			class := severity.Normalize(combo.Status)
			src := communitySource
			res.Found = true
			res.Status = combo.Status
			res.Classification = &class
			res.Note = combo.Note
			res.Source = &src
			return res
		}
	}

	if failed {
		res.Reason = ComboReasonCollaboratorError
	} else {
		res.Reason = ComboReasonNotListed
	}
	return res
}

// findCombo finds name among the chart keys: an exact canonical match first,
// then the first key in sorted order that overlaps it.
func findCombo(combos map[string]tripsit.Combo, name string) (tripsit.Combo, bool) {
	if len(combos) == 0 {
		return tripsit.Combo{}, false
	}

	keys := make([]string, 0, len(combos))
	for k := range combos {
		if names.Equal(k, name) {
			return combos[k], true
		}
		keys = append(keys, k)
	}

	sort.Strings(keys)
	for _, k := range keys {
		if names.Overlaps(k, name) {
			return combos[k], true
		}
	}
	return tripsit.Combo{}, false
}
