package interactions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qubesight-bit/gosafe.lat-sub000/catalog"
	"github.com/qubesight-bit/gosafe.lat-sub000/catalog/entities"
	"github.com/qubesight-bit/gosafe.lat-sub000/names"
	"github.com/qubesight-bit/gosafe.lat-sub000/rxnav"
	"github.com/qubesight-bit/gosafe.lat-sub000/severity"
)

// mockPharma resolves names from a fixed table and answers interaction
// fetches from another.
type mockPharma struct {
	ids          map[string]string // canonical name -> ID
	sets         map[[2]string]rxnav.InteractionSet
	resolveErr   error
	fetchErr     error
	resolveDelay time.Duration

	mu            sync.Mutex
	resolveCalls  int
	fetchCalls    atomic.Int32
	inFlight      atomic.Int32
	maxConcurrent atomic.Int32
}

func (m *mockPharma) Resolve(ctx context.Context, name string) (rxnav.Resolution, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxConcurrent.Load()
		if n <= cur || m.maxConcurrent.CompareAndSwap(cur, n) {
			break
		}
	}

	if m.resolveDelay > 0 {
		select {
		case <-time.After(m.resolveDelay):
		case <-ctx.Done():
			return rxnav.Resolution{}, ctx.Err()
		}
	}

	if m.resolveErr != nil {
		return rxnav.Resolution{}, m.resolveErr
	}
	if id, ok := m.ids[names.Canonical(name)]; ok {
		return rxnav.Resolution{Status: rxnav.Resolved, ID: id}, nil
	}
	return rxnav.Resolution{Status: rxnav.Unresolved}, nil
}

func (m *mockPharma) Interactions(ctx context.Context, ids [2]string) (rxnav.InteractionSet, error) {
	m.fetchCalls.Add(1)
	if m.fetchErr != nil {
		return rxnav.InteractionSet{}, m.fetchErr
	}
	if set, ok := m.sets[ids]; ok {
		return set, nil
	}
	return rxnav.InteractionSet{Status: rxnav.Empty}, nil
}

func (m *mockPharma) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	return c
}

func TestLookupStaticHitSkipsCollaborator(t *testing.T) {
	pharma := &mockPharma{}
	svc := NewService(newCatalog(t), pharma)

	res := svc.Lookup(context.Background(), "Cocaine", "Alcohol")

	if res.Kind != KindStatic || !res.Found() {
		t.Fatalf("Lookup = %+v, want static", res)
	}
	if res.Record.Severity() != severity.Severe {
		t.Errorf("severity = %s, want severe", res.Record.Severity())
	}
	if res.Finding != FindingDocumented {
		t.Errorf("finding = %s", res.Finding)
	}
	if pharma.calls() != 0 {
		t.Errorf("collaborator called %d times on a static hit", pharma.calls())
	}
}

func TestLookupStaticIsBidirectional(t *testing.T) {
	svc := NewService(newCatalog(t), nil)

	ab := svc.Lookup(context.Background(), "Warfarin", "Aspirin")
	ba := svc.Lookup(context.Background(), "aspirin", "WARFARIN")

	if ab.Kind != KindStatic || ba.Kind != KindStatic {
		t.Fatalf("kinds = %s, %s", ab.Kind, ba.Kind)
	}
	if ab.Record.Severity() != severity.Severe || ab.Record.Mechanism != ba.Record.Mechanism {
		t.Errorf("records differ: %+v vs %+v", ab.Record, ba.Record)
	}
}

func TestLookupExternalNoneDocumented(t *testing.T) {
	pharma := &mockPharma{ids: map[string]string{"ibuprofen": "5640", "paracetamol": "161"}}
	svc := NewService(newCatalog(t), pharma)

	res := svc.Lookup(context.Background(), "Ibuprofen", "Paracetamol")

	if res.Kind != KindExternal || !res.Found() {
		t.Fatalf("Lookup = %+v, want external", res)
	}
	if res.Finding != FindingNoneRecorded {
		t.Errorf("finding = %s, want no-interaction-documented", res.Finding)
	}
	if res.Record.Severity() != severity.None {
		t.Errorf("severity = %s, want none", res.Record.Severity())
	}
	if len(res.Record.Sources) != 1 || !res.Record.Sources[0].IsClinical() {
		t.Errorf("sources = %+v", res.Record.Sources)
	}
}

func TestLookupExternalPicksFirstMostSevere(t *testing.T) {
	pharma := &mockPharma{
		ids: map[string]string{"drug a": "1", "drug b": "2"},
		sets: map[[2]string]rxnav.InteractionSet{
			{"1", "2"}: {Status: rxnav.Found, Pairs: []rxnav.Pair{
				{Severity: "minor", Description: "first minor"},
				{Severity: "major", Description: "first major"},
				{Severity: "moderate", Description: "moderate"},
				{Severity: "high", Description: "second major"},
			}},
		},
	}
	svc := NewService(nil, pharma)

	res := svc.Lookup(context.Background(), "Drug A", "Drug B")

	if res.Kind != KindExternal {
		t.Fatalf("kind = %s", res.Kind)
	}
	if res.Record.Severity() != severity.Severe || res.Record.ClinicalNote != "first major" {
		t.Errorf("picked %s %q, want the first severe pair", res.Record.Severity(), res.Record.ClinicalNote)
	}
}

func TestLookupExternalUnrecognisedSeverityIsModerate(t *testing.T) {
	pharma := &mockPharma{
		ids: map[string]string{"x": "1", "y": "2"},
		sets: map[[2]string]rxnav.InteractionSet{
			{"1", "2"}: {Status: rxnav.Found, Pairs: []rxnav.Pair{{Severity: "N/A", Description: "documented"}}},
		},
	}
	res := NewService(nil, pharma).Lookup(context.Background(), "x", "y")

	if res.Record == nil || res.Record.Classification.Tag != severity.TagUnknown || res.Record.Severity() != severity.Moderate {
		t.Errorf("Lookup = %+v, want moderate risk-unknown", res.Record)
	}
}

func TestLookupNotFoundReasons(t *testing.T) {
	ids := map[string]string{"ibuprofen": "5640"}

	tests := []struct {
		name   string
		pharma *mockPharma
		a, b   string
		reason Reason
	}{
		{"both unknown", &mockPharma{ids: ids}, "Qwxyzzy", "AlsoFake", ReasonUnresolvedBoth},
		{"one unknown", &mockPharma{ids: ids}, "Ibuprofen", "AlsoFake", ReasonUnresolvedOne},
		{"resolve error", &mockPharma{resolveErr: errors.New("503")}, "Ibuprofen", "Paracetamol", ReasonCollaboratorError},
		{"fetch error", &mockPharma{ids: map[string]string{"ibuprofen": "1", "paracetamol": "2"}, fetchErr: errors.New("malformed")}, "Ibuprofen", "Paracetamol", ReasonCollaboratorError},
		{"empty name", &mockPharma{}, "  ", "Alcohol", ReasonEmptyName},
		{"same substance", &mockPharma{}, "Alcohol", " alcohol ", ReasonSameSubstance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewService(newCatalog(t), tt.pharma).Lookup(context.Background(), tt.a, tt.b)

			if res.Kind != KindNotFound || res.Found() || res.Record != nil {
				t.Fatalf("Lookup = %+v, want not-found", res)
			}
			if res.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", res.Reason, tt.reason)
			}
		})
	}
}

func TestLookupUnresolvedSkipsFetch(t *testing.T) {
	pharma := &mockPharma{}
	NewService(nil, pharma).Lookup(context.Background(), "Qwxyzzy", "AlsoFake")

	if pharma.fetchCalls.Load() != 0 {
		t.Error("interaction fetch must not run when a name is unresolved")
	}
}

func TestLookupResolvesConcurrently(t *testing.T) {
	pharma := &mockPharma{
		ids:          map[string]string{"a": "1", "b": "2"},
		resolveDelay: 50 * time.Millisecond,
	}
	NewService(nil, pharma).Lookup(context.Background(), "a", "b")

	if pharma.maxConcurrent.Load() != 2 {
		t.Errorf("max concurrent resolutions = %d, want 2", pharma.maxConcurrent.Load())
	}
}

func TestLookupTimeoutIsNotFound(t *testing.T) {
	pharma := &mockPharma{
		ids:          map[string]string{"a": "1", "b": "2"},
		resolveDelay: time.Second,
	}
	svc := NewService(nil, pharma, WithTimeout(20*time.Millisecond))

	start := time.Now()
	res := svc.Lookup(context.Background(), "a", "b")

	if res.Kind != KindNotFound || res.Reason != ReasonCollaboratorError {
		t.Errorf("Lookup = %+v, want not-found collaborator-error", res)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("lookup took %s, timeout not honoured", time.Since(start))
	}
}

func TestLookupWithoutCollaborator(t *testing.T) {
	res := NewService(newCatalog(t), nil).Lookup(context.Background(), "Ibuprofen", "Paracetamol")
	if res.Kind != KindNotFound {
		t.Errorf("Lookup = %+v, want not-found", res)
	}
}

func TestResultVariantsAreDistinct(t *testing.T) {
	pharma := &mockPharma{ids: map[string]string{"ibuprofen": "5640", "paracetamol": "161"}}
	svc := NewService(newCatalog(t), pharma)

	static := svc.Lookup(context.Background(), "Cocaine", "Alcohol")
	none := svc.Lookup(context.Background(), "Ibuprofen", "Paracetamol")
	missing := svc.Lookup(context.Background(), "Qwxyzzy", "AlsoFake")

	if static.Kind == none.Kind || none.Kind == missing.Kind || static.Kind == missing.Kind {
		t.Errorf("kinds overlap: %s %s %s", static.Kind, none.Kind, missing.Kind)
	}
	if none.Finding == static.Finding {
		t.Error("a none-documented finding must differ from a documented one")
	}
}

func TestExternalRecordCarriesSourceName(t *testing.T) {
	rec, finding := externalRecord("a", "b", rxnav.InteractionSet{
		Status: rxnav.Found,
		Pairs:  []rxnav.Pair{{Severity: "high", Description: "bleeding", Source: "DrugBank"}},
	})

	if finding != FindingDocumented {
		t.Errorf("finding = %s, want documented", finding)
	}

	if rec.Sources[0].Type != entities.SourceGovernmental || rec.Sources[0].Title == pharmaSource.Title {
		t.Errorf("source = %+v", rec.Sources[0])
	}
	if rec.SubstanceA != "a" || rec.SubstanceB != "b" {
		t.Errorf("names = %s, %s", rec.SubstanceA, rec.SubstanceB)
	}
}

func TestLookupStaticNoneSeverityIsDocumented(t *testing.T) {
	c, err := catalog.Load([]byte(`
sources:
  nih:
    name: NIH
    institution: National Institutes of Health
    type: governmental
    title: Drug facts
substances:
  - name: Caffeine
    category: stimulant
    risk_level: mild
    summary: test
    sources: [nih]
  - name: Water
    category: other
    risk_level: none
    summary: test
    sources: [nih]
interactions:
  - a: Caffeine
    b: Water
    severity: none
    mechanism: none known
    sources: [nih]
`))
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}

	res := NewService(c, nil).Lookup(context.Background(), "Water", "Caffeine")
	if res.Kind != KindStatic || res.Record.Severity() != severity.None {
		t.Fatalf("Lookup = %+v, want static none", res)
	}
	if res.Finding != FindingDocumented {
		t.Errorf("finding = %s, a curated record is always documented", res.Finding)
	}
}
