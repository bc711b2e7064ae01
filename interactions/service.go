// Package interactions answers "how do these two substances interact".
//
// Lookup consults the curated static table first and, when it has nothing,
// the pharmaceutical collaborator. Every failure becomes a not-found result;
// callers never see an error. CheckCombo answers the same question from the
// community combination chart.
package interactions

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qubesight-bit/gosafe.lat-sub000/catalog/entities"
	"github.com/qubesight-bit/gosafe.lat-sub000/interfaces"
	"github.com/qubesight-bit/gosafe.lat-sub000/logging"
	"github.com/qubesight-bit/gosafe.lat-sub000/metrics"
	"github.com/qubesight-bit/gosafe.lat-sub000/names"
	"github.com/qubesight-bit/gosafe.lat-sub000/rxnav"
	"github.com/qubesight-bit/gosafe.lat-sub000/severity"
)

// DefaultTimeout bounds the external part of one lookup.
const DefaultTimeout = 10 * time.Second

// pharmaSource is attached to every record built from the pharmaceutical
// collaborator.
var pharmaSource = entities.Source{
	Name:        "RxNav",
	Institution: "U.S. National Library of Medicine",
	Type:        entities.SourceGovernmental,
	Title:       "RxNav Drug Interaction API",
	URL:         "https://lhncbc.nlm.nih.gov/RxNav/APIs/InteractionAPIs.html",
}

var communitySource = entities.Source{
	Name:        "TripSit",
	Institution: "TripSit",
	Type:        entities.SourceEducational,
	Title:       "TripSit combination chart",
	URL:         "https://combo.tripsit.me",
}

// Service is the interaction lookup orchestrator. It holds no cache; the
// collaborator clients memoise their own lookups.
type Service struct {
	static    interfaces.StaticTable
	pharma    interfaces.PharmaSource
	community interfaces.CommunitySource
	timeout   time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds the external resolution and fetch of one lookup.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCommunity enables CheckCombo.
func WithCommunity(c interfaces.CommunitySource) Option {
	return func(s *Service) { s.community = c }
}

// NewService wires the orchestrator. pharma may be nil, in which case only
// the static table answers.
func NewService(static interfaces.StaticTable, pharma interfaces.PharmaSource, opts ...Option) *Service {
	s := &Service{
		static:  static,
		pharma:  pharma,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the interaction between a and b.
//
// The static table is tried first with bidirectional, relaxed name matching.
// On a miss both names are resolved concurrently against the pharmaceutical
// collaborator and their documented interactions fetched. If several are
// documented the first most severe one is returned. If both names resolve and
// nothing is documented the result is an external record of severity none.
func (s *Service) Lookup(ctx context.Context, a, b string) Result {
	res := s.lookup(ctx, strings.TrimSpace(a), strings.TrimSpace(b))

	reason := string(res.Reason)
	if reason == "" {
		reason = "none"
	}
	metrics.InteractionLookupsTotal.WithLabelValues(string(res.Kind), reason).Inc()

	return res
}

func (s *Service) lookup(ctx context.Context, a, b string) Result {
	if a == "" || b == "" {
		return notFound(ReasonEmptyName)
	}
	if names.Equal(a, b) {
		return notFound(ReasonSameSubstance)
	}

	if s.static != nil {
		if rec, ok := s.static.FindInteraction(a, b); ok {
			return found(KindStatic, rec, FindingDocumented)
		}
	}

	if s.pharma == nil {
		return notFound(ReasonUnresolvedBoth)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var ra, rb rxnav.Resolution
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ra, err = s.pharma.Resolve(gctx, a)
		return err
	})
	g.Go(func() (err error) {
		rb, err = s.pharma.Resolve(gctx, b)
		return err
	})
	if err := g.Wait(); err != nil {
		logging.Warn("Name resolution failed", "a", a, "b", b, "error", err)
		return notFound(ReasonCollaboratorError)
	}

	switch {
	case !ra.IsResolved() && !rb.IsResolved():
		return notFound(ReasonUnresolvedBoth)
	case !ra.IsResolved() || !rb.IsResolved():
		return notFound(ReasonUnresolvedOne)
	}

	set, err := s.pharma.Interactions(ctx, [2]string{ra.ID, rb.ID})
	if err != nil {
		logging.Warn("Interaction fetch failed", "a", a, "b", b, "error", err)
		return notFound(ReasonCollaboratorError)
	}

	rec, finding := externalRecord(a, b, set)
	return found(KindExternal, rec, finding)
}

// externalRecord builds the record for a fetched interaction set.
func externalRecord(a, b string, set rxnav.InteractionSet) (entities.InteractionRecord, Finding) {
	rec := entities.InteractionRecord{
		SubstanceA: a,
		SubstanceB: b,
		Sources:    []entities.Source{pharmaSource},
	}

	if set.Status == rxnav.Empty || len(set.Pairs) == 0 {
		rec.Classification = severity.NoDocumentedInteraction
		rec.ClinicalNote = "No interaction between these substances is documented in the pharmaceutical registry."
		return rec, FindingNoneRecorded
	}

	worst := 0
	worstClass := severity.FromClinicalText(set.Pairs[0].Severity)
	for i := 1; i < len(set.Pairs); i++ {
		c := severity.FromClinicalText(set.Pairs[i].Severity)
		if c.Severity.Compare(worstClass.Severity) > 0 {
			worst, worstClass = i, c
		}
	}

	p := set.Pairs[worst]
	rec.Classification = worstClass
	rec.ClinicalNote = p.Description
	if p.Source != "" {
		src := pharmaSource
		src.Title = "RxNav Drug Interaction API (" + p.Source + ")"
		rec.Sources = []entities.Source{src}
	}
	return rec, FindingDocumented
}
