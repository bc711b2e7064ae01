// Package interfaces defines the contracts between the lookup service's
// components so each can be replaced by a mock in tests.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/qubesight-bit/gosafe.lat-sub000/catalog"
	"github.com/qubesight-bit/gosafe.lat-sub000/catalog/entities"
	"github.com/qubesight-bit/gosafe.lat-sub000/rxnav"
	"github.com/qubesight-bit/gosafe.lat-sub000/tripsit"
)

// CatalogQualityReport summarises problems found in the curated catalog.
type CatalogQualityReport struct {
	SubstancesWithoutSources   []string
	InteractionsWithoutSources []string
	AnecdotalOnlyInteractions  []string // clinical claims backed only by anecdotal sources
	UnknownInteractionNames    []string // interaction sides matching no substance profile
	MatrixCoverage             float64  // documented cells / off-diagonal cells
	MissingMatrixCells         int
}

// StaticTable is the curated interaction table consulted before any
// collaborator.
type StaticTable interface {
	FindInteraction(a, b string) (entities.InteractionRecord, bool)
}

// CatalogStore is the read side of the curated catalog served over HTTP.
type CatalogStore interface {
	StaticTable
	Substances() []entities.Substance
	Substance(name string) (entities.Substance, bool)
	Interactions() []entities.InteractionRecord
	Matrix() *catalog.Matrix
	Names() []string
}

// PharmaSource is the pharmaceutical interaction collaborator.
type PharmaSource interface {
	Resolve(ctx context.Context, name string) (rxnav.Resolution, error)
	Interactions(ctx context.Context, ids [2]string) (rxnav.InteractionSet, error)
}

// CommunitySource is the community combination-status collaborator.
type CommunitySource interface {
	Drug(ctx context.Context, name string) (tripsit.Drug, error)
	Combos(ctx context.Context, name string) (map[string]tripsit.Combo, error)
	AllNames(ctx context.Context) ([]string, error)
}

// NameStore holds the master name list used for suggestions. It provides
// thread-safe access with atomic replacement on refresh.
type NameStore interface {
	GetNames() []string
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateNames(names []string, remote int)
	GetRemoteCount() int
	BeginUpdate() bool
	EndUpdate()
}

// Scheduler manages the name list refresh jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler is the HTTP surface of the service.
type HTTPHandler interface {
	LookupInteraction(w http.ResponseWriter, r *http.Request)
	CheckCombo(w http.ResponseWriter, r *http.Request)
	ServeMatrix(w http.ResponseWriter, r *http.Request)
	ServeMatrixCell(w http.ResponseWriter, r *http.Request)
	ServeSubstances(w http.ResponseWriter, r *http.Request)
	ServeSubstance(w http.ResponseWriter, r *http.Request)
	ServeTimeline(w http.ResponseWriter, r *http.Request)
	Suggest(w http.ResponseWriter, r *http.Request)
	Classify(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker computes the health report.
type HealthChecker interface {
	HealthCheck() (status string, data map[string]any, httpStatus int)
	CalculateNextUpdate() time.Time
}

// InputValidator validates user supplied strings.
type InputValidator interface {
	ValidateInput(input string) error
	ValidateName(input string) (string, error)
	ValidateStatus(input string) (string, error)
}
