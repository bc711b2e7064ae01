package interactions

import (
	"github.com/qubesight-bit/gosafe.lat-sub000/catalog/entities"
	"github.com/qubesight-bit/gosafe.lat-sub000/severity"
)

// Kind says where a lookup result came from.
type Kind string

const (
	KindStatic   Kind = "static"
	KindExternal Kind = "external"
	KindNotFound Kind = "not-found"
)

// Finding separates "an interaction is documented" from the positive
// finding that both substances are known and nothing is documented.
type Finding string

const (
	FindingDocumented   Finding = "interaction-documented"
	FindingNoneRecorded Finding = "no-interaction-documented"
)

// Reason records why a lookup ended as not-found. It stays internal to the
// service; callers only see the not-found kind.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonEmptyName         Reason = "empty-name"
	ReasonSameSubstance     Reason = "same-substance"
	ReasonUnresolvedBoth    Reason = "unresolved-both"
	ReasonUnresolvedOne     Reason = "unresolved-one"
	ReasonCollaboratorError Reason = "collaborator-error"
)

// Result is the outcome of Lookup. Record is set for static and external
// results and nil for not-found.
type Result struct {
	Kind    Kind                        `json:"kind"`
	Record  *entities.InteractionRecord `json:"record,omitempty"`
	Finding Finding                     `json:"finding,omitempty"`
	Reason  Reason                      `json:"-"`
}

// Found reports whether the result carries a record.
func (r Result) Found() bool {
	return r.Kind != KindNotFound && r.Record != nil
}

func notFound(reason Reason) Result {
	return Result{Kind: KindNotFound, Reason: reason}
}

func found(kind Kind, rec entities.InteractionRecord, finding Finding) Result {
	return Result{Kind: kind, Record: &rec, Finding: finding}
}

// ComboReason records why a combination check found nothing.
type ComboReason string

const (
	ComboReasonNone              ComboReason = ""
	ComboReasonEmptyName         ComboReason = "empty-name"
	ComboReasonSameSubstance     ComboReason = "same-substance"
	ComboReasonNotListed         ComboReason = "not-listed"
	ComboReasonCollaboratorError ComboReason = "collaborator-error"
)

// ComboResult is the outcome of CheckCombo.
type ComboResult struct {
	Found          bool                     `json:"found"`
	SubstanceA     string                   `json:"substance_a"`
	SubstanceB     string                   `json:"substance_b"`
	Status         string                   `json:"status,omitempty"`
	Classification *severity.Classification `json:"classification,omitempty"`
	Note           string                   `json:"note,omitempty"`
	Source         *entities.Source         `json:"source,omitempty"`
	Reason         ComboReason              `json:"-"`
}
