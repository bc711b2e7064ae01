package suggest

// NameSource provides the master name list suggestions are drawn from.
type NameSource interface {
	GetNames() []string
}

// Resolver binds Suggest to a live master name list and a default limit.
type Resolver struct {
	source     NameSource
	defaultMax int
}

// NewResolver creates a resolver. A non-positive defaultMax falls back to 5.
func NewResolver(source NameSource, defaultMax int) *Resolver {
	if defaultMax <= 0 {
		defaultMax = 5
	}
	return &Resolver{source: source, defaultMax: defaultMax}
}

// Suggest ranks the master name list for query. max <= 0 uses the default.
func (r *Resolver) Suggest(query string, max int) []string {
	if max <= 0 {
		max = r.defaultMax
	}
	return Suggest(query, r.source.GetNames(), max)
}
