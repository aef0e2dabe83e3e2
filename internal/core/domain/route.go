package domain

// Route is the classifier's verdict on where a query should go.
type Route int

const (
	// KnowledgeLookup routes the query to vector retrieval over the
	// knowledge domains. This is the default route.
	KnowledgeLookup Route = iota

	// TabularLookup routes the query to the structured record store.
	TabularLookup
)

// String returns a human-readable route name.
func (r Route) String() string {
	switch r {
	case TabularLookup:
		return "tabular"
	default:
		return "knowledge"
	}
}

// RouteDecision is the outcome of classifying a query. The classifier
// is a heuristic: false routes are expected and the pipeline degrades
// gracefully (a tabular miss falls back to knowledge retrieval).
type RouteDecision struct {
	// Route is the chosen destination.
	Route Route

	// Confidence is the classifier's confidence in [0, 1] that the
	// query wants a structured record lookup.
	Confidence float64
}
