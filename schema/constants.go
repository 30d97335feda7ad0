package schema

// Custom string types for type safety.
type (
	// Kind represents which series a run belongs to.
	Kind string

	// Edge represents which end of a series a boundary query resolves against.
	Edge string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// Trend represents the direction of a percent change.
	Trend string
)

// All run kinds supported.
const (
	FullCompilerKind Kind = "rustc" // default
	BenchmarkKind    Kind = "benchmarks"
)

// All boundary edges supported.
const (
	StartEdge Edge = "start" // default
	EndEdge   Edge = "end"
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All trends supported.
const (
	RegressionTrend  Trend = "regression"
	ImprovementTrend Trend = "improvement"
	StableTrend      Trend = "stable"
)

// TotalName is the name of the synthetic crate and phase holding aggregate figures.
const TotalName = "total"

// WeeksInSummary is the number of weekly points in a summary.
const WeeksInSummary = 12

// AllKinds returns a list of all supported run kinds.
var AllKinds = []Kind{FullCompilerKind, BenchmarkKind}

// ValidKinds lists all valid run kinds.
var ValidKinds = map[Kind]struct{}{
	FullCompilerKind: {},
	BenchmarkKind:    {},
}

// ValidEdges lists all valid boundary edges.
var ValidEdges = map[Edge]struct{}{
	StartEdge: {},
	EndEdge:   {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
