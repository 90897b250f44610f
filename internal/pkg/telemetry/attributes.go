package telemetry

// Span attribute keys.
const (
	AttrCandidates = "finder.candidates"
	AttrMatches    = "finder.matches"
	AttrSource     = "dataset.source"
	AttrImported   = "dataset.imported"
)
