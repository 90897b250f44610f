package natsadapter

import "strings"

const (
	// StreamCenters holds every centers.* event.
	StreamCenters = "CENTERS"

	SubjectLocationPrefix = "centers.location."
	SubjectDatasetUpdated = "centers.dataset.updated"

	anonymousSession = "anonymous"
)

// LocationSubject returns the subject a session's location events go to.
// Characters NATS treats as token separators or wildcards are replaced.
func LocationSubject(sessionID string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, sessionID)
	if token == "" {
		token = anonymousSession
	}
	return SubjectLocationPrefix + token
}
