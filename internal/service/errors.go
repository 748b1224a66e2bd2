package service

import "errors"

var (
	// ErrNoAccessibleServers is returned by every builder when the user's
	// filtered server list comes out empty. Callers translate it into an
	// access-denied response; an empty document is never produced.
	ErrNoAccessibleServers = errors.New("user has no access to any servers")

	// ErrInvalidTemplate is returned when a template has the wrong
	// fundamental shape for its builder (YAML root that is not a mapping).
	ErrInvalidTemplate = errors.New("template has invalid shape")

	// ErrUnknownFormat is returned by the orchestrator for an unrecognized
	// output format.
	ErrUnknownFormat = errors.New("unknown config format")
)
