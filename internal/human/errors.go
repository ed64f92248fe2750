package human

import "errors"

var (
	// ErrNotFound is returned when a human ID does not exist.
	ErrNotFound = errors.New("human not found")

	// ErrInvalidName is returned when a name is empty or too long.
	ErrInvalidName = errors.New("invalid human name")

	// ErrInvalidHomePlanet is returned when a home planet is empty or too long.
	ErrInvalidHomePlanet = errors.New("invalid home planet")

	// ErrInvalidEpisode is returned for an episode name outside the enum.
	ErrInvalidEpisode = errors.New("invalid episode")
)
