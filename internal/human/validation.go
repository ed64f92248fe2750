package human

import (
	"fmt"
	"strings"
)

const (
	maxNameLength   = 100
	maxPlanetLength = 100
)

// Validate checks a NewHuman before it is written.
func (n NewHuman) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(n.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	if strings.TrimSpace(n.HomePlanet) == "" {
		return fmt.Errorf("%w: home planet cannot be empty", ErrInvalidHomePlanet)
	}
	if len(n.HomePlanet) > maxPlanetLength {
		return fmt.Errorf("%w: home planet exceeds %d characters", ErrInvalidHomePlanet, maxPlanetLength)
	}
	for _, e := range n.AppearsIn {
		if _, err := ParseEpisode(string(e)); err != nil {
			return err
		}
	}
	return nil
}
