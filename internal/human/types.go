package human

import (
	"fmt"
	"slices"
)

// Episode is one of the original trilogy films.
type Episode string

// Episode values. The string form is the GraphQL enum value.
const (
	EpisodeNewHope Episode = "NEW_HOPE"
	EpisodeEmpire  Episode = "EMPIRE"
	EpisodeJedi    Episode = "JEDI"
)

// AllEpisodes lists every Episode in release order.
var AllEpisodes = []Episode{EpisodeNewHope, EpisodeEmpire, EpisodeJedi}

// ParseEpisode converts an enum value name to an Episode.
func ParseEpisode(s string) (Episode, error) {
	e := Episode(s)
	if !slices.Contains(AllEpisodes, e) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEpisode, s)
	}
	return e, nil
}

// Human is a person in the Star Wars universe.
type Human struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AppearsIn  []Episode `json:"appearsIn"`
	HomePlanet string    `json:"homePlanet"`
}

// Clone returns a deep copy of h.
func (h Human) Clone() Human {
	h.AppearsIn = slices.Clone(h.AppearsIn)
	return h
}

// NewHuman is the input to a create operation.
type NewHuman struct {
	Name       string
	AppearsIn  []Episode
	HomePlanet string
}

// Build returns the Human for this input under the given id.
func (n NewHuman) Build(id string) Human {
	return Human{
		ID:         id,
		Name:       n.Name,
		AppearsIn:  slices.Clone(n.AppearsIn),
		HomePlanet: n.HomePlanet,
	}
}
