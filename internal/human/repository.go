package human

import "context"

// Repository defines the persistence operations behind the GraphQL resolvers.
type Repository interface {
	// FindByID returns the human with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Human, error)

	// Insert stores a new human and returns it with its assigned id.
	Insert(ctx context.Context, n NewHuman) (*Human, error)
}

// StubID is the id StubRepository assigns to every inserted human.
const StubID = "generated-id"

// StubRepository is a stateless Repository returning canned data.
type StubRepository struct{}

// NewStubRepository creates a StubRepository.
func NewStubRepository() *StubRepository {
	return &StubRepository{}
}

// FindByID returns Luke Skywalker under whatever id was asked for.
func (StubRepository) FindByID(_ context.Context, id string) (*Human, error) {
	return &Human{
		ID:         id,
		Name:       "Luke Skywalker",
		AppearsIn:  []Episode{EpisodeNewHope, EpisodeEmpire, EpisodeJedi},
		HomePlanet: "Tatooine",
	}, nil
}

// Insert echoes the input back under StubID.
func (StubRepository) Insert(_ context.Context, n NewHuman) (*Human, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	h := n.Build(StubID)
	return &h, nil
}
