package human

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite-backed human repository.
// The humans table must already exist (see the migrations package).
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// FindByID returns a single human by ID.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*Human, error) {
	const query = `SELECT id, name, appears_in, home_planet FROM humans WHERE id = ?`

	var h Human
	var appearsIn string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.Name, &appearsIn, &h.HomePlanet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying human %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(appearsIn), &h.AppearsIn); err != nil {
		return nil, fmt.Errorf("decoding appears_in for human %s: %w", id, err)
	}
	if h.AppearsIn == nil {
		h.AppearsIn = []Episode{}
	}
	return &h, nil
}

// Insert validates the input, assigns a UUID and stores the human.
func (r *SQLiteRepository) Insert(ctx context.Context, n NewHuman) (*Human, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	h := n.Build(uuid.NewString())
	if h.AppearsIn == nil {
		h.AppearsIn = []Episode{}
	}
	appearsIn, err := json.Marshal(h.AppearsIn)
	if err != nil {
		return nil, fmt.Errorf("encoding appears_in: %w", err)
	}

	const query = `INSERT INTO humans (id, name, appears_in, home_planet, created_at)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		h.ID, h.Name, string(appearsIn), h.HomePlanet,
		r.now().UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("inserting human %s: %w", h.ID, err)
	}
	return &h, nil
}
