package property

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads and writes properties in Postgres.
type PostgresRepository struct {
	db rowQuerier
}

// NewPostgresRepository creates a repository backed by a pgx pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("property: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db rowQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectProperty = `
	SELECT id, code, name, address,
		COALESCE(wifi_name, ''), COALESCE(wifi_password, ''),
		COALESCE(check_in_time, ''), COALESCE(check_out_time, ''),
		COALESCE(parking_instructions, ''), COALESCE(access_instructions, ''),
		COALESCE(emergency_contact, ''), COALESCE(house_rules, ''),
		COALESCE(amenities, '{}'),
		COALESCE(knowledge_base, ''), COALESCE(local_recommendations, ''), COALESCE(special_notes, ''),
		updated_at
	FROM properties`

// GetByCode loads the property a guest identified with a code.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*Property, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}
	return r.get(ctx, selectProperty+` WHERE code = $1`, code)
}

// GetByID loads a property by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Property, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return r.get(ctx, selectProperty+` WHERE id = $1`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg string) (*Property, error) {
	var p Property
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Code, &p.Name, &p.Address,
		&p.WifiName, &p.WifiPassword,
		&p.CheckInTime, &p.CheckOutTime,
		&p.ParkingInstructions, &p.AccessInstructions,
		&p.EmergencyContact, &p.HouseRules,
		&p.Amenities,
		&p.KnowledgeBase, &p.LocalRecommendations, &p.SpecialNotes,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("property: load: %w", err)
	}
	p.Hydrate()
	return &p, nil
}

// Upsert inserts or replaces a property keyed by id.
func (r *PostgresRepository) Upsert(ctx context.Context, p *Property) error {
	if p == nil || strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Code) == "" {
		return errors.New("property: id and code required")
	}
	query := `
		INSERT INTO properties (
			id, code, name, address, wifi_name, wifi_password, check_in_time, check_out_time,
			parking_instructions, access_instructions, emergency_contact, house_rules, amenities,
			knowledge_base, local_recommendations, special_notes, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			wifi_name = EXCLUDED.wifi_name,
			wifi_password = EXCLUDED.wifi_password,
			check_in_time = EXCLUDED.check_in_time,
			check_out_time = EXCLUDED.check_out_time,
			parking_instructions = EXCLUDED.parking_instructions,
			access_instructions = EXCLUDED.access_instructions,
			emergency_contact = EXCLUDED.emergency_contact,
			house_rules = EXCLUDED.house_rules,
			amenities = EXCLUDED.amenities,
			knowledge_base = EXCLUDED.knowledge_base,
			local_recommendations = EXCLUDED.local_recommendations,
			special_notes = EXCLUDED.special_notes,
			updated_at = NOW()
	`
	amenities := p.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		p.ID, p.Code, p.Name, p.Address, p.WifiName, p.WifiPassword, p.CheckInTime, p.CheckOutTime,
		p.ParkingInstructions, p.AccessInstructions, p.EmergencyContact, p.HouseRules, amenities,
		p.KnowledgeBase, p.LocalRecommendations, p.SpecialNotes,
	)
	if err != nil {
		return fmt.Errorf("property: upsert: %w", err)
	}
	return nil
}
