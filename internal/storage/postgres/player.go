package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/realmd/internal/core"
	"github.com/cory-johannsen/realmd/internal/game/catalog"
)

// Player is the full persisted character record, including inventory rows.
type Player struct {
	ID         string
	AccountID  string
	Name       string
	ClassID    string
	RaceID     string
	LocationID string
	Level      int
	XP         int
	Currency   int
	HP, MaxHP  int
	MP, MaxMP  int
	Stats      catalog.Stats
	Items      []core.ItemRecord
}

// PlayerStore persists characters. It implements core.PlayerStore.
type PlayerStore struct {
	pool *pgxpool.Pool
}

// NewPlayerStore creates a PlayerStore over the pool.
func NewPlayerStore(pool *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

var _ core.PlayerStore = (*PlayerStore)(nil)

// Create inserts a new character row.
//
// Precondition: p.AccountID must reference an existing account.
// Postcondition: p.ID is populated; returns ErrDuplicateName when the
// character name is taken.
func (s *PlayerStore) Create(ctx context.Context, p *Player) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO players (
			account_id, name, class_id, race_id, location_id,
			level, xp, currency, hp, max_hp, mp, max_mp,
			might, agility, vitality, intellect, perception
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		 RETURNING id`,
		p.AccountID, p.Name, p.ClassID, p.RaceID, p.LocationID,
		p.Level, p.XP, p.Currency, p.HP, p.MaxHP, p.MP, p.MaxMP,
		p.Stats.Might, p.Stats.Agility, p.Stats.Vitality, p.Stats.Intellect, p.Stats.Perception,
	).Scan(&p.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return fmt.Errorf("inserting player %q: %w", p.Name, err)
	}
	return nil
}

// Load reads one character and its inventory by account and character name.
//
// Postcondition: Returns the player, or ErrPlayerNotFound.
func (s *PlayerStore) Load(ctx context.Context, accountID, name string) (*Player, error) {
	var p Player
	err := s.pool.QueryRow(ctx,
		`SELECT id, account_id, name, class_id, race_id, location_id,
		        level, xp, currency, hp, max_hp, mp, max_mp,
		        might, agility, vitality, intellect, perception
		 FROM players
		 WHERE account_id = $1 AND name = $2`,
		accountID, name,
	).Scan(
		&p.ID, &p.AccountID, &p.Name, &p.ClassID, &p.RaceID, &p.LocationID,
		&p.Level, &p.XP, &p.Currency, &p.HP, &p.MaxHP, &p.MP, &p.MaxMP,
		&p.Stats.Might, &p.Stats.Agility, &p.Stats.Vitality, &p.Stats.Intellect, &p.Stats.Perception,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying player %q: %w", name, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT item_id, quantity, slot
		 FROM player_items
		 WHERE player_id = $1
		 ORDER BY item_id, slot`,
		p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying inventory for %q: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var rec core.ItemRecord
		if err := rows.Scan(&rec.ItemID, &rec.Quantity, &rec.Slot); err != nil {
			return nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		p.Items = append(p.Items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading inventory rows: %w", err)
	}
	return &p, nil
}

// SaveState writes the scalar player columns.
//
// Postcondition: Returns ErrPlayerNotFound when the row no longer exists.
func (s *PlayerStore) SaveState(ctx context.Context, snap core.PlayerSnapshot) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE players SET
			location_id = $2, level = $3, xp = $4, currency = $5,
			hp = $6, max_hp = $7, mp = $8, max_mp = $9,
			might = $10, agility = $11, vitality = $12, intellect = $13, perception = $14,
			updated_at = now()
		 WHERE id = $1`,
		snap.UID, snap.LocationID, snap.Level, snap.XP, snap.Currency,
		snap.HP, snap.MaxHP, snap.MP, snap.MaxMP,
		snap.Stats.Might, snap.Stats.Agility, snap.Stats.Vitality, snap.Stats.Intellect, snap.Stats.Perception,
	)
	if err != nil {
		return fmt.Errorf("updating player %q: %w", snap.UID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// SaveInventory replaces the player's inventory rows in one transaction.
func (s *PlayerStore) SaveInventory(ctx context.Context, uid string, items []core.ItemRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning inventory tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM player_items WHERE player_id = $1`, uid); err != nil {
		return fmt.Errorf("clearing inventory for %q: %w", uid, err)
	}

	batch := &pgx.Batch{}
	for _, rec := range items {
		batch.Queue(
			`INSERT INTO player_items (player_id, item_id, quantity, slot)
			 VALUES ($1, $2, $3, $4)`,
			uid, rec.ItemID, rec.Quantity, rec.Slot,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("writing inventory for %q: %w", uid, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing inventory for %q: %w", uid, err)
	}
	return nil
}
