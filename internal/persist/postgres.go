package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jakecoffman/cp"
)

// PostgresBackend keeps the game state of one save slot in the game_state and
// resource_state tables.
type PostgresBackend struct {
	db   *DB
	slot string
}

func NewPostgresBackend(db *DB, slot string) *PostgresBackend {
	return &PostgresBackend{db: db, slot: slot}
}

func (b *PostgresBackend) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Resources: make(map[Key][]byte)}
	var heroX, heroY *float64
	err := b.db.Pool.QueryRow(ctx,
		`SELECT current_level, player_number, hero_x, hero_y,
		        volume_master, volume_bgm, volume_sfx
		 FROM game_state WHERE slot = $1`, b.slot,
	).Scan(&snap.CurrentLevel, &snap.PlayerNumber, &heroX, &heroY,
		&snap.Volumes.Master, &snap.Volumes.BGM, &snap.Volumes.SFX)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("load game_state %s: %w", b.slot, err)
	}
	if heroX != nil && heroY != nil {
		snap.LastHeroPos = &cp.Vector{X: *heroX, Y: *heroY}
	}

	rows, err := b.db.Pool.Query(ctx,
		`SELECT owner, tag, value FROM resource_state WHERE slot = $1`, b.slot)
	if err != nil {
		return nil, fmt.Errorf("load resource_state %s: %w", b.slot, err)
	}
	defer rows.Close()
	for rows.Next() {
		var k Key
		var value string
		if err := rows.Scan(&k.Owner, &k.Tag, &value); err != nil {
			return nil, fmt.Errorf("scan resource_state: %w", err)
		}
		snap.Resources[k] = []byte(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource_state: %w", err)
	}
	return snap, nil
}

// Save replaces the slot's rows in one transaction.
func (b *PostgresBackend) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := b.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var heroX, heroY *float64
	if p := snap.LastHeroPos; p != nil {
		heroX, heroY = &p.X, &p.Y
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO game_state (slot, current_level, player_number, hero_x, hero_y,
		                         volume_master, volume_bgm, volume_sfx, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 ON CONFLICT (slot) DO UPDATE SET
		   current_level = EXCLUDED.current_level,
		   player_number = EXCLUDED.player_number,
		   hero_x = EXCLUDED.hero_x,
		   hero_y = EXCLUDED.hero_y,
		   volume_master = EXCLUDED.volume_master,
		   volume_bgm = EXCLUDED.volume_bgm,
		   volume_sfx = EXCLUDED.volume_sfx,
		   updated_at = NOW()`,
		b.slot, snap.CurrentLevel, snap.PlayerNumber, heroX, heroY,
		snap.Volumes.Master, snap.Volumes.BGM, snap.Volumes.SFX,
	); err != nil {
		return fmt.Errorf("upsert game_state: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM resource_state WHERE slot = $1`, b.slot); err != nil {
		return fmt.Errorf("clear resource_state: %w", err)
	}
	if len(snap.Resources) > 0 {
		batch := &pgx.Batch{}
		for k, v := range snap.Resources {
			batch.Queue(
				`INSERT INTO resource_state (slot, owner, tag, value) VALUES ($1, $2, $3, $4)`,
				b.slot, k.Owner, k.Tag, string(v))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert resource_state: %w", err)
		}
	}

	return tx.Commit(ctx)
}
