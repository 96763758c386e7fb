// Package sqlite is the durable TierlistRepository, backed by the pure-Go
// "modernc.org/sqlite" driver so the binary builds without cgo.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
	"tiernow/internal/domain/entities"
	"tiernow/internal/repository"
)

//go:embed schema.sql
var schema string

// TierlistRepository stores tierlists in a single SQLite file.
//
// The pool is capped at one connection. SQLite serializes writers anyway, and
// one connection makes each transaction below exclusive without retrying on
// SQLITE_BUSY.
type TierlistRepository struct {
	db *sql.DB
}

var _ repository.TierlistRepository = (*TierlistRepository)(nil)

// Open creates the parent directory, opens the database at path and applies
// the schema. The schema uses IF NOT EXISTS throughout, so reopening an
// existing file is a no-op.
func Open(path string) (*TierlistRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &TierlistRepository{db: db}, nil
}

func (r *TierlistRepository) Close() error {
	return r.db.Close()
}

func (r *TierlistRepository) Create(ctx context.Context, tl *entities.Tierlist) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO tierlists (uuid, name, created_at) VALUES (?, ?, ?) ON CONFLICT(uuid) DO NOTHING`,
		tl.UUID, tl.Name, formatTime(tl.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert tierlist: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return repository.ErrTierlistExists
	}

	tiers := make([]*entities.Tier, 0, len(entities.DefaultTierNames))
	for i, name := range entities.DefaultTierNames {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tiers (tierlist_uuid, name, "order") VALUES (?, ?, ?)`,
			tl.UUID, name, i)
		if err != nil {
			return fmt.Errorf("insert tier %s: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		tiers = append(tiers, &entities.Tier{ID: id, TierlistUUID: tl.UUID, Name: name, Order: int64(i)})
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	tl.Tiers = tiers
	return nil
}

func (r *TierlistRepository) GetByUUID(ctx context.Context, uuid string) (*entities.Tierlist, error) {
	var (
		tl      entities.Tierlist
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT uuid, name, created_at FROM tierlists WHERE uuid = ?`, uuid,
	).Scan(&tl.UUID, &tl.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrTierlistNotFound
	}
	if err != nil {
		return nil, err
	}
	if tl.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tierlist_uuid, name, "order" FROM tiers WHERE tierlist_uuid = ? ORDER BY "order", id`, uuid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tl.Tiers = []*entities.Tier{}
	for rows.Next() {
		var tier entities.Tier
		if err := rows.Scan(&tier.ID, &tier.TierlistUUID, &tier.Name, &tier.Order); err != nil {
			return nil, err
		}
		tl.Tiers = append(tl.Tiers, &tier)
	}
	return &tl, rows.Err()
}

func (r *TierlistRepository) GetTier(ctx context.Context, id int64) (*entities.Tier, error) {
	var tier entities.Tier
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tierlist_uuid, name, "order" FROM tiers WHERE id = ?`, id,
	).Scan(&tier.ID, &tier.TierlistUUID, &tier.Name, &tier.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrTierNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *TierlistRepository) CreateImage(ctx context.Context, img *entities.Image) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err := exists(ctx, tx, `SELECT 1 FROM tierlists WHERE uuid = ?`, img.TierlistUUID, repository.ErrTierlistNotFound); err != nil {
		return err
	}

	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO images (tierlist_uuid, file_key, content_type, tier_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		img.TierlistUUID, img.FileKey, img.ContentType, nullInt(img.TierID), formatTime(img.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	img.ID = id
	return nil
}

const imageColumns = `id, tierlist_uuid, file_key, content_type, tier_id, created_at`

func (r *TierlistRepository) GetImage(ctx context.Context, id int64) (*entities.Image, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrImageNotFound
	}
	return img, err
}

func (r *TierlistRepository) ListImages(ctx context.Context, tierlistUUID string) ([]*entities.Image, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE tierlist_uuid = ? ORDER BY id`, tierlistUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []*entities.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *TierlistRepository) SetImageTier(ctx context.Context, imageID int64, tierID *int64) (img *entities.Image, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err := exists(ctx, tx, `SELECT 1 FROM images WHERE id = ?`, imageID, repository.ErrImageNotFound); err != nil {
		return nil, err
	}
	if tierID != nil {
		if err := exists(ctx, tx, `SELECT 1 FROM tiers WHERE id = ?`, *tierID, repository.ErrTierNotFound); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE images SET tier_id = ? WHERE id = ?`, nullInt(tierID), imageID); err != nil {
		return nil, fmt.Errorf("update image tier: %w", err)
	}
	img, err = scanImage(tx.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, imageID))
	if err != nil {
		return nil, err
	}
	return img, tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*entities.Image, error) {
	var (
		img     entities.Image
		tierID  sql.NullInt64
		created string
	)
	if err := row.Scan(&img.ID, &img.TierlistUUID, &img.FileKey, &img.ContentType, &tierID, &created); err != nil {
		return nil, err
	}
	if tierID.Valid {
		img.Assign(&tierID.Int64)
	}
	var err error
	if img.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &img, nil
}

func exists(ctx context.Context, tx *sql.Tx, query string, arg any, notFound error) error {
	var one int
	err := tx.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
