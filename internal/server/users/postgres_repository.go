package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edavydenko/mylist/internal/common"
	"github.com/edavydenko/mylist/internal/dbx"
	"github.com/edavydenko/mylist/internal/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

const uniqueViolation = "23505"

func getRecord(ctx context.Context, q dbx.DBTX, username string, forUpdate bool) (*models.UserRecord, error) {
	query :=
		`SELECT username, lists, created_at, last_modified FROM users
		 WHERE username = $1
		 `
	if forUpdate {
		query += " FOR UPDATE"
	}

	rec := &models.UserRecord{}
	var lists []byte
	err := q.QueryRowContext(ctx, query, username).
		Scan(&rec.Username, &lists, &rec.CreatedAt, &rec.LastModified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	if err := json.Unmarshal(lists, &rec.Lists); err != nil {
		return nil, fmt.Errorf("error decoding lists: %w", err)
	}
	return rec, nil
}

func insertRecord(ctx context.Context, q dbx.DBTX, rec *models.UserRecord) error {
	lists, err := json.Marshal(rec.Lists)
	if err != nil {
		return fmt.Errorf("error encoding lists: %w", err)
	}

	query :=
		`INSERT INTO users (id, username, lists, created_at, last_modified, last_active)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 `

	_, err = q.ExecContext(ctx, query,
		uuid.NewString(), rec.Username, lists, rec.CreatedAt, rec.LastModified)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrUsernameTaken
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func updateRecord(ctx context.Context, q dbx.DBTX, rec *models.UserRecord) error {
	lists, err := json.Marshal(rec.Lists)
	if err != nil {
		return fmt.Errorf("error encoding lists: %w", err)
	}

	query :=
		`UPDATE users
		 SET lists = $2, last_modified = $3, last_active = $4
		 WHERE username = $1
		 `

	_, err = q.ExecContext(ctx, query, rec.Username, lists, rec.LastModified, time.Now())
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, username string) (*models.UserRecord, error) {
	return getRecord(ctx, r.db, username, false)
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.UserRecord) error {
	return insertRecord(ctx, r.db, rec)
}

// SaveNewer locks the row so the compare and the write are one atomic
// step even when two clients push at the same moment.
func (r *PostgresRepository) SaveNewer(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error) {
	stored := rec

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		existing, err := getRecord(ctx, tx, rec.Username, true)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return insertRecord(ctx, tx, rec)
			}
			return err
		}

		if !rec.LastModified.After(existing.LastModified) {
			stored = existing
			_, err = tx.ExecContext(ctx,
				`UPDATE users SET last_active = $2 WHERE username = $1`, rec.Username, time.Now())
			return err
		}

		rec.CreatedAt = existing.CreatedAt
		return updateRecord(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *PostgresRepository) TouchLastActive(ctx context.Context, username string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_active = $2 WHERE username = $1`, username, at)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LastActive(ctx context.Context, username string) (time.Time, error) {
	var t time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT last_active FROM users WHERE username = $1`, username).Scan(&t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("error performing sql request: %w", err)
	}
	return t, nil
}
