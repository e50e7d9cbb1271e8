package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-giveaway-bot/internal/domain"
	"telegram-giveaway-bot/internal/domain/model"
	"telegram-giveaway-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

// Upsert inserts or refreshes a user. Name fields follow the incoming
// update; joined_ok and the counters are owned by other operations and are
// left untouched on conflict.
func (r *PostgresUserRepo) Upsert(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (telegram_id, first_name, last_name, username, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (telegram_id) DO UPDATE SET
  first_name=EXCLUDED.first_name,
  last_name=EXCLUDED.last_name,
  username=EXCLUDED.username;
`
	_, err := execSQL(ctx, r.pool, tx, q, u.TelegramID, u.FirstName, u.LastName, u.Username, u.CreatedAt)
	return err
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	const q = `
SELECT telegram_id, first_name, last_name, username, joined_ok, total_participate, win_record, created_at
  FROM users WHERE telegram_id=$1;
`
	row, err := pickRow(ctx, r.pool, tx, q, tgID)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.TelegramID, &u.FirstName, &u.LastName, &u.Username, &u.JoinedOK, &u.TotalParticipate, &u.WinRecord, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) SetJoinedOK(ctx context.Context, tx repository.Tx, tgID int64, ok bool) error {
	_, err := execSQL(ctx, r.pool, tx, `UPDATE users SET joined_ok=$1 WHERE telegram_id=$2;`, ok, tgID)
	return err
}

func (r *PostgresUserRepo) IncrementParticipation(ctx context.Context, tx repository.Tx, tgID int64) error {
	_, err := execSQL(ctx, r.pool, tx, `UPDATE users SET total_participate = total_participate + 1 WHERE telegram_id=$1;`, tgID)
	return err
}

func (r *PostgresUserRepo) ListIDs(ctx context.Context, tx repository.Tx) ([]int64, error) {
	rows, err := pickRows(ctx, r.pool, tx, `SELECT telegram_id FROM users;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
