package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/repository"
)

var (
	_ repository.UserRepository         = (*PostgresUserRepo)(nil)
	_ repository.VideoRepository        = (*PostgresVideoRepo)(nil)
	_ repository.WebhookEventRepository = (*PostgresWebhookEventRepo)(nil)
)

// PostgresUserRepo reads the users table owned by the identity service.
type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, email FROM users WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := scanOne(row, &u.ID, &u.Email); err != nil {
		return nil, err
	}
	return &u, nil
}

// Save is used by the seed command; the API never writes users.
func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `INSERT INTO users (id, email) VALUES ($1,$2) ON CONFLICT (id) DO UPDATE SET email=EXCLUDED.email;`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email)
	return err
}

type PostgresVideoRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresVideoRepo(pool *pgxpool.Pool) *PostgresVideoRepo {
	return &PostgresVideoRepo{pool: pool}
}

func (r *PostgresVideoRepo) FindOwnerID(ctx context.Context, tx repository.Tx, videoID string) (string, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT owner_id FROM videos WHERE id=$1;`, videoID)
	if err != nil {
		return "", err
	}
	var owner string
	if err := scanOne(row, &owner); err != nil {
		return "", err
	}
	return owner, nil
}

func (r *PostgresVideoRepo) Save(ctx context.Context, tx repository.Tx, videoID, ownerID string) error {
	const q = `INSERT INTO videos (id, owner_id) VALUES ($1,$2) ON CONFLICT (id) DO UPDATE SET owner_id=EXCLUDED.owner_id;`
	_, err := execSQL(ctx, r.pool, tx, q, videoID, ownerID)
	return err
}

type PostgresWebhookEventRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresWebhookEventRepo(pool *pgxpool.Pool) *PostgresWebhookEventRepo {
	return &PostgresWebhookEventRepo{pool: pool}
}

func (r *PostgresWebhookEventRepo) Exists(ctx context.Context, tx repository.Tx, provider, eventID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM webhook_events WHERE provider=$1 AND event_id=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, provider, eventID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := scanOne(row, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *PostgresWebhookEventRepo) Save(ctx context.Context, tx repository.Tx, ev *model.WebhookEvent) error {
	const q = `INSERT INTO webhook_events (provider, event_id, event_type, processed_at) VALUES ($1,$2,$3,$4);`
	_, err := execSQL(ctx, r.pool, tx, q, ev.Provider, ev.EventID, ev.EventType, ev.ProcessedAt)
	return err
}
