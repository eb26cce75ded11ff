package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credentials_service/internal/config"
	"credentials_service/internal/lib/keygen"
	"credentials_service/internal/models"
	"credentials_service/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of *pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresRepo struct {
	pool DB
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	if cfg.Postgres.Migrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &PostgresRepo{pool: pool}, nil
}

func NewWithDB(db DB) *PostgresRepo {
	return &PostgresRepo{pool: db}
}

func (r *PostgresRepo) SaveUser(ctx context.Context, user models.User) error {
	const op = "storage.postgres.SaveUser"

	const query = `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, user.ID, user.Email, user.PasswordHash)
	if err != nil {
		if isPgCode(err, pgerrcode.UniqueViolation) {
			return storage.ErrUserExists
		}

		return fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return nil
}

// * SaveCredential сохраняет ключ (в виде SHA256 хеша) для пользователя
func (r *PostgresRepo) SaveCredential(ctx context.Context, key, ownerID string) error {
	const op = "storage.postgres.SaveCredential"

	const query = `
		INSERT INTO credentials (key_hash, user_id)
		VALUES ($1, $2)
	`

	_, err := r.pool.Exec(ctx, query, keygen.Hash(key), ownerID)
	if err != nil {
		if isPgCode(err, pgerrcode.UniqueViolation) {
			return storage.ErrCredentialExists
		}
		if isPgCode(err, pgerrcode.ForeignKeyViolation) {
			return storage.ErrUserNotFound
		}

		return fmt.Errorf("%s: failed to save credential: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.UserByEmail"

	const query = `
		SELECT id, email, password_hash
		FROM users
		WHERE email = $1
	`

	var u models.User

	err := r.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) Credential(ctx context.Context, key string) (models.Credential, error) {
	const op = "storage.postgres.Credential"

	const query = `
		SELECT u.id, u.email
		FROM credentials c
		JOIN users u ON u.id = c.user_id
		WHERE c.key_hash = $1
	`

	var owner models.User

	err := r.pool.QueryRow(ctx, query, keygen.Hash(key)).Scan(&owner.ID, &owner.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Credential{}, storage.ErrCredentialNotFound
		}

		return models.Credential{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Credential{
		Key:         key,
		OwnerUserID: owner.ID,
		Owner:       &owner,
	}, nil
}

// * RotateCredential атомарно удаляет старый ключ и сохраняет новый для того же владельца.
// Возвращает false, если старый ключ уже был использован или удален.
func (r *PostgresRepo) RotateCredential(ctx context.Context, oldKey, newKey string) (bool, error) {
	const op = "storage.postgres.RotateCredential"

	const query = `
		WITH consumed AS (
			DELETE FROM credentials
			WHERE key_hash = $1
			RETURNING user_id
		)
		INSERT INTO credentials (key_hash, user_id)
		SELECT $2, user_id FROM consumed
	`

	tag, err := r.pool.Exec(ctx, query, keygen.Hash(oldKey), keygen.Hash(newKey))
	if err != nil {
		if isPgCode(err, pgerrcode.UniqueViolation) {
			return false, fmt.Errorf("%s: %w", op, storage.ErrCredentialExists)
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected() == 1, nil
}

// * DeleteCredentialOwnedBy удаляет ключ одним запросом, только если он принадлежит ownerID
func (r *PostgresRepo) DeleteCredentialOwnedBy(ctx context.Context, key, ownerID string) (bool, error) {
	const op = "storage.postgres.DeleteCredentialOwnedBy"

	const query = `
		DELETE FROM credentials
		WHERE key_hash = $1 AND user_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, keygen.Hash(key), ownerID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// * dsn формирует конфигурацию базы данных.
func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
