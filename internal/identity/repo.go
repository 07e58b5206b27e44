package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Repository defines persistence operations for the identity module.
type Repository interface {
	FindByCode(ctx context.Context, code string) (credential, error)
	FindByID(ctx context.Context, id uuid.UUID) (credential, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const credentialQuery = `SELECT id, employee_code, full_name, password_hash, role, status FROM employees `

func (r *PGRepository) FindByCode(ctx context.Context, code string) (credential, error) {
	return r.scan(r.pool.QueryRow(ctx, credentialQuery+`WHERE employee_code = $1`, code))
}

func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (credential, error) {
	return r.scan(r.pool.QueryRow(ctx, credentialQuery+`WHERE id = $1`, id))
}

func (r *PGRepository) scan(row pgx.Row) (credential, error) {
	var cred credential
	var role string
	if err := row.Scan(&cred.ID, &cred.Code, &cred.FullName, &cred.PasswordHash, &role, &cred.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return credential{}, shared.ErrNotFound
		}
		return credential{}, err
	}
	cred.Role = shared.Role(role)
	return cred, nil
}

var _ Repository = (*PGRepository)(nil)
