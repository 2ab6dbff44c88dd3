package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knighthoot/backend/internal/model"
)

// UserRepository handles teacher and student account data access. The two
// roles live in separate tables with identical shape; every method takes the
// role to pick the table.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func tableFor(role model.Role) string {
	if role == model.RoleTeacher {
		return "teachers"
	}
	return "students"
}

const userColumns = `id, first_name, last_name, username, email, password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, role model.Role) (*model.User, error) {
	u := &model.User{Role: role}
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves an account by ID within one role.
func (r *UserRepository) GetByID(ctx context.Context, role model.Role, id int) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userColumns, tableFor(role)), id)
	return scanUser(row, role)
}

// GetByUsername retrieves an account by its unique username within one role.
func (r *UserRepository) GetByUsername(ctx context.Context, role model.Role, username string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE username = $1`, userColumns, tableFor(role)), username)
	return scanUser(row, role)
}

// GetByEmail retrieves an account by its unique email within one role.
func (r *UserRepository) GetByEmail(ctx context.Context, role model.Role, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1`, userColumns, tableFor(role)), email)
	return scanUser(row, role)
}

// ExistsByUsernameOrEmail reports whether the role already has an account with
// either credential. Used by registration before inserting.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, role model.Role, username, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE username = $1 OR email = $2)`, tableFor(role)),
		username, email).Scan(&exists)
	return exists, err
}

// Create inserts a new account and fills in the generated ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.pool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (first_name, last_name, username, email, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`, tableFor(u.Role)),
		u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// UpdatePassword replaces an account's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, role model.Role, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET password_hash = $1, updated_at = NOW() WHERE id = $2`, tableFor(role)),
		passwordHash, id)
	return err
}
