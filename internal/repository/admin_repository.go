package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/desaconnect/complaint-service/internal/domain"
)

// ErrDuplicateAdmin signals an add for an email already on the roster.
var ErrDuplicateAdmin = errors.New("admin already exists")

// ErrLastAdmin signals a removal that would leave the roster empty.
var ErrLastAdmin = errors.New("cannot remove the last admin")

// AdminRepository handles persistence for the admin allow-list.
type AdminRepository interface {
	Create(ctx context.Context, entry *domain.AdminEntry) error
	GetByEmail(ctx context.Context, email string) (*domain.AdminEntry, error)
	Exists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]domain.AdminEntry, error)
	Count(ctx context.Context) (int, error)
	// RemoveWithCascade deletes a roster row inside one transaction,
	// first clearing any submission back-references to the email. The
	// roster rows are locked for the duration, so two concurrent
	// removals serialize and the last-admin check cannot be raced past.
	RemoveWithCascade(ctx context.Context, email string) error
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository instantiates the repository.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

func (r *adminRepository) Create(ctx context.Context, entry *domain.AdminEntry) error {
	const query = `
        INSERT INTO admins (email, password_hash)
        VALUES ($1,$2)
        RETURNING created_at`
	err := r.pool.QueryRow(ctx, query, entry.Email, entry.PasswordHash).Scan(&entry.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateAdmin, entry.Email)
	}
	return err
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.AdminEntry, error) {
	const query = `SELECT email, password_hash, created_at FROM admins WHERE email=$1`
	var entry domain.AdminEntry
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&entry.Email,
		&entry.PasswordHash,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *adminRepository) Exists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM admins WHERE email=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *adminRepository) List(ctx context.Context) ([]domain.AdminEntry, error) {
	const query = `SELECT email, password_hash, created_at FROM admins ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AdminEntry
	for rows.Next() {
		var entry domain.AdminEntry
		if err := rows.Scan(&entry.Email, &entry.PasswordHash, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *adminRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *adminRepository) RemoveWithCascade(ctx context.Context, email string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Lock every roster row. The roster is a handful of entries, and
	// the full lock is what makes the count below trustworthy.
	rows, err := tx.Query(ctx, `SELECT email FROM admins ORDER BY email FOR UPDATE`)
	if err != nil {
		return err
	}
	count := 0
	found := false
	for rows.Next() {
		var current string
		if err := rows.Scan(&current); err != nil {
			rows.Close()
			return err
		}
		count++
		if current == email {
			found = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if !found {
		return pgx.ErrNoRows
	}
	if count <= 1 {
		return ErrLastAdmin
	}

	// Submission back-references are non-owning; null them before the
	// roster row goes away.
	if _, err := tx.Exec(ctx, `UPDATE submissions SET assigned_to=NULL WHERE assigned_to=$1`, email); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE submissions SET last_updated_by=NULL WHERE last_updated_by=$1`, email); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM admins WHERE email=$1`, email); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
