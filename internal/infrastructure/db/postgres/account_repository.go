package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quod-portal/account-service/internal/core/domain"
)

const (
	uniqueViolation  = "23505"
	invalidTextValue = "22P02"
)

const accountColumns = `id, email, password_hash, first_name, last_name, organisation, status, role, created_at, updated_at`

const (
	queryInsertAccount = `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	queryAccountByEmail = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	queryAccountByID    = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	queryListAccounts   = `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at, id`
	queryPageAccounts   = `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at, id LIMIT $1 OFFSET $2`
	queryCountAccounts  = `SELECT COUNT(*) FROM accounts`
	queryUpdateProfile  = `UPDATE accounts SET first_name = $2, last_name = $3, organisation = $4, updated_at = $5 WHERE id = $1`
	querySetStatus      = `UPDATE accounts SET status = $2, updated_at = now() WHERE id = $1`
	querySetRole        = `UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1`
	querySetPassword    = `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`
	queryDeleteAccount  = `DELETE FROM accounts WHERE id = $1`
)

// AccountRepository implements ports.AccountRepository on PostgreSQL.
type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx, queryInsertAccount,
		a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Organisation,
		string(a.Status), string(a.Role), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, queryAccountByEmail, email)
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, queryAccountByID, id)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	return r.query(ctx, queryListAccounts)
}

func (r *AccountRepository) ListPage(ctx context.Context, take, skip int) ([]*domain.Account, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, queryCountAccounts).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	items, err := r.query(ctx, queryPageAccounts, take, skip)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *AccountRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	return r.exec(ctx, queryUpdateProfile, a.ID, a.FirstName, a.LastName, a.Organisation, a.UpdatedAt)
}

func (r *AccountRepository) SetStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	return r.exec(ctx, querySetStatus, id, string(status))
}

func (r *AccountRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	return r.exec(ctx, querySetRole, id, string(role))
}

func (r *AccountRepository) SetPasswordHash(ctx context.Context, id string, hash string) error {
	return r.exec(ctx, querySetPassword, id, hash)
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, queryDeleteAccount, id)
}

// exec runs a single-row statement and reports ErrAccountNotFound when no row matched.
func (r *AccountRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isInvalidText(err) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// isInvalidText reports a malformed uuid literal, which cannot match any row.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextValue
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a      domain.Account
		status string
		role   string
	)
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Organisation,
		&status, &role, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = domain.AccountStatus(status)
	a.Role = domain.Role(role)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
