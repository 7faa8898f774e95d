package ports

import (
	"context"

	"github.com/quod-portal/account-service/internal/core/domain"
)

// AccountRepository defines persistence operations for accounts.
// Implementations return domain.ErrAccountNotFound for missing rows and
// domain.ErrAccountExists for email uniqueness violations.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// List returns every account ordered by creation time.
	List(ctx context.Context) ([]*domain.Account, error)
	// ListPage returns at most take accounts after skipping skip, and the total count.
	ListPage(ctx context.Context, take, skip int) ([]*domain.Account, int64, error)
	// Update overwrites the profile fields of the account with the given ID.
	Update(ctx context.Context, account *domain.Account) error
	SetStatus(ctx context.Context, id string, status domain.AccountStatus) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	SetPasswordHash(ctx context.Context, id string, hash string) error
	Delete(ctx context.Context, id string) error
}
