package ports

import (
	"context"

	"github.com/quod-portal/account-service/internal/core/domain"
)

// RegisterInput carries the fields a visitor submits when signing up.
// Status and role are not accepted; new accounts always start Pending/Read.
type RegisterInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Organisation string
}

// UpdateInput identifies the account by email and carries the new profile.
type UpdateInput struct {
	Email        string
	FirstName    string
	LastName     string
	Organisation string
}

// ResetPasswordInput is submitted by a user holding a reset token.
type ResetPasswordInput struct {
	Email    string
	Token    string
	Password string
}

// Page is one slice of the account list plus the total number of accounts.
type Page struct {
	Items []*domain.Account
	Total int64
	Take  int
	Skip  int
}

// AccountService defines use-case operations for account management.
type AccountService interface {
	List(ctx context.Context) ([]*domain.Account, error)
	ListPaged(ctx context.Context, take, skip int) (*Page, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, input RegisterInput) (*domain.Account, error)
	Update(ctx context.Context, input UpdateInput) (*domain.Account, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
	SetStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error)
	SetRole(ctx context.Context, id string, role domain.Role) (*domain.Account, error)
	Delete(ctx context.Context, id string) error
}
