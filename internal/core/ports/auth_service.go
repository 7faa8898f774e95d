package ports

import (
	"context"

	"github.com/quod-portal/account-service/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.Account, error)
}
