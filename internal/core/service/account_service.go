package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/quod-portal/account-service/internal/api/metrics"
	"github.com/quod-portal/account-service/internal/core/domain"
	"github.com/quod-portal/account-service/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultResetTTL = 30 * time.Minute
)

// AccountOptions carries the settings AccountService needs beyond its collaborators.
type AccountOptions struct {
	// AdminEmail receives a message for every new registration.
	AdminEmail string
	// PortalURL is the base URL used in links inside outgoing emails.
	PortalURL string
	ResetTTL  time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost when zero.
	BcryptCost int
}

type AccountService struct {
	repo   ports.AccountRepository
	tokens ports.ResetTokenStore
	queue  ports.NotificationQueue
	opts   AccountOptions
	logger zerolog.Logger
	now    func() time.Time
}

func NewAccountService(
	repo ports.AccountRepository,
	tokens ports.ResetTokenStore,
	queue ports.NotificationQueue,
	opts AccountOptions,
	logger zerolog.Logger,
) *AccountService {
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = defaultResetTTL
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.AdminEmail == "" {
		logger.Warn().Msg("no admin email configured, registrations will not be announced")
	}
	return &AccountService{
		repo:   repo,
		tokens: tokens,
		queue:  queue,
		opts:   opts,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *AccountService) List(ctx context.Context) ([]*domain.Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// ListPaged returns one page of accounts. take is clamped to [1, maxPageSize].
func (s *AccountService) ListPaged(ctx context.Context, take, skip int) (*ports.Page, error) {
	if take <= 0 {
		take = defaultPageSize
	}
	if take > maxPageSize {
		take = maxPageSize
	}
	if skip < 0 {
		skip = 0
	}

	items, total, err := s.repo.ListPage(ctx, take, skip)
	if err != nil {
		return nil, fmt.Errorf("list accounts page: %w", err)
	}
	if items == nil {
		items = []*domain.Account{}
	}
	return &ports.Page{Items: items, Total: total, Take: take, Skip: skip}, nil
}

func (s *AccountService) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	return s.repo.FindByEmail(ctx, email)
}

func (s *AccountService) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Create registers a new account in Pending/Read state and notifies the
// administrator. The notification is best effort.
func (s *AccountService) Create(ctx context.Context, input ports.RegisterInput) (*domain.Account, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: please provide all requested user information", domain.ErrInvalidInput)
	}

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrAccountExists
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, fmt.Errorf("create account: %w", err)
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Organisation: input.Organisation,
		Status:       domain.StatusPending,
		Role:         domain.RoleRead,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if !errors.Is(err, domain.ErrAccountExists) {
			s.logger.Error().Err(err).Str("email", email).Msg("failed to create account")
		}
		return nil, err
	}

	metrics.AccountsRegisteredTotal.Inc()
	s.logger.Info().Str("account_id", account.ID).Str("email", email).Msg("account registered")

	if s.opts.AdminEmail != "" {
		s.queue.Enqueue(ports.Notification{
			Kind:    ports.KindRegistration,
			To:      s.opts.AdminEmail,
			Subject: "New portal user registration",
			HTML:    registrationHTML(s.opts.PortalURL, email),
		})
	}

	return account, nil
}

// Update overwrites the profile fields of the account identified by email.
func (s *AccountService) Update(ctx context.Context, input ports.UpdateInput) (*domain.Account, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	account.FirstName = input.FirstName
	account.LastName = input.LastName
	account.Organisation = input.Organisation
	account.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return account, nil
}

// RequestPasswordReset issues a fresh single-use token and mails it to the
// account holder. Only the token digest is stored.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.tokens.Save(ctx, email, tokenDigest(token), s.opts.ResetTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()
	s.queue.Enqueue(ports.Notification{
		Kind:    ports.KindPasswordReset,
		To:      email,
		Subject: "Portal password reset",
		HTML:    resetHTML(token, s.opts.ResetTTL),
	})
	return nil
}

// ResetPassword replaces the password when token matches the outstanding
// reset token for the email. The outstanding token is consumed either way.
func (s *AccountService) ResetPassword(ctx context.Context, input ports.ResetPasswordInput) error {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || input.Token == "" || input.Password == "" {
		return fmt.Errorf("%w: please provide all requested information", domain.ErrInvalidInput)
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	// Hash first: only a verification attempt may spend the token.
	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return err
	}

	stored, ok, err := s.tokens.Consume(ctx, email)
	if err != nil {
		return fmt.Errorf("load reset token: %w", err)
	}
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(tokenDigest(input.Token))) != 1 {
		metrics.PasswordResetsTotal.WithLabelValues("rejected").Inc()
		return domain.ErrInvalidResetToken
	}

	if err := s.repo.SetPasswordHash(ctx, account.ID, hash); err != nil {
		// The token was valid; put it back so the user can retry.
		if rerr := s.tokens.Save(ctx, email, stored, s.opts.ResetTTL); rerr != nil {
			s.logger.Error().Err(rerr).Str("account_id", account.ID).Msg("failed to restore reset token")
		}
		return fmt.Errorf("reset password: %w", err)
	}

	metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()
	s.logger.Info().Str("account_id", account.ID).Msg("password reset")
	return nil
}

func (s *AccountService) SetStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	account, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	s.logger.Info().Str("account_id", id).Str("from", string(account.Status)).Str("to", string(status)).Msg("account status changed")
	account.Status = status
	return account, nil
}

func (s *AccountService) SetRole(ctx context.Context, id string, role domain.Role) (*domain.Account, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	account, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}

	s.logger.Info().Str("account_id", id).Str("from", string(account.Role)).Str("to", string(role)).Msg("account role changed")
	account.Role = role
	return account, nil
}

func (s *AccountService) Delete(ctx context.Context, id string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.logger.Info().Str("account_id", id).Msg("account deleted")
	return nil
}

// checkID reports ErrAccountNotFound for ids that cannot name a stored
// account. Account ids are UUIDs.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password must be at most 72 bytes", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func newResetToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func registrationHTML(portalURL, email string) string {
	link := portalURL + "/#/admin/users"
	return fmt.Sprintf(
		`<p>A new user (%s) has registered for the portal. You can approve users here:</p><a href="%s">%s</a>`,
		html.EscapeString(email), link, link,
	)
}

func resetHTML(token string, ttl time.Duration) string {
	return fmt.Sprintf(
		`<p>Use the following code to reset your portal password. It expires in %d minutes.</p><p><b>%s</b></p>`,
		int(ttl.Minutes()), token,
	)
}
