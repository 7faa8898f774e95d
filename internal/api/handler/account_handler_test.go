package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quod-portal/account-service/internal/core/domain"
	"github.com/quod-portal/account-service/internal/core/ports"
)

// stubAccountService records the last call and returns canned values.
type stubAccountService struct {
	account *domain.Account
	page    *ports.Page
	err     error

	lastCreate ports.RegisterInput
	lastUpdate ports.UpdateInput
	lastReset  ports.ResetPasswordInput
	lastEmail  string
	lastID     string
	lastTake   int
	lastSkip   int
	lastStatus domain.AccountStatus
	lastRole   domain.Role
	listCalled bool
}

func (s *stubAccountService) List(ctx context.Context) ([]*domain.Account, error) {
	s.listCalled = true
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Account{s.account}, nil
}

func (s *stubAccountService) ListPaged(ctx context.Context, take, skip int) (*ports.Page, error) {
	s.lastTake, s.lastSkip = take, skip
	return s.page, s.err
}

func (s *stubAccountService) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	s.lastEmail = email
	return s.account, s.err
}

func (s *stubAccountService) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	s.lastID = id
	return s.account, s.err
}

func (s *stubAccountService) Create(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	s.lastCreate = in
	return s.account, s.err
}

func (s *stubAccountService) Update(ctx context.Context, in ports.UpdateInput) (*domain.Account, error) {
	s.lastUpdate = in
	return s.account, s.err
}

func (s *stubAccountService) RequestPasswordReset(ctx context.Context, email string) error {
	s.lastEmail = email
	return s.err
}

func (s *stubAccountService) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	s.lastReset = in
	return s.err
}

func (s *stubAccountService) SetStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error) {
	s.lastID, s.lastStatus = id, status
	return s.account, s.err
}

func (s *stubAccountService) SetRole(ctx context.Context, id string, role domain.Role) (*domain.Account, error) {
	s.lastID, s.lastRole = id, role
	return s.account, s.err
}

func (s *stubAccountService) Delete(ctx context.Context, id string) error {
	s.lastID = id
	return s.err
}

func sampleAccount() *domain.Account {
	return &domain.Account{
		ID:           "a-1",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$secret",
		FirstName:    "Alice",
		Status:       domain.StatusPending,
		Role:         domain.RoleRead,
	}
}

func TestAccountHandler_Register(t *testing.T) {
	stub := &stubAccountService{account: sampleAccount()}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/accounts",
		`{"email":"alice@example.com","password":"longenough","first_name":"Alice","organisation":"Acme"}`)
	require.NoError(t, h.Register(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "alice@example.com", stub.lastCreate.Email)
	require.Equal(t, "Acme", stub.lastCreate.Organisation)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Pending", body["status"])
	require.Equal(t, "Read", body["role"])
	require.NotContains(t, body, "password_hash")
	require.NotContains(t, rec.Body.String(), "$2a$10$secret")
}

func TestAccountHandler_Register_Validation(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{})

	c, _ := newTestContext(http.MethodPost, "/accounts", `{"email":"alice@example.com"}`)
	err := h.Register(c)
	requireHTTPError(t, err, http.StatusBadRequest)
	require.Contains(t, err.Error(), "password is required")
}

func TestAccountHandler_Register_PasswordTooLong(t *testing.T) {
	stub := &stubAccountService{account: sampleAccount()}
	h := NewAccountHandler(stub)

	body := `{"email":"alice@example.com","password":"` + strings.Repeat("x", 80) + `"}`
	c, _ := newTestContext(http.MethodPost, "/accounts", body)
	err := h.Register(c)
	requireHTTPError(t, err, http.StatusBadRequest)
	require.Contains(t, err.Error(), "password must be at most 72 characters")
	require.Empty(t, stub.lastCreate.Email)
}

func TestAccountHandler_ResetPassword_PasswordTooLong(t *testing.T) {
	stub := &stubAccountService{}
	h := NewAccountHandler(stub)

	body := `{"email":"alice@example.com","token":"abc","password":"` + strings.Repeat("x", 80) + `"}`
	c, _ := newTestContext(http.MethodPost, "/accounts/password/reset", body)
	requireHTTPError(t, h.ResetPassword(c), http.StatusBadRequest)
	require.Empty(t, stub.lastReset.Token)
}

func TestAccountHandler_Register_Duplicate(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{err: domain.ErrAccountExists})

	c, _ := newTestContext(http.MethodPost, "/accounts", `{"email":"alice@example.com","password":"longenough"}`)
	require.ErrorIs(t, h.Register(c), domain.ErrAccountExists)
}

func TestAccountHandler_List_All(t *testing.T) {
	stub := &stubAccountService{account: sampleAccount()}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(http.MethodGet, "/accounts", "")
	require.NoError(t, h.List(c))

	require.True(t, stub.listCalled)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
}

func TestAccountHandler_List_Paged(t *testing.T) {
	stub := &stubAccountService{page: &ports.Page{Items: []*domain.Account{sampleAccount()}, Total: 41, Take: 10, Skip: 20}}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(http.MethodGet, "/accounts?take=10&skip=20", "")
	require.NoError(t, h.List(c))

	require.False(t, stub.listCalled)
	require.Equal(t, 10, stub.lastTake)
	require.Equal(t, 20, stub.lastSkip)

	var body pageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 41, body.Total)
	require.Len(t, body.Items, 1)
}

func TestAccountHandler_List_BadQuery(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{})

	c, _ := newTestContext(http.MethodGet, "/accounts?take=many", "")
	requireHTTPError(t, h.List(c), http.StatusBadRequest)
}

func TestAccountHandler_FindByEmail(t *testing.T) {
	stub := &stubAccountService{account: sampleAccount()}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(http.MethodGet, "/", "")
	c.SetParamNames("email")
	c.SetParamValues("alice@example.com")
	require.NoError(t, h.FindByEmail(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice@example.com", stub.lastEmail)
}

func TestAccountHandler_FindByEmail_NotFound(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{err: domain.ErrAccountNotFound})

	c, _ := newTestContext(http.MethodGet, "/", "")
	c.SetParamNames("email")
	c.SetParamValues("ghost@example.com")
	require.ErrorIs(t, h.FindByEmail(c), domain.ErrAccountNotFound)
}

func TestAccountHandler_FindByID(t *testing.T) {
	stub := &stubAccountService{account: sampleAccount()}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("a-1")
	require.NoError(t, h.FindByID(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "a-1", stub.lastID)
	require.Contains(t, rec.Body.String(), `"email":"alice@example.com"`)
}

func TestAccountHandler_FindByID_NotFound(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{err: domain.ErrAccountNotFound})

	c, _ := newTestContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.ErrorIs(t, h.FindByID(c), domain.ErrAccountNotFound)
}

func TestAccountHandler_Update_Own(t *testing.T) {
	stub := &stubAccountService{account: sampleAccount()}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(http.MethodPut, "/accounts", `{"email":"Alice@Example.com","last_name":"Liddell"}`)
	withCaller(c, "a-1", "alice@example.com", "Read")
	require.NoError(t, h.Update(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Liddell", stub.lastUpdate.LastName)
}

func TestAccountHandler_Update_OtherAccountForbidden(t *testing.T) {
	stub := &stubAccountService{account: sampleAccount()}
	h := NewAccountHandler(stub)

	c, _ := newTestContext(http.MethodPut, "/accounts", `{"email":"bob@example.com"}`)
	withCaller(c, "a-1", "alice@example.com", "Write")
	requireHTTPError(t, h.Update(c), http.StatusForbidden)
	require.Empty(t, stub.lastUpdate.Email)
}

func TestAccountHandler_Update_AdminAnyAccount(t *testing.T) {
	stub := &stubAccountService{account: sampleAccount()}
	h := NewAccountHandler(stub)

	c, _ := newTestContext(http.MethodPut, "/accounts", `{"email":"bob@example.com","first_name":"Bob"}`)
	withCaller(c, "admin-1", "admin@example.com", "Admin")
	require.NoError(t, h.Update(c))
	require.Equal(t, "bob@example.com", stub.lastUpdate.Email)
}

func TestAccountHandler_Update_NoClaims(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{})

	c, _ := newTestContext(http.MethodPut, "/accounts", `{"email":"alice@example.com"}`)
	requireHTTPError(t, h.Update(c), http.StatusUnauthorized)
}

func TestAccountHandler_ForgotPassword(t *testing.T) {
	stub := &stubAccountService{}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/accounts/password/forgot", `{"email":"alice@example.com"}`)
	require.NoError(t, h.ForgotPassword(c))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "alice@example.com", stub.lastEmail)
}

func TestAccountHandler_ResetPassword(t *testing.T) {
	stub := &stubAccountService{}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/accounts/password/reset",
		`{"email":"alice@example.com","token":"abc123","password":"newpassword"}`)
	require.NoError(t, h.ResetPassword(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc123", stub.lastReset.Token)
}

func TestAccountHandler_ResetPassword_BadToken(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{err: domain.ErrInvalidResetToken})

	c, _ := newTestContext(http.MethodPost, "/accounts/password/reset",
		`{"email":"alice@example.com","token":"wrong","password":"newpassword"}`)
	require.True(t, errors.Is(h.ResetPassword(c), domain.ErrInvalidResetToken))
}

func TestAccountHandler_SetStatus(t *testing.T) {
	approved := sampleAccount()
	approved.Status = domain.StatusApproved
	stub := &stubAccountService{account: approved}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(http.MethodPatch, "/", `{"status":"Approved"}`)
	c.SetParamNames("id")
	c.SetParamValues("a-1")
	require.NoError(t, h.SetStatus(c))

	require.Equal(t, "a-1", stub.lastID)
	require.Equal(t, domain.StatusApproved, stub.lastStatus)
	require.Contains(t, rec.Body.String(), `"status":"Approved"`)
}

func TestAccountHandler_SetStatus_UnknownValue(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{})

	c, _ := newTestContext(http.MethodPatch, "/", `{"status":"Banned"}`)
	c.SetParamNames("id")
	c.SetParamValues("a-1")
	requireHTTPError(t, h.SetStatus(c), http.StatusBadRequest)
}

func TestAccountHandler_SetRole(t *testing.T) {
	stub := &stubAccountService{account: sampleAccount()}
	h := NewAccountHandler(stub)

	c, _ := newTestContext(http.MethodPatch, "/", `{"role":"Write"}`)
	c.SetParamNames("id")
	c.SetParamValues("a-1")
	require.NoError(t, h.SetRole(c))
	require.Equal(t, domain.RoleWrite, stub.lastRole)
}

func TestAccountHandler_Delete(t *testing.T) {
	stub := &stubAccountService{}
	h := NewAccountHandler(stub)

	c, rec := newTestContext(http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("a-1")
	require.NoError(t, h.Delete(c))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "a-1", stub.lastID)
}
