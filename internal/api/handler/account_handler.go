package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quod-portal/account-service/internal/core/domain"
	"github.com/quod-portal/account-service/internal/core/ports"
)

type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Register creates a Pending account with the Read role.
//
// @Summary      Register an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /accounts [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.Create(c.Request().Context(), ports.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Organisation: req.Organisation,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// List returns every account, or one page of them when take or skip is set.
//
// @Summary      List accounts
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        take  query     int  false  "Page size (default 20, max 100)"
// @Param        skip  query     int  false  "Accounts to skip"
// @Success      200   {array}   accountResponse
// @Success      200   {object}  pageResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /accounts [get]
func (h *AccountHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("take") == "" && c.QueryParam("skip") == "" {
		accounts, err := h.accounts.List(ctx)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toAccountResponses(accounts))
	}

	var take, skip int
	if err := echo.QueryParamsBinder(c).
		Int("take", &take).
		Int("skip", &skip).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "take and skip must be integers")
	}

	page, err := h.accounts.ListPaged(ctx, take, skip)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// FindByEmail looks an account up by its email address.
//
// @Summary      Find account by email
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Email address"
// @Success      200    {object}  accountResponse
// @Failure      404    {object}  map[string]string
// @Router       /accounts/by-email/{email} [get]
func (h *AccountHandler) FindByEmail(c echo.Context) error {
	account, err := h.accounts.FindByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// FindByID looks an account up by its id.
//
// @Summary      Find account by id
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  accountResponse
// @Failure      404  {object}  map[string]string
// @Router       /accounts/{id} [get]
func (h *AccountHandler) FindByID(c echo.Context) error {
	account, err := h.accounts.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Update replaces the profile fields of an account. Non-admin callers may
// only update their own account.
//
// @Summary      Update account profile
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateRequest  true  "Profile"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /accounts [put]
func (h *AccountHandler) Update(c echo.Context) error {
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req updateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if !who.isAdmin() && domain.NormalizeEmail(req.Email) != domain.NormalizeEmail(who.Email) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	account, err := h.accounts.Update(c.Request().Context(), ports.UpdateInput{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Organisation: req.Organisation,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// ForgotPassword mails a single-use reset token to the account holder.
//
// @Summary      Request a password reset
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /accounts/password/forgot [post]
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: "reset token sent"})
}

// ResetPassword sets a new password using a reset token.
//
// @Summary      Reset password
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /accounts/password/reset [post]
func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.accounts.ResetPassword(c.Request().Context(), ports.ResetPasswordInput{
		Email:    req.Email,
		Token:    req.Token,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// SetStatus approves or rejects an account.
//
// @Summary      Set account status
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Account ID"
// @Param        body  body      statusRequest  true  "New status"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /accounts/{id}/status [patch]
func (h *AccountHandler) SetStatus(c echo.Context) error {
	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.SetStatus(c.Request().Context(), c.Param("id"), domain.AccountStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// SetRole changes the role of an account.
//
// @Summary      Set account role
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Account ID"
// @Param        body  body      roleRequest  true  "New role"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /accounts/{id}/role [patch]
func (h *AccountHandler) SetRole(c echo.Context) error {
	var req roleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.SetRole(c.Request().Context(), c.Param("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Delete removes an account.
//
// @Summary      Delete account
// @Tags         accounts
// @Security     BearerAuth
// @Param        id   path  string  true  "Account ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /accounts/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	if err := h.accounts.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
