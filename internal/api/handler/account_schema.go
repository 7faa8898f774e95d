package handler

import (
	"time"

	"github.com/quod-portal/account-service/internal/core/domain"
	"github.com/quod-portal/account-service/internal/core/ports"
)

type registerRequest struct {
	Email        string `json:"email"        validate:"required,email"`
	Password     string `json:"password"     validate:"required,min=8,max=72"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Organisation string `json:"organisation"`
}

type updateRequest struct {
	Email        string `json:"email"        validate:"required,email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Organisation string `json:"organisation"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Approved Rejected"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=Read Write Admin"`
}

type accountResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Organisation string    `json:"organisation,omitempty"`
	Status       string    `json:"status"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type pageResponse struct {
	Items []accountResponse `json:"items"`
	Total int64             `json:"total"`
	Take  int               `json:"take"`
	Skip  int               `json:"skip"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:           a.ID,
		Email:        a.Email,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Organisation: a.Organisation,
		Status:       string(a.Status),
		Role:         string(a.Role),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toAccountResponses(accounts []*domain.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return out
}

func toPageResponse(p *ports.Page) pageResponse {
	return pageResponse{
		Items: toAccountResponses(p.Items),
		Total: p.Total,
		Take:  p.Take,
		Skip:  p.Skip,
	}
}
