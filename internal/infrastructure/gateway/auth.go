package gateway

import (
	"context"
	"net/http"

	"github.com/evanio/checkout-service/internal/core/domain"
	"github.com/evanio/checkout-service/internal/core/ports"
)

type userDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u *userDTO) toDomain() *domain.Identity {
	if u == nil || u.ID == "" {
		return nil
	}
	role := domain.Role(u.Role)
	if role != domain.RoleAdmin {
		role = domain.RoleCustomer
	}
	return &domain.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: role}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode,omitempty"`
}

type sessionResponse struct {
	Token             string   `json:"token"`
	User              *userDTO `json:"user"`
	RequiresTwoFactor bool     `json:"requiresTwoFactor"`
}

type meResponse struct {
	User *userDTO `json:"user"`
}

// AuthClient implements ports.AuthGateway.
type AuthClient struct {
	c *Client
}

func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

func (a *AuthClient) Login(ctx context.Context, email, password, code string) (*ports.LoginResult, error) {
	var resp sessionResponse
	err := a.c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password, Code: code}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.RequiresTwoFactor {
		return &ports.LoginResult{RequiresSecondFactor: true}, nil
	}
	session, err := toSession(resp)
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{Session: session}, nil
}

func (a *AuthClient) Register(ctx context.Context, input ports.RegisterInput) (*domain.Session, error) {
	req := registerRequest{
		Name:         input.Name,
		Email:        input.Email,
		Password:     input.Password,
		ReferralCode: input.ReferralCode,
	}

	var resp sessionResponse
	if err := a.c.do(ctx, http.MethodPost, "/auth/register", "", req, &resp); err != nil {
		return nil, err
	}
	return toSession(resp)
}

func (a *AuthClient) CurrentIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	var resp meResponse
	if err := a.c.do(ctx, http.MethodGet, "/auth/me", token, nil, &resp); err != nil {
		return nil, err
	}

	identity := resp.User.toDomain()
	if identity == nil {
		return nil, domain.Server("", nil)
	}
	return identity, nil
}

// toSession accepts a response only when it carries both halves of a session.
func toSession(resp sessionResponse) (*domain.Session, error) {
	identity := resp.User.toDomain()
	if resp.Token == "" || identity == nil {
		return nil, domain.Server("", nil)
	}
	return &domain.Session{Token: resp.Token, Identity: identity}, nil
}
