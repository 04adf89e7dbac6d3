package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/app/repositories"
	"github.com/shashiranjanraj/orderdesk/pkg/auth"
	"github.com/shashiranjanraj/orderdesk/pkg/logger"
	"github.com/shashiranjanraj/orderdesk/pkg/orm"
	"github.com/shashiranjanraj/orderdesk/pkg/rbac"
	"github.com/shashiranjanraj/orderdesk/pkg/validate"
)

type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService() *AuthService {
	return &AuthService{users: repositories.NewUserRepository()}
}

// Login checks the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if orm.IsNotFound(err) {
			return "", models.User{}, ErrInvalidCredentials
		}
		return "", models.User{}, fmt.Errorf("auth: find user: %w", err)
	}
	if !auth.CheckPassword(user.Password, password) {
		logger.WithCtx(ctx).Info("auth: bad password", "user_id", user.ID)
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", models.User{}, fmt.Errorf("auth: token: %w", err)
	}
	return token, user, nil
}

// UserInput is the payload for creating an operator.
type UserInput struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,in=admin,staff"`
}

// CreateUser registers a back-office operator with a hashed password.
func (s *AuthService) CreateUser(ctx context.Context, in UserInput) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.User{}, invalid(errs)
	}
	if !rbac.ValidRole(in.Role) {
		return models.User{}, invalid(map[string]string{"role": "The selected role is invalid."})
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return models.User{}, invalid(map[string]string{"email": "The email has already been taken."})
	} else if !orm.IsNotFound(err) {
		return models.User{}, fmt.Errorf("auth: find user: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("auth: hash password: %w", err)
	}
	user := models.User{Name: in.Name, Email: in.Email, Password: hash, Role: in.Role}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("auth: create user: %w", err)
	}
	logger.WithCtx(ctx).Info("auth: user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}
