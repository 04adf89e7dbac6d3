package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/internal/testdb"
	"github.com/shashiranjanraj/orderdesk/pkg/auth"
)

func TestCreateUserAndLogin(t *testing.T) {
	testdb.Open(t)
	ctx := context.Background()
	svc := services.NewAuthService()

	u, err := svc.CreateUser(ctx, services.UserInput{
		Name: "Admin", Email: " Admin@Orderdesk.test ", Password: "password123", Role: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@orderdesk.test", u.Email)
	assert.NotEqual(t, "password123", u.Password)

	_, err = svc.CreateUser(ctx, services.UserInput{
		Name: "Again", Email: "admin@orderdesk.test", Password: "password123", Role: "staff",
	})
	assert.Contains(t, validationErrors(t, err), "email")

	_, err = svc.CreateUser(ctx, services.UserInput{Name: "X", Email: "x@y.z", Password: "short", Role: "root"})
	errs := validationErrors(t, err)
	assert.Contains(t, errs, "password")
	assert.Contains(t, errs, "role")

	token, user, err := svc.Login(ctx, "ADMIN@orderdesk.test", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, _, err = svc.Login(ctx, "admin@orderdesk.test", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@orderdesk.test", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}
