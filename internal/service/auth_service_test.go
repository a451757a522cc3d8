package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pmb-api/internal/models"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

const testSecret = "test-access-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims models.JWTClaims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	if claims.Issuer == "" {
		claims.Issuer = "pmb-auth"
	}
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newTestAuthService() *AuthService {
	return NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret, Issuer: "pmb-auth"})
}

func TestValidateTokenPresenter(t *testing.T) {
	svc := newTestAuthService()
	raw := signToken(t, testSecret, jwt.SigningMethodHS256, models.JWTClaims{
		UserID:        "u1",
		Role:          models.RolePresenter,
		FullName:      "Sari Wulandari",
		PresenterName: "Sari",
		BranchID:      "A",
	})

	claims, err := svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.IsPresenter())
	assert.Equal(t, "Sari", claims.CreditName())
}

func TestValidateTokenRejects(t *testing.T) {
	svc := newTestAuthService()

	cases := map[string]string{
		"wrong secret": signToken(t, "other", jwt.SigningMethodHS256, models.JWTClaims{UserID: "u1", Role: models.RoleLeadership}),
		"wrong method": signToken(t, testSecret, jwt.SigningMethodHS512, models.JWTClaims{UserID: "u1", Role: models.RoleLeadership}),
		"expired": signToken(t, testSecret, jwt.SigningMethodHS256, models.JWTClaims{
			UserID:           "u1",
			Role:             models.RoleLeadership,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		}),
		"wrong issuer": signToken(t, testSecret, jwt.SigningMethodHS256, models.JWTClaims{
			UserID:           "u1",
			Role:             models.RoleLeadership,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
		}),
		"unknown role":             signToken(t, testSecret, jwt.SigningMethodHS256, models.JWTClaims{UserID: "u1", Role: "admin"}),
		"presenter without branch": signToken(t, testSecret, jwt.SigningMethodHS256, models.JWTClaims{UserID: "u1", Role: models.RolePresenter}),
		"garbage":                  "not-a-token",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
		})
	}
}

func TestValidateTokenAcceptsAnyConfiguredAudience(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{
		AccessTokenSecret: testSecret,
		Issuer:            "pmb-auth",
		Audience:          []string{"pmb-web", "pmb-mobile"},
	})

	for _, aud := range []string{"pmb-web", "pmb-mobile"} {
		t.Run(aud, func(t *testing.T) {
			raw := signToken(t, testSecret, jwt.SigningMethodHS256, models.JWTClaims{
				UserID:           "u1",
				Role:             models.RoleLeadership,
				RegisteredClaims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{aud}},
			})
			claims, err := svc.ValidateToken(raw)
			require.NoError(t, err)
			assert.Equal(t, "u1", claims.UserID)
		})
	}

	raw := signToken(t, testSecret, jwt.SigningMethodHS256, models.JWTClaims{
		UserID:           "u1",
		Role:             models.RoleLeadership,
		RegisteredClaims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{"pmb-kiosk"}},
	})
	_, err := svc.ValidateToken(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
