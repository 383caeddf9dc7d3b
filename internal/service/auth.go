package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tours/internal/clock"
	"tours/internal/repository"
)

// RoleAdmin is the only role that can use the dashboard.
const RoleAdmin = "admin"

// AdminClaims are the JWT claims of a dashboard operator.
type AdminClaims struct {
	AdminID string `json:"adminId"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and validates admin tokens.
type AuthService struct {
	adminRepo repository.AdminRepository
	secret    []byte
	ttl       time.Duration
	clock     clock.Clock
}

// NewAuthService creates a new AuthService.
func NewAuthService(adminRepo repository.AdminRepository, secret string, ttl time.Duration, clk clock.Clock) *AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &AuthService{
		adminRepo: adminRepo,
		secret:    []byte(secret),
		ttl:       ttl,
		clock:     clk,
	}
}

// Login checks admin credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrInvalidCredentials
	}

	admin, err := s.adminRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if !admin.Active {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.IssueToken(admin.ID, admin.Email)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueToken signs an admin token.
func (s *AuthService) IssueToken(adminID, email string) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	claims := AdminClaims{
		AdminID: adminID,
		Email:   email,
		Role:    RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies an admin token.
func (s *AuthService) ValidateToken(tokenStr string) (*AdminClaims, error) {
	if tokenStr == "" || len(s.secret) == 0 {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenStr, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
