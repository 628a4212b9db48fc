package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/festivalhq/admin-service/internal/auth"
	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/port/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired session token")
	ErrAdminInactive      = errors.New("admin account is inactive")
)

// AuthUseCase issues and validates admin session tokens.
type AuthUseCase struct {
	adminRepo repository.AdminRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthUseCase(adminRepo repository.AdminRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthUseCase {
	return &AuthUseCase{
		adminRepo: adminRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type sessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Login checks credentials and returns a signed session token. The token is
// also cached so logout can invalidate it before expiry.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (string, *entity.Admin, error) {
	admin, err := uc.adminRepo.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !admin.IsActive {
		return "", nil, ErrAdminInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := sessionClaims{
		Name:  admin.Name,
		Email: admin.Email,
		Role:  admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID.Hex(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(uc.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.jwtSecret))
	if err != nil {
		uc.logger.Error("Failed to sign session token", zap.String("email", email), zap.Error(err))
		return "", nil, err
	}

	if err := uc.adminRepo.CacheToken(ctx, admin.ID.Hex(), token, uc.tokenTTL); err != nil {
		uc.logger.Error("Failed to cache session token", zap.String("adminID", admin.ID.Hex()), zap.Error(err))
		return "", nil, err
	}
	uc.logger.Info("Admin logged in", zap.String("adminID", admin.ID.Hex()), zap.String("role", admin.Role))
	return token, admin, nil
}

// Logout invalidates the cached session token.
func (uc *AuthUseCase) Logout(ctx context.Context, adminID string) error {
	return uc.adminRepo.InvalidateToken(ctx, adminID)
}

// ValidateSession parses a presented token, checks the signature and expiry,
// and confirms the token is still the cached one for its admin.
func (uc *AuthUseCase) ValidateSession(ctx context.Context, tokenString string) (entity.Actor, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(uc.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return entity.Actor{}, ErrInvalidToken
	}
	if !auth.IsValidRole(claims.Role) {
		return entity.Actor{}, ErrInvalidToken
	}

	cached, err := uc.adminRepo.GetToken(ctx, claims.Subject)
	if err != nil {
		uc.logger.Error("Failed to read cached session token", zap.String("adminID", claims.Subject), zap.Error(err))
		return entity.Actor{}, err
	}
	if cached == "" || cached != tokenString {
		return entity.Actor{}, ErrInvalidToken
	}

	return entity.Actor{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// EnsureSeedAdmin creates the initial super-admin when the admins
// collection is empty. Idempotent across restarts.
func (uc *AuthUseCase) EnsureSeedAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	count, err := uc.adminRepo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := &entity.Admin{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     auth.RoleSuperAdmin,
	}
	id, err := uc.adminRepo.CreateAdmin(ctx, admin)
	if err != nil {
		return err
	}
	uc.logger.Info("Seed super-admin created", zap.String("adminID", id.Hex()), zap.String("email", email))
	return nil
}
