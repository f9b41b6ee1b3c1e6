package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardbillhq/cardbill-api/internal/auth"
	"github.com/cardbillhq/cardbill-api/internal/config"
	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/logging"
)

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, isActive, isAdmin bool) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

type ledgerReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type mailer interface {
	Send(ctx context.Context, to, subject string, payload []byte) error
}

type UserService struct {
	users  userRepo
	ledger ledgerReader
	mailer mailer
	cfg    *config.Config
}

func NewUserService(users userRepo, ledger ledgerReader, m mailer, cfg *config.Config) *UserService {
	return &UserService{users: users, ledger: ledger, mailer: m, cfg: cfg}
}

type RegisterRequest struct {
	Email    string
	Username string
	FullName string
	Password string
}

func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	log := logging.FromContext(ctx)

	if req.Email == "" || req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("Register: %w", domain.ErrInvalidRequest)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("Register: password too short: %w", domain.ErrInvalidRequest)
	}

	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("Register: %w", domain.ErrUsernameExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Register: check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Register: hash password: %w", err)
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:               uuid.New(),
		Email:            req.Email,
		Username:         req.Username,
		FullName:         req.FullName,
		PasswordHash:     string(hash),
		Balance:          decimal.Zero,
		IsActive:         true,
		VerificationCode: &code,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	// Verification mail is best effort; the user can request the code again.
	if err := s.mailer.Send(ctx, user.Email, "Verify your account",
		[]byte(fmt.Sprintf("Your verification code is %s", code))); err != nil {
		log.Warn("verification mail failed", "user_id", user.ID, "error", err)
	}

	log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

type LoginResult struct {
	Token string
	User  *domain.User
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("Login: %w", domain.ErrAccountInactive)
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.IsAdmin, s.cfg.JWTSecret, s.cfg.JWTExpiry)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

func (s *UserService) VerifyEmail(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("VerifyEmail: %w", err)
	}
	if user.IsVerified {
		return nil
	}
	if user.VerificationCode == nil || *user.VerificationCode != code {
		return fmt.Errorf("VerifyEmail: %w", domain.ErrInvalidCode)
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return fmt.Errorf("VerifyEmail: %w", err)
	}
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetProfile: %w", err)
	}
	return user, nil
}

func (s *UserService) GetLedger(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	entries, total, err := s.ledger.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("GetLedger: %w", err)
	}
	return entries, total, nil
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	return users, nil
}

// UpdateUser lets an admin rename, deactivate or promote an account.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, fullName string, isActive, isAdmin bool) (*domain.User, error) {
	if err := s.users.UpdateProfile(ctx, id, fullName, isActive, isAdmin); err != nil {
		return nil, fmt.Errorf("UpdateUser: %w", err)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateUser: %w", err)
	}
	return user, nil
}

func generateVerificationCode() (string, error) {
	digits := make([]byte, 6)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generateVerificationCode: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}
