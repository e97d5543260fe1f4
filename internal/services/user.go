package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"partymatch/internal/domain"
)

const (
	minPasswordLength   = 8
	loginCodeDigits     = 6
	loginCodeExpiryMins = 15
)

var (
	emailRegexp    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	loginCodeRegex = regexp.MustCompile(`^\d{6}$`)
)

type userService struct {
	userRepo      domain.UserRepository
	loginCodeRepo domain.LoginCodeRepository
	hasher        domain.PasswordHasher
	tokenIssuer   domain.TokenIssuer
	tokenExpiry   time.Duration
	emailService  domain.EmailService
}

// NewUserService creates a UserService with the given repositories and auth ports.
func NewUserService(userRepo domain.UserRepository, loginCodeRepo domain.LoginCodeRepository, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, tokenExpiry time.Duration, emailService domain.EmailService) domain.UserService {
	return &userService{
		userRepo:      userRepo,
		loginCodeRepo: loginCodeRepo,
		hasher:        hasher,
		tokenIssuer:   tokenIssuer,
		tokenExpiry:   tokenExpiry,
		emailService:  emailService,
	}
}

func (s *userService) Register(ctx context.Context, email, password, name string) (string, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return "", nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return "", nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.NewUser(email, strings.TrimSpace(name), hash, salt, now, now)
	user.ID = uuid.NewString()
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return "", nil, domain.ErrDuplicateEmail
		}
		return "", nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.emailService != nil {
		// Best effort: registration succeeds even if the welcome email fails.
		_ = s.emailService.SendWelcome(ctx, &domain.WelcomeEmailData{Email: user.Email, Name: user.Name})
	}

	token, err := s.tokenIssuer.Issue(user.ID, user.Email, []string{domain.RoleHost}, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return "", nil, domain.ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	// Accounts created through the login-code flow have no password set.
	if user.PasswordHash == "" {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	token, err := s.tokenIssuer.Issue(user.ID, user.Email, []string{domain.RoleHost}, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

func (s *userService) RequestLoginCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	code, err := generateLoginCode(loginCodeDigits)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	codeHash := hashLoginCode(code)
	expiresAt := time.Now().Add(loginCodeExpiryMins * time.Minute)
	if err := s.loginCodeRepo.Create(ctx, email, codeHash, expiresAt); err != nil {
		return fmt.Errorf("failed to store login code: %w", err)
	}
	if s.emailService != nil {
		data := &domain.LoginCodeEmailData{
			Email:            email,
			Code:             code,
			ExpiresInMinutes: loginCodeExpiryMins,
		}
		if err := s.emailService.SendLoginCode(ctx, data); err != nil {
			return fmt.Errorf("failed to send login code email: %w", err)
		}
	}
	return nil
}

func (s *userService) VerifyLoginCode(ctx context.Context, email, code string) (string, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return "", nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	code = strings.TrimSpace(code)
	if !loginCodeRegex.MatchString(code) {
		return "", nil, domain.ErrInvalidCredentials
	}
	codeHash := hashLoginCode(code)
	consumed, err := s.loginCodeRepo.Consume(ctx, email, codeHash)
	if err != nil {
		return "", nil, fmt.Errorf("failed to verify code: %w", err)
	}
	if !consumed {
		return "", nil, domain.ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("failed to get user: %w", err)
		}
		// First login with a code: create the host account with no password.
		now := time.Now()
		user = domain.NewUser(email, "", "", "", now, now)
		user.ID = uuid.NewString()
		if err := s.userRepo.Create(ctx, user); err != nil {
			return "", nil, fmt.Errorf("failed to create user: %w", err)
		}
	}
	token, err := s.tokenIssuer.Issue(user.ID, user.Email, []string{domain.RoleHost}, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

func generateLoginCode(digits int) (string, error) {
	const digitspace = "0123456789"
	b := make([]byte, digits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = digitspace[int(b[i])%len(digitspace)]
	}
	return string(b), nil
}

func hashLoginCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
