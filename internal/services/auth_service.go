package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"blogapi/internal/models"
	"blogapi/internal/repositories"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

var errWrongCredentials = models.NewUnauthorizedError("Wrong credentials")

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Username     string
	Email        string
}

// AuthService handles registration, login and token based identity.
type AuthService struct {
	userRepo  repositories.UserRepository
	tokens    *TokenService
	hashCost  int
	dummyHash []byte
	validate  *validator.Validate
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService. publisher may be nil.
func NewAuthService(
	userRepo repositories.UserRepository,
	tokens *TokenService,
	hashCost int,
	publisher EventPublisher,
	logger *slog.Logger,
) *AuthService {
	// Compared against when the email is unknown so both login failures
	// cost one bcrypt comparison.
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), hashCost)
	if err != nil {
		logger.Error("failed to prepare dummy password hash", slog.Any("error", err))
	}
	return &AuthService{
		userRepo:  userRepo,
		tokens:    tokens,
		hashCost:  hashCost,
		dummyHash: dummyHash,
		validate:  validator.New(),
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, models.NewInvalidInputError("Email is not valid")
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, models.NewConflictError("Email is taken")
	case !errors.Is(err, repositories.ErrNotFound):
		s.logger.Error("failed to look up email", slog.Any("error", err))
		return nil, models.NewInternalError(err)
	}

	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, models.NewInvalidInputError(fmt.Sprintf("Password should be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		return nil, models.NewInvalidInputError(fmt.Sprintf("Password should be at most %d bytes", maxPasswordBytes))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("failed to hash password: %w", err))
	}

	user := models.NewUser(email, string(hash), s.now())
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, models.NewConflictError("Email is taken")
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.NewInternalError(err)
	}

	s.logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	publishEvent(s.publisher, s.logger, Event{
		Event:      EventUserRegistered,
		OccurredAt: user.CreatedAt,
		UserID:     user.ID,
	})
	return user, nil
}

// Login verifies credentials and issues an access and a refresh token.
// Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("failed to look up user for login", slog.Any("error", err))
			return nil, models.NewInternalError(err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, errWrongCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errWrongCredentials
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Username:     user.Username,
		Email:        user.Email,
	}, nil
}

// CurrentIdentity resolves an access token to its user.
func (s *AuthService) CurrentIdentity(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.Parse(accessToken, AccessToken)
	if err != nil {
		s.logger.Debug("access token rejected", slog.Any("error", err))
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.NewUnauthorizedError("Invalid or expired token")
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself stays valid until it expires.
func (s *AuthService) Refresh(_ context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, RefreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected", slog.Any("error", err))
		return "", models.NewUnauthorizedError("Invalid or expired token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return "", models.NewUnauthorizedError("Invalid or expired token")
	}

	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return access, nil
}

// DeleteAccount removes the user together with every post it wrote.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.NewNotFoundError("User not found")
		}
		s.logger.Error("failed to delete user", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return models.NewInternalError(err)
	}

	s.logger.Info("user deleted", slog.Uint64("user_id", uint64(userID)))
	publishEvent(s.publisher, s.logger, Event{
		Event:      EventUserDeleted,
		OccurredAt: s.now(),
		UserID:     userID,
	})
	return nil
}
