package auth

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ms-ordering/internal/apperrors"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

type UserDB interface {
	CreateUser(user models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdatePassword(userID, passwordHash string) error
	UpdateEmail(userID, email string) error
}

type AttemptLimiter interface {
	Allow(clientID string) (bool, error)
	Reset(clientID string) error
}

// AuthService is the access-control gate: it verifies staff credentials,
// issues session tokens and handles account self-service.
type AuthService struct {
	DB             UserDB
	Tokens         *TokenManager
	Limiter        AttemptLimiter
	Logger         *logger.Logger
	MinPasswordLen int
}

func NewAuthService(db UserDB, tokens *TokenManager, limiter AttemptLimiter, log *logger.Logger, minPasswordLen int) *AuthService {
	return &AuthService{DB: db, Tokens: tokens, Limiter: limiter, Logger: log, MinPasswordLen: minPasswordLen}
}

// Login authenticates by email or username. Lookup and password failures
// produce the same generic error so attackers cannot probe for accounts.
func (s *AuthService) Login(clientID string, req models.LoginRequest) (*models.LoginResponse, error) {
	allowed, err := s.Limiter.Allow(clientID)
	if err != nil {
		s.Logger.Error("AUTH", fmt.Sprintf("login limiter: %v", err))
		// A broken limiter must not lock staff out.
		allowed = true
	}
	if !allowed {
		s.Logger.LogSecurity("RATE_LIMIT", "too many login attempts from "+clientID)
		return nil, apperrors.Auth("too many login attempts, try again later")
	}

	var user *models.User
	switch {
	case req.Email != "":
		user, err = s.DB.GetUserByEmail(req.Email)
	case req.Username != "":
		user, err = s.DB.GetUserByUsername(req.Username)
	default:
		return nil, apperrors.Validation("email or username is required",
			apperrors.FieldError{Field: "username", Message: "email or username is required"})
	}
	if err != nil {
		return nil, apperrors.Auth("invalid credentials")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", "bad password for "+user.Username)
		return nil, apperrors.Auth("invalid credentials")
	}

	if !user.Active {
		return nil, apperrors.Forbidden("account is deactivated")
	}

	token, err := s.Tokens.Issue(*user)
	if err != nil {
		return nil, apperrors.Storage("issue token", err)
	}

	if err := s.Limiter.Reset(clientID); err != nil {
		s.Logger.Error("AUTH", fmt.Sprintf("reset login attempts: %v", err))
	}

	s.Logger.Info("AUTH", "login successful for "+user.Username)
	return &models.LoginResponse{Token: token, User: *user}, nil
}

// Register creates a staff account. Exposed only behind an authenticated
// route; bootstrap of the first admin happens via the create-admin command.
func (s *AuthService) Register(req models.RegisterRequest) (*models.User, error) {
	var fields []apperrors.FieldError
	if strings.TrimSpace(req.Username) == "" {
		fields = append(fields, apperrors.FieldError{Field: "username", Message: "username is required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "invalid email address"})
	}
	if len(req.Password) < s.MinPasswordLen {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", s.MinPasswordLen)})
	}
	if !req.Role.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "role", Message: "role must be admin or staff"})
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("registration validation failed", fields...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Storage("hash password", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         req.Role,
		Name:         req.Name,
		Active:       true,
	}

	if err := s.DB.CreateUser(user); err != nil {
		return nil, err
	}

	s.Logger.Info("AUTH", "staff account created: "+user.Username)
	return &user, nil
}

func (s *AuthService) GetMe(userID string) (*models.User, error) {
	return s.DB.GetUserByID(userID)
}

// UpdatePassword requires proof of the current password.
func (s *AuthService) UpdatePassword(userID string, req models.PasswordUpdateRequest) error {
	user, err := s.DB.GetUserByID(userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apperrors.Auth("current password is incorrect")
	}

	if len(req.NewPassword) < s.MinPasswordLen {
		return apperrors.Validation("password too short",
			apperrors.FieldError{Field: "newPassword", Message: fmt.Sprintf("password must be at least %d characters", s.MinPasswordLen)})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Storage("hash password", err)
	}

	if err := s.DB.UpdatePassword(userID, string(hash)); err != nil {
		return err
	}

	s.Logger.LogSecurity("PASSWORD_CHANGED", "password updated for user "+userID)
	return nil
}

// UpdateEmail validates the new address and checks it is not already taken.
func (s *AuthService) UpdateEmail(userID string, req models.EmailUpdateRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.Validation("invalid email address",
			apperrors.FieldError{Field: "email", Message: "invalid email address"})
	}

	if existing, err := s.DB.GetUserByEmail(email); err == nil && existing.ID != userID {
		return nil, apperrors.Conflict("email already in use")
	}

	if err := s.DB.UpdateEmail(userID, email); err != nil {
		return nil, err
	}

	return s.DB.GetUserByID(userID)
}
