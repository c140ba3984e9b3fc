package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/models"
)

// Error variables
var (
	ErrOperatorAlreadyExists = errors.New("username or email already exists")
	ErrOperatorDoesNotExist  = errors.New("username does not exist")
	ErrInvalidCredentials    = errors.New("invalid username or password")
)

// OperatorReader defines read-only operations for reviewer accounts.
type OperatorReader interface {
	GetByUsernameOrEmail(ctx context.Context, username *string, email *string) (*models.OperatorDB, error)
}

// OperatorWriter defines write operations for reviewer accounts.
type OperatorWriter interface {
	Save(ctx context.Context, username string, passwordHash string, email string) error
}

// JWTGenerator defines an interface for generating JWT tokens.
type JWTGenerator interface {
	Generate(ctx context.Context, operatorID uuid.UUID) (string, error)
}

// AuthService handles reviewer registration and login.
type AuthService struct {
	reader OperatorReader
	writer OperatorWriter
	jwt    JWTGenerator
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader OperatorReader, writer OperatorWriter, jwt JWTGenerator) *AuthService {
	return &AuthService{
		reader: reader,
		writer: writer,
		jwt:    jwt,
	}
}

// Register registers a new reviewer account.
func (svc *AuthService) Register(ctx context.Context, username, password, email string) error {
	operator, err := svc.reader.GetByUsernameOrEmail(ctx, &username, &email)
	if err != nil {
		logger.Log.Errorw("failed to check operator exists", "err", err)
		return err
	}
	if operator != nil {
		logger.Log.Errorw("operator already exists", "username", username, "email", email)
		return ErrOperatorAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return err
	}

	if err := svc.writer.Save(ctx, username, string(hashedPassword), email); err != nil {
		logger.Log.Errorw("failed to save operator", "err", err)
		return err
	}

	return nil
}

// Login authenticates a reviewer and returns a JWT token.
func (svc *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	operator, err := svc.reader.GetByUsernameOrEmail(ctx, &username, nil)
	if err != nil {
		logger.Log.Errorw("failed to get operator", "err", err)
		return "", err
	}
	if operator == nil {
		logger.Log.Errorw("operator does not exist", "username", username)
		return "", ErrOperatorDoesNotExist
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)); err != nil {
		logger.Log.Errorw("invalid credentials", "username", username)
		return "", ErrInvalidCredentials
	}

	token, err := svc.jwt.Generate(ctx, operator.OperatorID)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return "", err
	}

	return token, nil
}
