package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
	UserType    models.UserType
}

// AuthService handles registration and login.
type AuthService struct {
	tx       TxManager
	reader   UserReader
	writer   UserWriter
	balances BalanceStore
	jwt      JWTGenerator
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(tx TxManager, reader UserReader, writer UserWriter, balances BalanceStore, jwt JWTGenerator) *AuthService {
	return &AuthService{
		tx:       tx,
		reader:   reader,
		writer:   writer,
		balances: balances,
		jwt:      jwt,
	}
}

// Register creates a USER or COURIER account together with its empty profile.
func (svc *AuthService) Register(ctx context.Context, in RegisterInput) (*models.UserDB, error) {
	if !in.UserType.HasBalance() {
		return nil, ErrInvalidAccountType
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return nil, err
	}

	user := &models.UserDB{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hashedPassword),
		FullName:     in.FullName,
		UserType:     in.UserType,
		IsActive:     true,
	}
	if in.PhoneNumber != "" {
		phone := in.PhoneNumber
		user.PhoneNumber = &phone
	}

	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.writer.Save(ctx, user); err != nil {
			return err
		}
		return svc.balances.CreateProfile(ctx, user.UserType, user.UserID)
	})
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			logger.Log.Warnw("user already exists", "email", user.Email)
		} else {
			logger.Log.Errorw("failed to save user", "err", err)
		}
		return nil, err
	}

	return user, nil
}

// CreateAdmin creates a staff account without a wallet.
func (svc *AuthService) CreateAdmin(ctx context.Context, email, password string) (*models.UserDB, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.UserDB{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hashedPassword),
		FullName:     "Administrator",
		UserType:     models.UserTypeAdmin,
		IsActive:     true,
		IsStaff:      true,
	}
	if err := svc.writer.Save(ctx, user); err != nil {
		logger.Log.Errorw("failed to save admin", "email", user.Email, "err", err)
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and returns a JWT token.
func (svc *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := svc.reader.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		logger.Log.Warnw("user does not exist", "email", email)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Log.Warnw("invalid credentials", "email", email)
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", ErrAccountDisabled
	}

	token, err := svc.jwt.Generate(ctx, user)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return "", err
	}

	return token, nil
}
