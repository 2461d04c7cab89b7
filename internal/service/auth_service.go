package service

import (
	"errors"
	"strings"

	"bullex/config"
	"bullex/internal/auth"
	"bullex/internal/domain"
	"bullex/internal/models"
	"bullex/internal/repository"
	"bullex/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService struct {
	users *repository.UserRepository
	jwt   *config.JWTConfig
}

func NewAuthService(users *repository.UserRepository, jwt *config.JWTConfig) *AuthService {
	return &AuthService{users: users, jwt: jwt}
}

func (s *AuthService) Register(email, password string) (*models.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, nil, ErrInvalidCreds
	}
	if _, err := s.users.GetByEmail(email); err == nil {
		return nil, nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleTrader,
		Currency:     domain.DefaultCurrency,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	logger.Log.Info("user registered", zap.Uint("user_id", user.ID))
	return user, tokens, nil
}

func (s *AuthService) Login(email, password string) (*models.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCreds
		}
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCreds
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateAccessToken(s.jwt, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateRefreshToken(s.jwt, user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
