package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
)

type UserService struct {
	log        *slog.Logger
	repo       domain.UserRepository
	bcryptCost int
}

func NewUserService(log *slog.Logger, repo domain.UserRepository, bcryptCost int) *UserService {
	return &UserService{log: log, repo: repo, bcryptCost: bcryptCost}
}

type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	FatherName string
	Role       domain.Role
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: email", domain.ErrValidation)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("%w: name", domain.ErrValidation)
	}
	if in.Role != domain.RoleUser && in.Role != domain.RoleLawyer {
		return nil, fmt.Errorf("%w: role", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		FatherName:   strings.TrimSpace(in.FatherName),
		Role:         in.Role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		s.log.ErrorContext(ctx, "user - register - create failed", "email", in.Email, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "user - register - account created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		s.log.ErrorContext(ctx, "user - login - lookup failed", "email", email, "err", err)
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Lawyers returns the directory for the lawyer-selection screen.
func (s *UserService) Lawyers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListLawyers(ctx)
}
