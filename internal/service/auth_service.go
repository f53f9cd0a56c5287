package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tempnote-be/internal/dto"
	"tempnote-be/internal/entity"
	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/pkg/mailer"
	"tempnote-be/internal/repository/specification"
	"tempnote-be/internal/repository/unitofwork"
	"tempnote-be/internal/session"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	IssueFor(user *entity.User) (*dto.LoginResponse, error)
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	tokens         *session.Tokens
	emailService   mailer.IEmailService
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	tokens *session.Tokens,
	emailService mailer.IEmailService,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		tokens:         tokens,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", entity.ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		FullName:     req.FullName,
		PasswordHash: &hashStr,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("AuthService", "User registered", map[string]interface{}{"user_id": user.Id})
	publishDomainEvent(ctx, s.eventPublisher, s.logger, EventUserRegistered, map[string]interface{}{"user_id": user.Id})

	if s.emailService != nil {
		go func(email, name string) {
			if err := s.emailService.SendWelcome(email, name); err != nil {
				s.logger.Warn("AuthService", "Welcome email not sent", map[string]interface{}{"error": err})
			}
		}(user.Email, user.FullName)
	}

	return &dto.RegisterResponse{Id: user.Id, Email: user.Email}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: normalizeEmail(req.Email)})
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil {
		return nil, entity.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, entity.ErrInvalidCredentials
	}
	return s.IssueFor(user)
}

func (s *authService) IssueFor(user *entity.User) (*dto.LoginResponse, error) {
	token, err := s.tokens.Issue(session.Identity{UserID: user.Id, Label: user.Email})
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		User: dto.UserResponse{
			Id:        user.Id,
			Email:     user.Email,
			FullName:  user.FullName,
			CreatedAt: user.CreatedAt,
		},
	}, nil
}
