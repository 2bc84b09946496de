package auth

import (
	"context"
	"errors"
	"time"

	"go-lms/internal/common/models"
	"go-lms/internal/features/user"
	"go-lms/pkg/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRoleNotAllowed     = errors.New("role must be student or teacher")
)

type AuthService interface {
	Register(ctx context.Context, name, email, password, role string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

type AuthServiceImpl struct {
	UserRepo user.UserRepository
	Log      *zap.Logger
}

func NewAuthService(userRepo user.UserRepository, log *zap.Logger) AuthService {
	return &AuthServiceImpl{
		UserRepo: userRepo,
		Log:      log,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	if role == "" {
		role = models.RoleStudent
	}
	// Admin accounts are provisioned out of band, never through this endpoint.
	if role != models.RoleStudent && role != models.RoleTeacher {
		return nil, ErrRoleNotAllowed
	}

	if _, err := s.UserRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	newUser := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}

	if err := s.UserRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	s.Log.Info("user registered", zap.String("user_id", newUser.ID.Hex()), zap.String("role", role))
	return newUser, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	// Login history is append-only; a failed history write should not block login.
	if err := s.UserRepo.RecordLogin(ctx, u.ID, time.Now()); err != nil {
		s.Log.Warn("failed to record login timestamp", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	token, err := utils.GenerateToken(u.ID, u.Email, u.Role)
	if err != nil {
		return "", nil, err
	}

	return token, u, nil
}
