package user

import (
	"context"
	"errors"

	"go-lms/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidLearningPath = errors.New("learning path must be beginner, intermediate or advanced")

type UserService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	SetLearningPath(ctx context.Context, userID primitive.ObjectID, path string) error
}

type UserServiceImpl struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) UserService {
	return &UserServiceImpl{repo: repo}
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *UserServiceImpl) SetLearningPath(ctx context.Context, userID primitive.ObjectID, path string) error {
	switch path {
	case models.PathBeginner, models.PathIntermediate, models.PathAdvanced:
	default:
		return ErrInvalidLearningPath
	}
	return s.repo.UpdateLearningPath(ctx, userID, path)
}
