package news

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidKind = errors.New("news kind must be news or exam")

// Broadcaster is the slice of the realtime gateway this feature needs.
type Broadcaster interface {
	BroadcastToAll(event string, payload any)
}

type NewsService interface {
	Post(ctx context.Context, createdBy primitive.ObjectID, title, body, kind string) (*News, error)
	List(ctx context.Context) ([]News, error)
}

type NewsServiceImpl struct {
	repo        NewsRepository
	broadcaster Broadcaster
}

func NewNewsService(repo NewsRepository, broadcaster Broadcaster) NewsService {
	return &NewsServiceImpl{
		repo:        repo,
		broadcaster: broadcaster,
	}
}

const listLimit = 50

func (s *NewsServiceImpl) Post(ctx context.Context, createdBy primitive.ObjectID, title, body, kind string) (*News, error) {
	if title == "" {
		return nil, errors.New("news title is required")
	}
	if kind == "" {
		kind = KindNews
	}
	if kind != KindNews && kind != KindExam {
		return nil, ErrInvalidKind
	}

	item := &News{
		Title:     title,
		Body:      body,
		Kind:      kind,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToAll("news-posted", item)
	return item, nil
}

func (s *NewsServiceImpl) List(ctx context.Context) ([]News, error) {
	return s.repo.List(ctx, listLimit)
}
