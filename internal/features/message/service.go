package message

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotAMember = errors.New("user is not a member of this group")
	ErrEmptyBody  = errors.New("message body is required")
)

// MembershipChecker is the slice of the membership service this feature needs.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error)
}

// Broadcaster is the slice of the realtime gateway this feature needs.
type Broadcaster interface {
	BroadcastToGroup(groupID, event string, payload any)
}

type MessageService interface {
	Post(ctx context.Context, authorID, groupID primitive.ObjectID, body string, isAdmin bool) (*Message, error)
	List(ctx context.Context, callerID, groupID primitive.ObjectID, isAdmin bool) ([]Message, error)
}

type MessageServiceImpl struct {
	repo        MessageRepository
	memberships MembershipChecker
	broadcaster Broadcaster
}

func NewMessageService(repo MessageRepository, memberships MembershipChecker, broadcaster Broadcaster) MessageService {
	return &MessageServiceImpl{
		repo:        repo,
		memberships: memberships,
		broadcaster: broadcaster,
	}
}

const listLimit = 100

// Post stores the message and fans it out to the group's room. Only members
// may post; admins are exempt from the membership gate.
func (s *MessageServiceImpl) Post(ctx context.Context, authorID, groupID primitive.ObjectID, body string, isAdmin bool) (*Message, error) {
	if body == "" {
		return nil, ErrEmptyBody
	}

	if !isAdmin {
		member, err := s.memberships.IsMember(ctx, authorID, groupID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, ErrNotAMember
		}
	}

	message := &Message{
		GroupID:  groupID,
		AuthorID: authorID,
		Body:     body,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}

	// Delivery is best effort; the message is already stored.
	s.broadcaster.BroadcastToGroup(groupID.Hex(), "message-posted", message)
	return message, nil
}

func (s *MessageServiceImpl) List(ctx context.Context, callerID, groupID primitive.ObjectID, isAdmin bool) ([]Message, error) {
	if !isAdmin {
		member, err := s.memberships.IsMember(ctx, callerID, groupID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, ErrNotAMember
		}
	}
	return s.repo.ListByGroup(ctx, groupID, listLimit)
}
