package group

import (
	"context"
	"errors"
	"fmt"

	"go-lms/internal/common/models"
	"go-lms/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type GroupService interface {
	CreateGroup(ctx context.Context, group *Group) error
	GetAllGroups(ctx context.Context) ([]Group, error)
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*Group, error)
	UpdateGroup(ctx context.Context, id primitive.ObjectID, name, level string) error

	GetGroupsForUser(ctx context.Context, userID primitive.ObjectID) ([]Group, error)
	IsMember(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error)
	Assign(ctx context.Context, userID, groupID primitive.ObjectID, isAdmin bool) error
	Remove(ctx context.Context, userID, groupID primitive.ObjectID) error
}

type GroupServiceImpl struct {
	repo  GroupRepository
	users user.UserRepository
	log   *zap.Logger
}

func NewGroupService(repo GroupRepository, users user.UserRepository, log *zap.Logger) GroupService {
	return &GroupServiceImpl{
		repo:  repo,
		users: users,
		log:   log,
	}
}

func (s *GroupServiceImpl) CreateGroup(ctx context.Context, group *Group) error {
	if group.Name == "" {
		return errors.New("group name is required")
	}
	if group.Type != TypeSingle && group.Type != TypeMulti {
		return errors.New("group type must be single or multi")
	}
	return s.repo.Create(ctx, group)
}

func (s *GroupServiceImpl) GetAllGroups(ctx context.Context) ([]Group, error) {
	return s.repo.FindAll(ctx)
}

func (s *GroupServiceImpl) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	return group, err
}

func (s *GroupServiceImpl) UpdateGroup(ctx context.Context, id primitive.ObjectID, name, level string) error {
	if name == "" {
		return errors.New("group name is required")
	}
	if _, err := s.GetGroupByID(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateDetails(ctx, id, name, level)
}

func (s *GroupServiceImpl) GetGroupsForUser(ctx context.Context, userID primitive.ObjectID) ([]Group, error) {
	return s.repo.FindByMember(ctx, userID)
}

// IsMember returns false, not an error, for a group that does not exist.
func (s *GroupServiceImpl) IsMember(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error) {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return group.HasMember(userID), nil
}

// Assign adds a user to a group while holding the one-student-one-group
// invariant. Admins are exempt: they are tracked purely via the group's
// member set and may belong to many groups, their group_id field is never
// touched. A student already in a different group must be removed first.
func (s *GroupServiceImpl) Assign(ctx context.Context, userID, groupID primitive.ObjectID, isAdmin bool) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}

	g, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}

	if g.Type == TypeSingle && len(g.Members) > 0 && !g.HasMember(userID) {
		return ErrGroupFull
	}

	if isAdmin || u.Role == models.RoleAdmin {
		// $addToSet makes this a no-op when already present.
		return s.repo.AddMember(ctx, groupID, userID)
	}

	if u.GroupID != nil {
		if *u.GroupID == groupID {
			// Idempotent success, no duplicate write.
			return nil
		}
		return ErrAlreadyAssigned
	}

	// The user's own field says unassigned; re-verify against the groups
	// collection in case a stale or legacy document lists them anyway.
	// Surface the inconsistency instead of silently fixing state.
	n, err := s.repo.CountByMember(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Warn("student has no group_id but appears in a members array",
			zap.String("user_id", userID.Hex()))
		return ErrAlreadyAssigned
	}

	claimed, err := s.users.ClaimGroup(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !claimed {
		// A concurrent assign won the compare-and-swap.
		return ErrAlreadyAssigned
	}

	if err := s.repo.AddMember(ctx, groupID, userID); err != nil {
		// The user document now points at a group that does not list them.
		// There is no transaction here; report the partial failure loudly.
		s.log.Error("member list write failed after claiming student",
			zap.String("user_id", userID.Hex()),
			zap.String("group_id", groupID.Hex()),
			zap.Error(err))
		return fmt.Errorf("user %s claimed for group %s but member list update failed: %w",
			userID.Hex(), groupID.Hex(), err)
	}

	return nil
}

// Remove clears the user's group_id unconditionally and pulls them from the
// member set. Removing an absent member is a no-op, not an error, and an
// emptied group is never deleted.
func (s *GroupServiceImpl) Remove(ctx context.Context, userID, groupID primitive.ObjectID) error {
	if err := s.users.ClearGroup(ctx, userID); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, groupID, userID)
}
