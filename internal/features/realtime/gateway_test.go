package realtime

import (
	"context"
	"errors"
	"testing"

	"go-lms/internal/common/models"
	"go-lms/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeResolver struct {
	users map[primitive.ObjectID]*models.User
}

func (r *fakeResolver) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return u, nil
}

type fakeMemberships struct {
	groups map[primitive.ObjectID][]primitive.ObjectID
	err    error
}

func (m *fakeMemberships) GroupIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.groups[userID], nil
}

func (m *fakeMemberships) IsMember(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error) {
	for _, g := range m.groups[userID] {
		if g == groupID {
			return true, nil
		}
	}
	return false, nil
}

func verifierFor(userID primitive.ObjectID, validToken string) TokenVerifier {
	return TokenVerifierFunc(func(credential string) (*utils.UserClaims, error) {
		if credential != validToken {
			return nil, errors.New("signature mismatch")
		}
		return &utils.UserClaims{UserID: userID.Hex()}, nil
	})
}

func TestResolveSubscriber(t *testing.T) {
	userID := primitive.NewObjectID()
	groupID := primitive.NewObjectID()

	users := &fakeResolver{users: map[primitive.ObjectID]*models.User{
		userID: {ID: userID, Role: models.RoleStudent},
	}}
	memberships := &fakeMemberships{groups: map[primitive.ObjectID][]primitive.ObjectID{
		userID: {groupID},
	}}

	g := NewGateway(NewHub(), verifierFor(userID, "good-token"), users, memberships, zap.NewNop())

	u, groups, err := g.resolveSubscriber(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("resolveSubscriber failed: %v", err)
	}
	if u.ID != userID {
		t.Errorf("resolved user %s, want %s", u.ID.Hex(), userID.Hex())
	}
	if len(groups) != 1 || groups[0] != groupID {
		t.Errorf("groups = %v, want [%s]", groups, groupID.Hex())
	}
}

func TestResolveSubscriberRejectsBadCredential(t *testing.T) {
	userID := primitive.NewObjectID()
	users := &fakeResolver{users: map[primitive.ObjectID]*models.User{
		userID: {ID: userID},
	}}

	g := NewGateway(NewHub(), verifierFor(userID, "good-token"), users, &fakeMemberships{}, zap.NewNop())

	if _, _, err := g.resolveSubscriber(context.Background(), "forged"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("err = %v, want ErrInvalidCredential", err)
	}
}

func TestResolveSubscriberRejectsUnknownUser(t *testing.T) {
	// The token verifies but the account no longer exists.
	goneID := primitive.NewObjectID()
	g := NewGateway(NewHub(), verifierFor(goneID, "good-token"),
		&fakeResolver{users: map[primitive.ObjectID]*models.User{}}, &fakeMemberships{}, zap.NewNop())

	if _, _, err := g.resolveSubscriber(context.Background(), "good-token"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("err = %v, want ErrInvalidCredential", err)
	}
}

func TestResolveSubscriberToleratesMembershipLookupFailure(t *testing.T) {
	userID := primitive.NewObjectID()
	users := &fakeResolver{users: map[primitive.ObjectID]*models.User{
		userID: {ID: userID},
	}}
	memberships := &fakeMemberships{err: errors.New("collection offline")}

	g := NewGateway(NewHub(), verifierFor(userID, "good-token"), users, memberships, zap.NewNop())

	u, groups, err := g.resolveSubscriber(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("resolveSubscriber failed: %v", err)
	}
	if u == nil || groups != nil {
		t.Errorf("want user with no group rooms, got user=%v groups=%v", u, groups)
	}
}

func TestBroadcastWithoutHubIsNoop(t *testing.T) {
	g := NewGateway(nil, nil, nil, nil, zap.NewNop())

	// Must not panic; delivery is best effort.
	g.BroadcastToAll("news-posted", nil)
	g.BroadcastToGroup("g1", "group-updated", nil)
	g.BroadcastToUser("u1", "progress-updated", nil)
}

func TestGatewayBroadcastRouting(t *testing.T) {
	hub := NewHub()
	g := NewGateway(hub, nil, nil, nil, zap.NewNop())

	inGroup := &fakeSender{}
	personal := &fakeSender{}
	outsider := &fakeSender{}
	hub.Register("c1", inGroup)
	hub.Register("c2", personal)
	hub.Register("c3", outsider)
	hub.Join("c1", GroupRoom("g1"))
	hub.Join("c2", UserRoom("u1"))

	g.BroadcastToGroup("g1", "message-posted", nil)
	g.BroadcastToUser("u1", "study-reminder", nil)

	if got := inGroup.received(); len(got) != 1 || got[0] != "message-posted" {
		t.Errorf("group room got %v", got)
	}
	if got := personal.received(); len(got) != 1 || got[0] != "study-reminder" {
		t.Errorf("user room got %v", got)
	}
	if got := outsider.received(); len(got) != 0 {
		t.Errorf("outsider got %v, want nothing", got)
	}
}
