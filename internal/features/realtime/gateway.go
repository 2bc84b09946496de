package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-lms/internal/common/models"
	"go-lms/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Client-to-server events.
const (
	EventAuthenticate = "authenticate"
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
)

// Server-to-client events the gateway itself emits.
const (
	EventAuthenticated = "authenticated"
	EventError         = "error"
)

// A fresh handshake must present a credential within this window or the
// connection is dropped.
const authHandshakeTimeout = 10 * time.Second

var (
	ErrInvalidCredential      = errors.New("invalid credential")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrNotAuthorizedForRoom   = errors.New("not authorized for room")
)

// TokenVerifier checks a raw credential and returns the claims it carries.
type TokenVerifier interface {
	Verify(credential string) (*utils.UserClaims, error)
}

// TokenVerifierFunc adapts a plain function to TokenVerifier.
type TokenVerifierFunc func(credential string) (*utils.UserClaims, error)

func (f TokenVerifierFunc) Verify(credential string) (*utils.UserClaims, error) {
	return f(credential)
}

// UserResolver resolves a verified subject to the stored user.
type UserResolver interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Memberships answers the two membership questions the gateway asks.
type Memberships interface {
	GroupIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	IsMember(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error)
}

// Gateway owns the per-connection state machine and the broadcast surface
// the rest of the application uses after successful mutations.
type Gateway struct {
	hub         *Hub
	verifier    TokenVerifier
	users       UserResolver
	memberships Memberships
	log         *zap.Logger
}

func NewGateway(hub *Hub, verifier TokenVerifier, users UserResolver, memberships Memberships, log *zap.Logger) *Gateway {
	return &Gateway{
		hub:         hub,
		verifier:    verifier,
		users:       users,
		memberships: memberships,
		log:         log,
	}
}

// envelope is the JSON frame clients send.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// HandleConnection runs one connection's lifecycle:
// connected -> authenticating -> authenticated -> subscribed -> disconnected.
// A reconnect is just a new connection; there is no resume.
func (g *Gateway) HandleConnection(c *websocket.Conn) {
	connID := uuid.NewString()
	client := newWSClient(c)

	defer g.hub.Unregister(connID)

	var (
		authenticated bool
		userID        primitive.ObjectID
	)

	c.SetReadDeadline(time.Now().Add(authHandshakeTimeout))

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			// Read errors cover client close and the handshake deadline.
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			client.Send(EventError, errPayload("malformed frame"))
			continue
		}

		switch env.Event {
		case EventAuthenticate:
			if authenticated {
				continue
			}

			var data struct {
				Token string `json:"token"`
			}
			_ = json.Unmarshal(env.Data, &data)

			ctx, cancel := context.WithTimeout(context.Background(), authHandshakeTimeout)
			user, groupIDs, err := g.resolveSubscriber(ctx, data.Token)
			cancel()
			if err != nil {
				// Authentication failure forcibly disconnects.
				client.Send(EventError, errPayload(ErrInvalidCredential.Error()))
				g.log.Info("websocket authentication rejected", zap.Error(err))
				return
			}

			authenticated = true
			userID = user.ID
			c.SetReadDeadline(time.Time{})

			g.hub.Register(connID, client)
			g.hub.Join(connID, UserRoom(user.ID.Hex()))
			rooms := []string{UserRoom(user.ID.Hex())}
			for _, gid := range groupIDs {
				g.hub.Join(connID, GroupRoom(gid.Hex()))
				rooms = append(rooms, GroupRoom(gid.Hex()))
			}

			client.Send(EventAuthenticated, map[string]any{
				"user_id": user.ID.Hex(),
				"rooms":   rooms,
			})

		case EventJoinRoom:
			if !authenticated {
				client.Send(EventError, errPayload(ErrAuthenticationRequired.Error()))
				continue
			}

			gid, parseErr := parseGroupID(env.Data)
			if parseErr != nil {
				client.Send(EventError, errPayload("invalid group id"))
				continue
			}

			// Membership is re-validated on every explicit join; a failure
			// keeps the connection alive.
			member, err := g.memberships.IsMember(context.Background(), userID, gid)
			if err != nil {
				client.Send(EventError, errPayload("membership check failed"))
				continue
			}
			if !member {
				client.Send(EventError, errPayload(ErrNotAuthorizedForRoom.Error()))
				continue
			}
			g.hub.Join(connID, GroupRoom(gid.Hex()))

		case EventLeaveRoom:
			gid, parseErr := parseGroupID(env.Data)
			if parseErr != nil {
				client.Send(EventError, errPayload("invalid group id"))
				continue
			}
			g.hub.Leave(connID, GroupRoom(gid.Hex()))

		default:
			g.log.Debug("unknown websocket event", zap.String("event", env.Event))
		}
	}
}

// resolveSubscriber verifies the credential, resolves the stored user, and
// collects the group rooms the connection should auto-join.
func (g *Gateway) resolveSubscriber(ctx context.Context, token string) (*models.User, []primitive.ObjectID, error) {
	claims, err := g.verifier.Verify(token)
	if err != nil {
		return nil, nil, ErrInvalidCredential
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidCredential
	}

	user, err := g.users.FindByID(ctx, id)
	if err != nil {
		return nil, nil, ErrInvalidCredential
	}

	groupIDs, err := g.memberships.GroupIDsForUser(ctx, user.ID)
	if err != nil {
		// The personal room still works without the group list.
		g.log.Warn("failed to load group rooms for connection",
			zap.String("user_id", user.ID.Hex()), zap.Error(err))
		groupIDs = nil
	}

	return user, groupIDs, nil
}

func parseGroupID(data json.RawMessage) (primitive.ObjectID, error) {
	var body struct {
		GroupID string `json:"group_id"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(body.GroupID)
}

func errPayload(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// BroadcastToAll delivers to every connected client. With no hub attached
// this is a logged no-op: realtime delivery is best effort and must never
// fail a mutation that already succeeded.
func (g *Gateway) BroadcastToAll(event string, payload any) {
	if g.hub == nil {
		g.log.Warn("realtime hub not attached, dropping broadcast", zap.String("event", event))
		return
	}
	g.hub.BroadcastToAll(event, payload)
}

// BroadcastToGroup delivers to connections subscribed to group:<id>.
func (g *Gateway) BroadcastToGroup(groupID, event string, payload any) {
	if g.hub == nil {
		g.log.Warn("realtime hub not attached, dropping broadcast", zap.String("event", event))
		return
	}
	g.hub.BroadcastToRoom(GroupRoom(groupID), event, payload)
}

// BroadcastToUser delivers to connections subscribed to user:<id>.
func (g *Gateway) BroadcastToUser(userID, event string, payload any) {
	if g.hub == nil {
		g.log.Warn("realtime hub not attached, dropping broadcast", zap.String("event", event))
		return
	}
	g.hub.BroadcastToRoom(UserRoom(userID), event, payload)
}
