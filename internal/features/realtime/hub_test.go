package realtime

import (
	"sort"
	"sync"
	"testing"
)

// fakeSender records frames delivered to a single connection.
type fakeSender struct {
	mu     sync.Mutex
	events []string
	closed bool
}

func (s *fakeSender) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *fakeSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSender) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.events...)
}

func TestBroadcastToRoomIsolation(t *testing.T) {
	hub := NewHub()

	alice := &fakeSender{}
	bob := &fakeSender{}
	hub.Register("c1", alice)
	hub.Register("c2", bob)
	hub.Join("c1", GroupRoom("g1"))
	hub.Join("c2", GroupRoom("g2"))

	hub.BroadcastToRoom(GroupRoom("g1"), "group-updated", map[string]string{"id": "g1"})

	if got := alice.received(); len(got) != 1 || got[0] != "group-updated" {
		t.Errorf("room member got %v, want [group-updated]", got)
	}
	if got := bob.received(); len(got) != 0 {
		t.Errorf("other room received %v, want nothing", got)
	}
}

func TestBroadcastToAllReachesEveryConnection(t *testing.T) {
	hub := NewHub()

	senders := []*fakeSender{{}, {}, {}}
	hub.Register("c1", senders[0])
	hub.Register("c2", senders[1])
	hub.Register("c3", senders[2])
	hub.Join("c1", GroupRoom("g1"))

	hub.BroadcastToAll("news-posted", nil)

	for i, s := range senders {
		if got := s.received(); len(got) != 1 {
			t.Errorf("conn %d got %v, want one frame", i+1, got)
		}
	}
}

func TestJoinRequiresRegisteredConnection(t *testing.T) {
	hub := NewHub()

	hub.Join("ghost", GroupRoom("g1"))

	s := &fakeSender{}
	hub.Register("c1", s)
	hub.Join("c1", GroupRoom("g1"))
	hub.BroadcastToRoom(GroupRoom("g1"), "ping", nil)

	if got := s.received(); len(got) != 1 {
		t.Errorf("registered member got %v, want one frame", got)
	}
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	hub := NewHub()

	s := &fakeSender{}
	hub.Register("c1", s)
	hub.Join("c1", GroupRoom("g1"))
	hub.Join("c1", UserRoom("u1"))

	hub.Unregister("c1")

	hub.BroadcastToRoom(GroupRoom("g1"), "ping", nil)
	hub.BroadcastToRoom(UserRoom("u1"), "ping", nil)
	hub.BroadcastToAll("ping", nil)

	if got := s.received(); len(got) != 0 {
		t.Errorf("unregistered conn received %v, want nothing", got)
	}
}

func TestLeaveUnknownRoomIsNoop(t *testing.T) {
	hub := NewHub()

	s := &fakeSender{}
	hub.Register("c1", s)
	hub.Leave("c1", GroupRoom("never-joined"))
	hub.Leave("ghost", GroupRoom("g1"))
}

func TestRoomsTracksMembership(t *testing.T) {
	hub := NewHub()

	s := &fakeSender{}
	hub.Register("c1", s)
	hub.Join("c1", UserRoom("u1"))
	hub.Join("c1", GroupRoom("g1"))
	hub.Leave("c1", GroupRoom("g1"))

	got := hub.Rooms("c1")
	sort.Strings(got)
	if len(got) != 1 || got[0] != UserRoom("u1") {
		t.Errorf("Rooms = %v, want [%s]", got, UserRoom("u1"))
	}
}
