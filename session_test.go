package main

import (
	"errors"
	"testing"
)

func newTestManager(t *testing.T) *RoomManager {
	t.Helper()
	rm := NewRoomManager(DefaultConfig(), nil, nil)
	t.Cleanup(rm.StopAll)
	return rm
}

func TestGenerateRoomIDFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := GenerateRoomID()
		if _, err := validateRoomID(id); err != nil {
			t.Fatalf("room id %q does not validate", id)
		}
		seen[id] = true
	}
	if len(seen) < 45 {
		t.Errorf("room ids collide too often: %d unique of 50", len(seen))
	}
}

func TestRoomManagerCreateAndJoin(t *testing.T) {
	rm := newTestManager(t)

	room, hostID, state, err := rm.CreateRoom("a", "Alice", colorRandom, &mockBroadcaster{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if hostID != "a" || state.RoomID != room.ID || state.State != RoomLobby {
		t.Errorf("unexpected create result host=%q state=%+v", hostID, state)
	}
	if rm.GetRoom(room.ID) != room || rm.RoomCount() != 1 {
		t.Error("room not registered")
	}

	joined, hostID, state, err := rm.JoinRoom(room.ID, "b", "Bob", "#ff79c6", &mockBroadcaster{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined != room || hostID != "a" || len(state.Players) != 2 {
		t.Errorf("unexpected join result host=%q players=%d", hostID, len(state.Players))
	}
	if state.Players[1].Color != "#ff79c6" {
		t.Errorf("preferred color should be honored, got %s", state.Players[1].Color)
	}

	list := rm.ListRooms()
	if len(list) != 1 || len(list[0].Players) != 2 || list[0].HostID != "a" {
		t.Errorf("unexpected listing %+v", list)
	}
}

func TestRoomManagerJoinUnknown(t *testing.T) {
	rm := newTestManager(t)
	if _, _, _, err := rm.JoinRoom("zzzzzz", "b", "Bob", colorRandom, nil); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRoomManagerRemovesEmptyRooms(t *testing.T) {
	rm := newTestManager(t)
	room, _, _, err := rm.CreateRoom("a", "Alice", colorRandom, nil)
	if err != nil {
		t.Fatal(err)
	}
	rm.JoinRoom(room.ID, "b", "Bob", colorRandom, nil)

	rm.Leave(room.ID, "a")
	if rm.GetRoom(room.ID) == nil {
		t.Fatal("room with a participant left should stay")
	}
	rm.Leave(room.ID, "b")
	if rm.GetRoom(room.ID) != nil || rm.RoomCount() != 0 {
		t.Error("empty room should be removed")
	}
	if _, _, _, err := rm.JoinRoom(room.ID, "c", "Carol", colorRandom, nil); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound for a removed room, got %v", err)
	}

	// leaving twice is harmless
	rm.Leave(room.ID, "b")
}

func TestRoomManagerIDCollision(t *testing.T) {
	rm := newTestManager(t)
	rm.newID = func() string { return "aaaaaa" }

	if _, _, _, err := rm.CreateRoom("a", "Alice", colorRandom, nil); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := rm.CreateRoom("b", "Bob", colorRandom, nil); !errors.Is(err, ErrServerBusy) {
		t.Errorf("expected ErrServerBusy, got %v", err)
	}
	if rm.RoomCount() != 1 {
		t.Errorf("failed create should not register a room, count=%d", rm.RoomCount())
	}
}

func TestRoomManagerRoomsAreIsolated(t *testing.T) {
	rm := newTestManager(t)
	r1, _, _, _ := rm.CreateRoom("a", "Alice", colorRandom, nil)
	r2, _, _, _ := rm.CreateRoom("b", "Bob", colorRandom, nil)
	if r1.ID == r2.ID {
		t.Fatal("rooms share an id")
	}

	if err := r1.Start("a"); err != nil {
		t.Fatal(err)
	}
	info, _ := r2.Info()
	if info.State != RoomLobby {
		t.Errorf("starting one room changed another: %s", info.State)
	}
	if err := r2.Start("a"); !errors.Is(err, ErrNotHost) {
		t.Errorf("host of one room cannot start another, got %v", err)
	}
}
