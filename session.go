package main

import (
	"errors"
	"log"
	"math/rand/v2"
	"sync"
)

const (
	maxRooms         = 100
	roomIDAttempts   = 10
	maxRoomsReported = 200
)

var (
	ErrServerBusy   = errors.New("server busy, could not create room id")
	ErrTooManyRooms = errors.New("too many active rooms")
)

// RoomManager is the process-wide room registry
type RoomManager struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	cfg    *Config
	db     *DB
	events *EventLog

	// newID and newRNG are swapped in tests
	newID  func() string
	newRNG func() *rand.Rand
}

// NewRoomManager creates an empty registry
func NewRoomManager(cfg *Config, db *DB, events *EventLog) *RoomManager {
	return &RoomManager{
		rooms:  make(map[string]*Room),
		cfg:    cfg,
		db:     db,
		events: events,
		newID:  GenerateRoomID,
		newRNG: func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) },
	}
}

// CreateRoom registers a fresh lobby, starts its worker and joins the creator as host
func (rm *RoomManager) CreateRoom(participantID, nickname, preferredColor string, client Broadcaster) (*Room, string, *FullState, error) {
	rm.mu.Lock()
	if len(rm.rooms) >= maxRooms {
		rm.mu.Unlock()
		return nil, "", nil, ErrTooManyRooms
	}
	id := ""
	for i := 0; i < roomIDAttempts; i++ {
		candidate := rm.newID()
		if _, taken := rm.rooms[candidate]; !taken {
			id = candidate
			break
		}
	}
	if id == "" {
		rm.mu.Unlock()
		return nil, "", nil, ErrServerBusy
	}
	room := NewRoom(id, &rm.cfg.Game, rm.newRNG(), rm.db, rm.events, rm.cfg.Server.Debug)
	rm.rooms[id] = room
	rm.mu.Unlock()

	go room.Run()
	log.Printf("rooms: created %s", id)
	rm.events.Track(EventRoomCreated, id, participantID, "")

	hostID, state, err := room.Join(participantID, nickname, preferredColor, client)
	if err != nil {
		rm.remove(id)
		return nil, "", nil, err
	}
	return room, hostID, state, nil
}

// JoinRoom adds a participant to an existing lobby
func (rm *RoomManager) JoinRoom(roomID, participantID, nickname, preferredColor string, client Broadcaster) (*Room, string, *FullState, error) {
	room := rm.GetRoom(roomID)
	if room == nil {
		return nil, "", nil, ErrRoomNotFound
	}
	hostID, state, err := room.Join(participantID, nickname, preferredColor, client)
	if errors.Is(err, ErrRoomClosed) {
		return nil, "", nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, "", nil, err
	}
	return room, hostID, state, nil
}

// GetRoom returns a room by ID
func (rm *RoomManager) GetRoom(id string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[id]
}

// Leave removes a participant and tears the room down once it is empty
func (rm *RoomManager) Leave(roomID, participantID string) {
	room := rm.GetRoom(roomID)
	if room == nil {
		return
	}
	if room.Leave(participantID) == 0 {
		rm.remove(roomID)
	}
}

func (rm *RoomManager) remove(id string) {
	rm.mu.Lock()
	room, ok := rm.rooms[id]
	delete(rm.rooms, id)
	rm.mu.Unlock()
	if !ok {
		return
	}
	room.Stop()
	log.Printf("rooms: removed %s", id)
	rm.events.Track(EventRoomClosed, id, "", "")
}

// RoomCount returns the number of registered rooms
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// ListRooms returns summaries of all rooms, capped for the admin API
func (rm *RoomManager) ListRooms() []RoomInfo {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, r := range rm.rooms {
		rooms = append(rooms, r)
	}
	rm.mu.RUnlock()

	list := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		if len(list) >= maxRoomsReported {
			break
		}
		if info, ok := r.Info(); ok {
			list = append(list, info)
		}
	}
	return list
}

// StopAll stops every room worker. Used on shutdown.
func (rm *RoomManager) StopAll() {
	rm.mu.Lock()
	rooms := rm.rooms
	rm.rooms = make(map[string]*Room)
	rm.mu.Unlock()
	for _, r := range rooms {
		r.Stop()
	}
}
