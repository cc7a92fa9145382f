package main

import "encoding/json"

// Client -> Server message types
const (
	MsgCreateRoom       = "create_room"
	MsgJoinRoom         = "join_room"
	MsgPlayerInput      = "player_input"
	MsgRequestStart     = "request_start_game"
	MsgColorChoice      = "player_color_choice"
	MsgDebugMaxPowerups = "debug_max_powerups"
)

// Server -> Client message types
const (
	MsgAssignID     = "assign_player_id"
	MsgRoomCreated  = "room_created"
	MsgRoomJoined   = "room_joined"
	MsgPlayerJoined = "player_joined"
	MsgPlayerLeft   = "player_left"
	MsgHostChanged  = "host_changed"
	MsgGameState    = "game_state"
	MsgGameStart    = "game_start"
	MsgGameOver     = "game_over"
	MsgError        = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t" msgpack:"t"`
	Data interface{} `json:"d,omitempty" msgpack:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage defers payload decoding to the handler
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// CreateRoomMsg asks for a fresh room with the sender as host
type CreateRoomMsg struct {
	Nickname       string `json:"nickname"`
	PreferredColor string `json:"preferredColor"`
}

// JoinRoomMsg asks to enter an existing lobby
type JoinRoomMsg struct {
	RoomID         string `json:"roomId"`
	Nickname       string `json:"nickname"`
	PreferredColor string `json:"preferredColor"`
}

// ColorChoiceMsg changes the sender's lobby color preference
type ColorChoiceMsg struct {
	Color string `json:"color"`
}

// AssignIDMsg tells a connection its participant id
type AssignIDMsg struct {
	ParticipantID string `json:"participantId"`
}

// RoomEnteredMsg answers a successful create or join
type RoomEnteredMsg struct {
	RoomID string     `json:"roomId"`
	YourID string     `json:"yourId"`
	HostID string     `json:"hostId"`
	State  *FullState `json:"state"`
}

// PlayerJoinedMsg is sent to everyone else in the room
type PlayerJoinedMsg struct {
	Participant PlayerState `json:"participant"`
	HostID      string      `json:"hostId"`
}

// PlayerLeftMsg is broadcast when a participant disconnects
type PlayerLeftMsg struct {
	ParticipantID string `json:"participantId"`
	NewHostID     string `json:"newHostId,omitempty"`
}

// HostChangedMsg announces a new host
type HostChangedMsg struct {
	NewHostID string `json:"newHostId"`
}

// GameOverMsg ends a game. WinnerIndex is -1 on a draw.
type GameOverMsg struct {
	WinnerID    string     `json:"winnerId,omitempty" msgpack:"winnerId,omitempty"`
	WinnerIndex int        `json:"winnerIndex" msgpack:"winnerIndex"`
	FinalState  *FullState `json:"finalState" msgpack:"finalState"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Message string `json:"message"`
}

// PlayerState is one participant in a snapshot
type PlayerState struct {
	ID         string    `json:"id" msgpack:"id"`
	Index      int       `json:"index" msgpack:"index"`
	Nickname   string    `json:"nickname" msgpack:"nickname"`
	X          float64   `json:"x" msgpack:"x"`
	Y          float64   `json:"y" msgpack:"y"`
	Color      string    `json:"color" msgpack:"color"`
	Lives      int       `json:"lives" msgpack:"lives"`
	MaxBombs   int       `json:"maxBombs" msgpack:"maxBombs"`
	BombRange  int       `json:"bombRange" msgpack:"bombRange"`
	Piercing   bool      `json:"piercing" msgpack:"piercing"`
	Alive      bool      `json:"alive" msgpack:"alive"`
	Respawning bool      `json:"respawning" msgpack:"respawning"`
	Shield     bool      `json:"shield" msgpack:"shield"`
	SpeedBoost bool      `json:"speedBoost" msgpack:"speedBoost"`
	Facing     Direction `json:"facing" msgpack:"facing"`
}

// BombState is one armed bomb
type BombState struct {
	ID      string  `json:"id" msgpack:"id"`
	OwnerID string  `json:"ownerId" msgpack:"ownerId"`
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	Col     int     `json:"col" msgpack:"col"`
	Row     int     `json:"row" msgpack:"row"`
}

// BlastState is one live explosion component
type BlastState struct {
	ID       string  `json:"id" msgpack:"id"`
	BombID   string  `json:"bombId" msgpack:"bombId"`
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	W        float64 `json:"w" msgpack:"w"`
	H        float64 `json:"h" msgpack:"h"`
	Col      int     `json:"col" msgpack:"col"`
	Row      int     `json:"row" msgpack:"row"`
	Terminal bool    `json:"terminal" msgpack:"terminal"`
}

// PowerupState is one pickup
type PowerupState struct {
	ID   string      `json:"id" msgpack:"id"`
	Kind PowerupKind `json:"kind" msgpack:"kind"`
	X    float64     `json:"x" msgpack:"x"`
	Y    float64     `json:"y" msgpack:"y"`
}

// ShrinkState is the deathmatch status
type ShrinkState struct {
	Active    bool    `json:"active" msgpack:"active"`
	Countdown float64 `json:"countdown" msgpack:"countdown"` // seconds
	Complete  bool    `json:"complete" msgpack:"complete"`
}

// FullState is the complete room snapshot
type FullState struct {
	RoomID   string         `json:"roomId" msgpack:"roomId"`
	State    RoomState      `json:"state" msgpack:"state"`
	HostID   string         `json:"hostId" msgpack:"hostId"`
	Grid     [][]TileKind   `json:"grid" msgpack:"grid"`
	Players  []PlayerState  `json:"players" msgpack:"players"`
	Bombs    []BombState    `json:"bombs" msgpack:"bombs"`
	Blasts   []BlastState   `json:"blasts" msgpack:"blasts"`
	Powerups []PowerupState `json:"powerups" msgpack:"powerups"`
	Shrink   ShrinkState    `json:"shrink" msgpack:"shrink"`
	Tick     uint64         `json:"tick" msgpack:"tick"`
}
