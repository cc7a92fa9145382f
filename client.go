package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120
	maxNicknameLen    = 15
)

// Boundary validation failures
var (
	ErrInvalidNickname = errors.New("invalid nickname (1-15 chars required)")
	ErrInvalidRoomID   = errors.New("invalid room id format")
	ErrInvalidColor    = errors.New("invalid color choice")
	ErrRoomNotFound    = errors.New("room not found")
	ErrAlreadyInRoom   = errors.New("already in a room")
)

var roomIDRe = regexp.MustCompile(`^[a-z0-9]{6}$`)

// userMessages are the texts clients show for boundary failures
var userMessages = map[error]string{
	ErrInvalidNickname: "Invalid nickname (1-15 chars required).",
	ErrInvalidRoomID:   "Invalid Room ID format.",
	ErrInvalidColor:    "Invalid preferred color.",
	ErrAlreadyInRoom:   "Already in a room.",
	ErrServerBusy:      "Server busy, could not create room ID. Try again.",
}

func userMessage(err error) string {
	for target, msg := range userMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}

// Client represents a WebSocket connection
type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	participantID string
	roomID        string
	remoteAddr    string
	msgCount      int
	msgResetAt    time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("hub: ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("hub: rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix from SendBinary marks a binary frame; JSON text never starts with it
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("hub: marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }() // send on closed channel after unregister
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(message string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: message}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch env.T {
	case MsgCreateRoom:
		c.handleCreateRoom(env.D)
	case MsgJoinRoom:
		c.handleJoinRoom(env.D)
	case MsgPlayerInput:
		c.handleInput(env.D)
	case MsgRequestStart:
		c.handleStart()
	case MsgColorChoice:
		c.handleColorChoice(env.D)
	case MsgDebugMaxPowerups:
		c.handleDebugMaxPowerups()
	case "":
		c.sendError("Invalid message structure.")
	default:
		c.sendError("Unknown message type: " + env.T)
	}
}

// validateNickname trims and checks the 1-15 character rule
func validateNickname(s string) (string, error) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < 1 || n > maxNicknameLen {
		return "", ErrInvalidNickname
	}
	return s, nil
}

func validateRoomID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !roomIDRe.MatchString(s) {
		return "", ErrInvalidRoomID
	}
	return s, nil
}

// validatePreferredColor treats a missing color as "random"
func validatePreferredColor(s string) (string, error) {
	if s == "" {
		return colorRandom, nil
	}
	if !isValidColorChoice(s) {
		return "", ErrInvalidColor
	}
	return s, nil
}

func (c *Client) handleCreateRoom(data json.RawMessage) {
	if c.roomID != "" {
		c.sendError(userMessage(ErrAlreadyInRoom))
		return
	}
	var msg CreateRoomMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("Invalid message format.")
		return
	}
	nickname, err := validateNickname(msg.Nickname)
	if err != nil {
		c.sendError(userMessage(err))
		return
	}
	color, err := validatePreferredColor(msg.PreferredColor)
	if err != nil {
		c.sendError(userMessage(err))
		return
	}

	id := GenerateID()
	room, hostID, state, err := c.hub.rooms.CreateRoom(id, nickname, color, c)
	if errors.Is(err, ErrServerBusy) {
		c.sendError(userMessage(err))
		return
	}
	if err != nil {
		c.sendError(fmt.Sprintf("Failed to initialize room: %v", err))
		return
	}

	c.roomID = room.ID
	c.participantID = id
	c.SendJSON(Envelope{T: MsgAssignID, Data: AssignIDMsg{ParticipantID: id}})
	c.SendJSON(Envelope{T: MsgRoomCreated, Data: RoomEnteredMsg{
		RoomID: room.ID,
		YourID: id,
		HostID: hostID,
		State:  state,
	}})
}

func (c *Client) handleJoinRoom(data json.RawMessage) {
	if c.roomID != "" {
		c.sendError(userMessage(ErrAlreadyInRoom))
		return
	}
	var msg JoinRoomMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("Invalid message format.")
		return
	}
	nickname, err := validateNickname(msg.Nickname)
	if err != nil {
		c.sendError(userMessage(err))
		return
	}
	roomID, err := validateRoomID(msg.RoomID)
	if err != nil {
		c.sendError(userMessage(err))
		return
	}
	color, err := validatePreferredColor(msg.PreferredColor)
	if err != nil {
		c.sendError(userMessage(err))
		return
	}

	id := GenerateID()
	room, hostID, state, err := c.hub.rooms.JoinRoom(roomID, id, nickname, color, c)
	if errors.Is(err, ErrRoomNotFound) {
		c.sendError(fmt.Sprintf("Room '%s' not found.", roomID))
		return
	}
	if err != nil {
		c.sendError(fmt.Sprintf("Failed to join %s: %v", roomID, err))
		return
	}

	c.roomID = room.ID
	c.participantID = id
	c.SendJSON(Envelope{T: MsgAssignID, Data: AssignIDMsg{ParticipantID: id}})
	c.SendJSON(Envelope{T: MsgRoomJoined, Data: RoomEnteredMsg{
		RoomID: room.ID,
		YourID: id,
		HostID: hostID,
		State:  state,
	}})
}

// currentRoom returns the room this connection is in, if it still exists
func (c *Client) currentRoom() *Room {
	if c.roomID == "" || c.participantID == "" {
		return nil
	}
	return c.hub.rooms.GetRoom(c.roomID)
}

func (c *Client) handleInput(data json.RawMessage) {
	room := c.currentRoom()
	if room == nil {
		return
	}
	var in InputState
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}
	room.Input(c.participantID, in)
}

func (c *Client) handleStart() {
	room := c.currentRoom()
	if room == nil {
		c.sendError("Not in a room.")
		return
	}
	if err := room.Start(c.participantID); err != nil {
		c.sendError(fmt.Sprintf("Cannot start game: %v", err))
	}
}

func (c *Client) handleColorChoice(data json.RawMessage) {
	var msg ColorChoiceMsg
	if err := json.Unmarshal(data, &msg); err != nil || !isValidColorChoice(msg.Color) {
		c.sendError("Invalid color choice.")
		return
	}
	room := c.currentRoom()
	if room == nil {
		c.sendError("Not in a room.")
		return
	}
	if err := room.ChooseColor(c.participantID, msg.Color); err != nil {
		c.sendError(fmt.Sprintf("Cannot change color: %v", err))
	}
}

func (c *Client) handleDebugMaxPowerups() {
	if room := c.currentRoom(); room != nil {
		room.DebugMaxPowerups(c.participantID)
	}
}
