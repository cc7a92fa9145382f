package main

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// RoomState is the lobby/playing/finished phase. Values are part of the wire format.
type RoomState string

const (
	RoomLobby    RoomState = "lobby"
	RoomPlaying  RoomState = "playing"
	RoomFinished RoomState = "finished"
)

// Rejected commands. The connection layer turns these into error events.
var (
	ErrRoomFull           = errors.New("room is full")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrNotHost            = errors.New("only the host can start the game")
	ErrNotLobby           = errors.New("room is not in the lobby")
	ErrNoParticipants     = errors.New("no participants")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrRoomClosed         = errors.New("room closed")
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Room is one isolated match: roster, arena and tick loop. All state is owned by
// the goroutine running Run; exported methods hand work to it through cmds.
type Room struct {
	ID  string
	cfg *GameConfig
	rng *rand.Rand

	grid     *Grid
	roster   *Roster
	powerups *PowerupRegistry
	bombs    *BombSystem
	shrink   *ArenaShrink

	state        RoomState
	hostID       string
	clients      map[string]Broadcaster
	singlePlayer bool
	faulted      bool
	closed       bool
	debug        bool
	tick         uint64
	lastTick     time.Time
	startedAt    time.Time

	db     *DB
	events *EventLog

	cmds     chan func()
	quit     chan struct{}
	done     chan struct{}
	ticker   *time.Ticker
	stopOnce sync.Once
}

// NewRoom creates a lobby. The caller starts it with go room.Run().
func NewRoom(id string, cfg *GameConfig, rng *rand.Rand, db *DB, events *EventLog, debugCmds bool) *Room {
	r := &Room{
		ID:      id,
		cfg:     cfg,
		rng:     rng,
		state:   RoomLobby,
		clients: make(map[string]Broadcaster),
		debug:   debugCmds,
		db:      db,
		events:  events,
		cmds:    make(chan func()),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	r.roster = NewRoster()
	r.grid = NewGrid(cfg, rng)
	r.powerups = NewPowerupRegistry(cfg, rng)
	r.bombs = NewBombSystem(cfg, r.grid, r.roster, r.powerups)
	r.shrink = NewArenaShrink(cfg, r.grid, r.roster, r.bombs, r.powerups)
	return r
}

// Run is the room worker: it executes commands and, while playing, ticks.
func (r *Room) Run() {
	defer close(r.done)
	defer r.disarm()

	for {
		r.syncTicker()
		var tickC <-chan time.Time
		if r.ticker != nil {
			tickC = r.ticker.C
		}

		select {
		case fn := <-r.cmds:
			fn()
		case now := <-tickC:
			r.onTick(now)
		case <-r.quit:
			return
		}
	}
}

// syncTicker arms the ticker only while a healthy game is running
func (r *Room) syncTicker() {
	running := r.state == RoomPlaying && !r.faulted
	if running && r.ticker == nil {
		r.ticker = time.NewTicker(r.cfg.TickDuration())
		r.lastTick = time.Now()
		log.Printf("room %s: game loop started", r.ID)
	} else if !running && r.ticker != nil {
		r.disarm()
		log.Printf("room %s: game loop stopped", r.ID)
	}
}

func (r *Room) disarm() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}

// Stop terminates the worker and waits for it. Safe to call more than once.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
	<-r.done
}

// exec runs fn on the room goroutine and waits for it. Returns false if the
// room has stopped.
func (r *Room) exec(fn func()) bool {
	finished := make(chan struct{})
	select {
	case r.cmds <- func() { defer close(finished); fn() }:
	case <-r.done:
		return false
	}
	<-finished
	return true
}

// Join adds a participant to the lobby
func (r *Room) Join(id, nickname, preferredColor string, client Broadcaster) (hostID string, state *FullState, err error) {
	ok := r.exec(func() {
		err = r.join(id, nickname, preferredColor, client)
		if err == nil {
			hostID = r.hostID
			state = r.snapshot()
		}
	})
	if !ok {
		return "", nil, ErrRoomClosed
	}
	return hostID, state, err
}

// Leave removes a participant and returns how many remain
func (r *Room) Leave(id string) int {
	remaining := 0
	if !r.exec(func() { remaining = r.leave(id) }) {
		return 0
	}
	return remaining
}

// Input latches the newest input for a participant
func (r *Room) Input(id string, in InputState) {
	r.exec(func() { r.input(id, in) })
}

// ChooseColor changes a participant's lobby color preference
func (r *Room) ChooseColor(id, color string) error {
	var err error
	if !r.exec(func() { err = r.chooseColor(id, color) }) {
		return ErrRoomClosed
	}
	return err
}

// Start begins the game if requested by the host
func (r *Room) Start(id string) error {
	var err error
	if !r.exec(func() { err = r.start(id) }) {
		return ErrRoomClosed
	}
	return err
}

// DebugMaxPowerups maxes out a living participant's stats
func (r *Room) DebugMaxPowerups(id string) {
	r.exec(func() { r.debugMaxPowerups(id) })
}

// RoomInfo is a read-only summary for the registry and admin API
type RoomInfo struct {
	ID        string    `json:"id"`
	State     RoomState `json:"state"`
	HostID    string    `json:"hostId"`
	Players   []string  `json:"players"`
	Faulted   bool      `json:"faulted,omitempty"`
	StartedAt time.Time `json:"startedAt,omitempty"`
}

// Info returns a summary of the room
func (r *Room) Info() (RoomInfo, bool) {
	var info RoomInfo
	ok := r.exec(func() {
		info = RoomInfo{ID: r.ID, State: r.state, HostID: r.hostID, Faulted: r.faulted, StartedAt: r.startedAt}
		for _, e := range r.roster.All() {
			info.Players = append(info.Players, e.Nickname)
		}
	})
	return info, ok
}

func (r *Room) join(id, nickname, preferredColor string, client Broadcaster) error {
	if r.closed {
		return ErrRoomClosed
	}
	if r.state != RoomLobby {
		return ErrGameInProgress
	}
	if r.roster.Len() >= r.cfg.MaxPlayers {
		return ErrRoomFull
	}
	if r.roster.Get(id) != nil {
		return fmt.Errorf("participant %s already joined", id)
	}

	e := NewEntity(id, nickname, preferredColor, r.cfg, r.grid, r.bombs, r.roster)
	e.Index = r.roster.Len()
	r.roster.Add(e)
	if client != nil {
		r.clients[id] = client
	}
	if r.hostID == "" {
		r.hostID = id
	}
	r.recolor()

	log.Printf("room %s: %s (%s) joined, %d/%d", r.ID, nickname, id, r.roster.Len(), r.cfg.MaxPlayers)
	r.broadcastJSON(Envelope{T: MsgPlayerJoined, Data: PlayerJoinedMsg{
		Participant: e.ToState(),
		HostID:      r.hostID,
	}}, id)
	return nil
}

func (r *Room) leave(id string) int {
	e := r.roster.Get(id)
	if e == nil {
		return r.roster.Len()
	}
	r.roster.Remove(id)
	delete(r.clients, id)
	log.Printf("room %s: %s (%s) left, %d remaining", r.ID, e.Nickname, id, r.roster.Len())

	newHost := ""
	if r.hostID == id {
		r.hostID = ""
		if first := r.roster.First(); first != nil {
			r.hostID = first.ID
			newHost = first.ID
		}
	}

	if r.roster.Len() == 0 {
		r.closed = true
		if r.state == RoomPlaying {
			r.checkGameOver()
		}
		return 0
	}

	r.broadcastJSON(Envelope{T: MsgPlayerLeft, Data: PlayerLeftMsg{ParticipantID: id, NewHostID: newHost}}, "")
	if newHost != "" {
		r.broadcastJSON(Envelope{T: MsgHostChanged, Data: HostChangedMsg{NewHostID: newHost}}, "")
	}

	switch r.state {
	case RoomLobby:
		for i, other := range r.roster.All() {
			other.Index = i
		}
		r.recolor()
		r.broadcastState()
	case RoomPlaying:
		r.checkGameOver()
	}
	return r.roster.Len()
}

func (r *Room) input(id string, in InputState) {
	if r.state != RoomPlaying || r.faulted {
		return
	}
	e := r.roster.Get(id)
	if e == nil || e.Status != StatusAlive {
		return
	}
	e.LatchInput(in)
}

func (r *Room) chooseColor(id, color string) error {
	if !isValidColorChoice(color) {
		return ErrInvalidColor
	}
	if r.state != RoomLobby {
		return ErrNotLobby
	}
	e := r.roster.Get(id)
	if e == nil {
		return ErrUnknownParticipant
	}
	e.PreferredColor = color
	r.recolor()
	r.broadcastState()
	return nil
}

func (r *Room) start(id string) error {
	if r.state != RoomLobby {
		return ErrNotLobby
	}
	if id != r.hostID {
		return ErrNotHost
	}
	if r.roster.Len() == 0 {
		return ErrNoParticipants
	}
	r.startGame()
	return nil
}

// startGame regenerates the arena and moves the room to playing
func (r *Room) startGame() {
	r.grid.Generate()
	r.powerups.Reset()
	r.bombs.Reset()
	r.shrink.Reset()

	for i, e := range r.roster.All() {
		e.Index = i
	}
	r.recolor()
	for _, e := range r.roster.All() {
		e.ResetForNewGame()
	}

	r.singlePlayer = r.roster.Len() == 1
	r.state = RoomPlaying
	r.tick = 0
	r.startedAt = time.Now()
	r.lastTick = r.startedAt

	log.Printf("room %s: game started with %d participant(s)", r.ID, r.roster.Len())
	r.events.Track(EventGameStart, r.ID, r.hostID, fmt.Sprintf(`{"participants":%d}`, r.roster.Len()))
	r.broadcastJSON(Envelope{T: MsgGameStart, Data: r.snapshot()}, "")
}

func (r *Room) debugMaxPowerups(id string) {
	if !r.debug || r.state != RoomPlaying || r.faulted {
		return
	}
	e := r.roster.Get(id)
	if e == nil || e.Status != StatusAlive {
		return
	}
	e.ApplyMaxPowerups()
	r.broadcastState()
}

// recolor resolves colors for the whole roster in join order
func (r *Room) recolor() {
	all := r.roster.All()
	prefs := make([]string, len(all))
	for i, e := range all {
		prefs[i] = e.PreferredColor
	}
	for i, c := range resolveColors(prefs) {
		all[i].Color = c
	}
}

// onTick measures elapsed wall time and steps the simulation, skipping
// implausible deltas. A panic faults the room but not the process.
func (r *Room) onTick(now time.Time) {
	dt := now.Sub(r.lastTick)
	r.lastTick = now
	if dt <= 0 || dt > r.cfg.MaxTickDelta {
		if dt > r.cfg.MaxTickDelta {
			log.Printf("room %s: unusual tick delta %v, skipped", r.ID, dt)
		}
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("room %s: loop error: %v\n%s", r.ID, rec, debug.Stack())
			r.faulted = true
			r.events.Track(EventLoopFault, r.ID, "", fmt.Sprintf(`{"error":%q}`, fmt.Sprint(rec)))
			r.broadcastJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "Game loop error"}}, "")
		}
	}()
	r.step(dt)
}

// step runs one simulation tick
func (r *Room) step(dt time.Duration) {
	if r.state != RoomPlaying {
		return
	}
	r.tick++

	shrinkActive := r.shrink.Active()
	before := r.livingIDs()

	shrinkHits := r.shrink.Update(dt)
	res := r.bombs.Update(dt)

	for _, e := range r.roster.All() {
		if e.Status == StatusAlive || e.Status == StatusRespawning {
			e.Update(dt, shrinkActive)
		}
	}

	r.resolveHits(res.Hit, shrinkHits, shrinkActive)
	r.collectPowerups()
	r.trackEliminations(before)

	if !r.checkGameOver() {
		r.broadcastState()
	}
}

func (r *Room) livingIDs() map[string]bool {
	ids := make(map[string]bool, r.roster.Len())
	for _, e := range r.roster.All() {
		if e.Status != StatusEliminated {
			ids[e.ID] = true
		}
	}
	return ids
}

func (r *Room) trackEliminations(before map[string]bool) {
	for _, e := range r.roster.All() {
		if before[e.ID] && e.Status == StatusEliminated {
			log.Printf("room %s: %s eliminated", r.ID, e.Nickname)
			r.events.Track(EventEliminated, r.ID, e.ID, "")
		}
	}
}

// checkGameOver ends the game when the outcome is decided
func (r *Room) checkGameOver() bool {
	if r.state != RoomPlaying {
		return false
	}
	all := r.roster.All()
	if len(all) == 0 {
		r.endGame(nil)
		return true
	}

	var withLives []*Entity
	for _, e := range all {
		if e.Lives > 0 {
			withLives = append(withLives, e)
		}
	}

	if r.singlePlayer {
		if len(all) == 1 {
			if len(withLives) == 0 {
				r.endGame(nil)
				return true
			}
			return false
		}
		r.singlePlayer = false
	}

	if len(withLives) <= 1 {
		var winner *Entity
		if len(withLives) == 1 {
			winner = withLives[0]
		}
		r.endGame(winner)
		return true
	}
	return false
}

// endGame finishes the room. Finished is terminal.
func (r *Room) endGame(winner *Entity) {
	if r.state == RoomFinished {
		return
	}
	r.state = RoomFinished
	r.singlePlayer = false

	msg := GameOverMsg{WinnerIndex: -1, FinalState: r.snapshot()}
	winnerID := ""
	if winner != nil {
		msg.WinnerID = winner.ID
		msg.WinnerIndex = winner.Index
		winnerID = winner.ID
		log.Printf("room %s: game over, winner %s (index %d)", r.ID, winner.Nickname, winner.Index)
	} else {
		log.Printf("room %s: game over, draw", r.ID)
	}

	r.broadcastJSON(Envelope{T: MsgGameOver, Data: msg}, "")
	r.events.Track(EventGameOver, r.ID, winnerID, fmt.Sprintf(`{"ticks":%d}`, r.tick))
	r.recordMatch(winner)
}

func (r *Room) recordMatch(winner *Entity) {
	if r.db == nil || r.roster.Len() == 0 {
		return
	}
	result := MatchResult{
		RoomID:   r.ID,
		Duration: time.Since(r.startedAt),
		Ticks:    r.tick,
	}
	if winner != nil {
		result.WinnerID = winner.ID
		result.WinnerNickname = winner.Nickname
	}
	for _, e := range r.roster.All() {
		result.Participants = append(result.Participants, MatchParticipant{
			ParticipantID:     e.ID,
			Nickname:          e.Nickname,
			Index:             e.Index,
			Color:             e.Color,
			LivesLeft:         e.Lives,
			BombsPlaced:       e.BombsPlaced,
			PowerupsCollected: e.PowerupsCollected,
		})
	}
	if _, err := r.db.RecordMatch(result); err != nil {
		log.Printf("room %s: record match: %v", r.ID, err)
	}
}

// snapshot builds the full state payload
func (r *Room) snapshot() *FullState {
	players := make([]PlayerState, 0, r.roster.Len())
	for _, e := range r.roster.All() {
		players = append(players, e.ToState())
	}
	bombs, blasts := r.bombs.Snapshot()
	return &FullState{
		RoomID:   r.ID,
		State:    r.state,
		HostID:   r.hostID,
		Grid:     r.grid.Snapshot(),
		Players:  players,
		Bombs:    bombs,
		Blasts:   blasts,
		Powerups: r.powerups.Snapshot(),
		Shrink:   r.shrink.State(),
		Tick:     r.tick,
	}
}

// broadcastState sends game_state as one msgpack frame shared by every client
func (r *Room) broadcastState() {
	if r.state == RoomFinished || len(r.clients) == 0 {
		return
	}
	data, err := msgpack.Marshal(Envelope{T: MsgGameState, Data: r.snapshot()})
	if err != nil {
		log.Printf("room %s: encode state: %v", r.ID, err)
		return
	}
	for _, e := range r.roster.All() {
		if c, ok := r.clients[e.ID]; ok {
			c.SendBinary(data)
		}
	}
}

// broadcastJSON sends a message to every client in join order, except one
func (r *Room) broadcastJSON(msg Envelope, exclude string) {
	for _, e := range r.roster.All() {
		if e.ID == exclude {
			continue
		}
		if c, ok := r.clients[e.ID]; ok {
			c.SendJSON(msg)
		}
	}
}
