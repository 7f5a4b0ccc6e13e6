package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zjx20/seabattlehub/internal/board"
	"github.com/zjx20/seabattlehub/internal/config"
	"github.com/zjx20/seabattlehub/internal/protocol"
	"github.com/zjx20/seabattlehub/internal/room"
)

const (
	msgWaitingOpponent = "Waiting for an opponent..."
	msgOpponentFound   = "Opponent found. Place your ships!"
	msgWaitingShips    = "Waiting for the opponent to place their ships..."
)

type eventKind int

const (
	eventConnect eventKind = iota
	eventDisconnect
	eventMessage
)

type event struct {
	kind   eventKind
	client *Client
	data   []byte
}

// Server pairs players and runs their matches. All game state is owned by
// the goroutine executing Run; connections talk to it through events.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	events   chan event
	done     chan struct{}

	flip  func() bool
	newID func() string

	queue   Queue[*Client]
	clients map[string]*Client
	rooms   map[string]*room.Room

	stats counters
}

type counters struct {
	clients  atomic.Int64
	waiting  atomic.Int64
	rooms    atomic.Int64
	finished atomic.Int64
}

// Stats is a snapshot of the server counters.
type Stats struct {
	Clients       int64 `json:"clients"`
	Waiting       int64 `json:"waiting"`
	ActiveRooms   int64 `json:"active_rooms"`
	FinishedGames int64 `json:"finished_games"`
}

type Option func(*Server)

// WithCoinFlip replaces the random first-mover decision.
func WithCoinFlip(flip func() bool) Option {
	return func(s *Server) { s.flip = flip }
}

// WithIDGenerator replaces the UUID generator used for clients and rooms.
func WithIDGenerator(newID func() string) Option {
	return func(s *Server) { s.newID = newID }
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins, the web client may be hosted elsewhere
			},
		},
		events:  make(chan event, 256),
		done:    make(chan struct{}),
		flip:    func() bool { return rand.IntN(2) == 0 },
		newID:   uuid.NewString,
		clients: make(map[string]*Client),
		rooms:   make(map[string]*room.Room),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes events one at a time until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	defer close(s.done)
	s.logger.Info("event loop started")

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			s.logger.Info("event loop stopped")
			return
		case ev := <-s.events:
			s.dispatch(ev)
		}
	}
}

// submit hands an event to the loop. It returns false once the loop has stopped.
func (s *Server) submit(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Server) Stats() Stats {
	return Stats{
		Clients:       s.stats.clients.Load(),
		Waiting:       s.stats.waiting.Load(),
		ActiveRooms:   s.stats.rooms.Load(),
		FinishedGames: s.stats.finished.Load(),
	}
}

// Handler routes the game socket, the health probe and, when configured,
// the web client.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleConnections)
	mux.HandleFunc("/healthz", s.HandleHealth)
	if dir := s.cfg.Server.StaticDir; dir != "" {
		mux.Handle("/", StaticHandler(dir))
	}
	return mux
}

// HandleConnections upgrades the request and serves the player until the connection drops.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	c := newClient(s.newID(), ws, s.cfg.WebSocket.SendQueue)
	s.logger.Debug("connection accepted", "client_id", c.ID, "remote_addr", r.RemoteAddr)

	go s.writePump(c)
	if !s.submit(event{kind: eventConnect, client: c}) {
		_ = ws.Close()
		return
	}
	s.readPump(c)
}

// HandleHealth reports liveness and the current counters.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
		Stats
	}{"ok", s.Stats()})
}

func (s *Server) dispatch(ev event) {
	switch ev.kind {
	case eventConnect:
		s.handleConnect(ev.client)
	case eventDisconnect:
		s.handleDisconnect(ev.client)
	case eventMessage:
		s.handleMessage(ev.client, ev.data)
	}
}

func (s *Server) handleConnect(c *Client) {
	s.clients[c.ID] = c
	s.stats.clients.Add(1)
	s.send(c, protocol.Session, protocol.SessionPayload{ID: c.ID})

	partner, paired := s.queue.Join(c)
	if !paired {
		s.stats.waiting.Store(1)
		s.logger.Info("client waiting for opponent", "client_id", c.ID)
		s.send(c, protocol.StatusUpdate, msgWaitingOpponent)
		return
	}
	s.stats.waiting.Store(0)

	r := room.NewRoom(s.newID(), partner.ID, c.ID, s.flip)
	s.rooms[r.ID] = r
	s.stats.rooms.Add(1)
	partner.room = r
	c.room = r

	s.logger.Info("room created", "room_id", r.ID, "first", partner.ID, "second", c.ID)
	s.broadcast(r, protocol.StatusUpdate, msgOpponentFound)
	s.broadcast(r, protocol.SetupPhase, nil)
}

func (s *Server) handleDisconnect(c *Client) {
	if _, ok := s.clients[c.ID]; !ok {
		return
	}
	delete(s.clients, c.ID)
	s.stats.clients.Add(-1)
	c.close()

	if s.queue.Remove(c) {
		s.stats.waiting.Store(0)
		s.logger.Info("waiting client left", "client_id", c.ID)
		return
	}

	r := c.room
	if r == nil || r.State == room.Finished {
		s.logger.Info("client left", "client_id", c.ID)
		return
	}

	remaining, err := r.Leave(c.ID)
	if err != nil {
		s.logger.Error("leave room", "room_id", r.ID, "client_id", c.ID, "error", err)
		return
	}
	s.logger.Info("client left running match", "room_id", r.ID, "client_id", c.ID, "remaining", remaining)
	s.sendTo(remaining, protocol.GameOver, protocol.GameOverPayload{Winner: protocol.OpponentLeft})
	s.finishRoom(r)
}

func (s *Server) handleMessage(c *Client, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		s.logger.Warn("undecodable frame", "client_id", c.ID, "error", err)
		s.sendError(c, err)
		return
	}

	switch msg.Type {
	case protocol.PlayerReady, protocol.Fire:
	default:
		s.logger.Warn("unknown message type", "client_id", c.ID, "type", msg.Type)
		s.sendError(c, fmt.Errorf("%w: unknown type %q", protocol.ErrBadMessage, msg.Type))
		return
	}

	if c.room == nil {
		s.logger.Debug("dropping message from unpaired client", "client_id", c.ID, "type", msg.Type)
		return
	}

	switch msg.Type {
	case protocol.PlayerReady:
		s.handlePlayerReady(c, msg)
	case protocol.Fire:
		s.handleFire(c, msg)
	}
}

func (s *Server) handlePlayerReady(c *Client, msg protocol.Message) {
	r := c.room
	if r.IsReady(c.ID) {
		s.sendError(c, room.ErrAlreadyReady)
		return
	}

	var matrix [][]int
	if err := protocol.DecodePayload(msg, &matrix); err != nil {
		s.sendError(c, err)
		return
	}
	g, err := board.FromMatrix(matrix)
	if err != nil {
		s.sendError(c, err)
		return
	}

	started, err := r.SubmitShips(c.ID, g)
	if err != nil {
		s.sendError(c, err)
		return
	}
	s.logger.Debug("ships submitted", "room_id", r.ID, "client_id", c.ID, "ship_cells", g.Count(board.ShipIntact))

	if !started {
		s.send(c, protocol.StatusUpdate, msgWaitingShips)
		return
	}

	first := r.Turn()
	s.logger.Info("game started", "room_id", r.ID, "first", first)
	for _, id := range r.Players {
		s.sendTo(id, protocol.GameStart, protocol.GameStartPayload{Turn: id == first})
	}
}

func (s *Server) handleFire(c *Client, msg protocol.Message) {
	var p protocol.FirePayload
	if err := protocol.DecodePayload(msg, &p); err != nil {
		s.sendError(c, err)
		return
	}

	r := c.room
	shot, err := r.Fire(c.ID, board.Coord{X: p.X, Y: p.Y})
	if err != nil {
		s.sendError(c, err)
		return
	}
	s.logger.Debug("shot resolved", "room_id", r.ID, "client_id", c.ID,
		"x", p.X, "y", p.Y, "result", shot.Result.String())

	payload := protocol.NewShotPayload(shot.Target, shot.Result, shot.Sunk)
	s.send(c, protocol.FireResult, payload)
	s.sendTo(shot.Defender, protocol.EnemyFire, payload)

	if shot.GameOver {
		s.broadcast(r, protocol.GameOver, protocol.GameOverPayload{Winner: shot.Attacker})
		s.finishRoom(r)
		return
	}

	if shot.Result == board.Missed {
		s.send(c, protocol.TurnChange, false)
		s.sendTo(shot.Defender, protocol.TurnChange, true)
	}
}

// finishRoom forgets a finished room. Its players keep the reference.
func (s *Server) finishRoom(r *room.Room) {
	if _, ok := s.rooms[r.ID]; !ok {
		return
	}
	delete(s.rooms, r.ID)
	s.stats.rooms.Add(-1)
	s.stats.finished.Add(1)
	s.logger.Info("room finished", "room_id", r.ID, "winner", r.Winner,
		"duration", time.Since(r.CreatedAt).Round(time.Millisecond))
}

func (s *Server) shutdown() {
	for id, c := range s.clients {
		c.close()
		delete(s.clients, id)
	}
	s.stats.clients.Store(0)
}

func (s *Server) send(c *Client, typ string, payload any) {
	data, err := protocol.Encode(typ, payload)
	if err != nil {
		s.logger.Error("encode message", "type", typ, "error", err)
		return
	}
	if !c.enqueue(data) {
		s.logger.Warn("dropping message", "client_id", c.ID, "type", typ)
	}
}

func (s *Server) sendTo(clientID, typ string, payload any) {
	c, ok := s.clients[clientID]
	if !ok {
		s.logger.Debug("recipient gone", "client_id", clientID, "type", typ)
		return
	}
	s.send(c, typ, payload)
}

// broadcast sends the same frame to both players of r.
func (s *Server) broadcast(r *room.Room, typ string, payload any) {
	for _, id := range r.Players {
		s.sendTo(id, typ, payload)
	}
}

func (s *Server) sendError(c *Client, err error) {
	code := errorCode(err)
	s.logger.Debug("rejecting client action", "client_id", c.ID, "code", code, "error", err)
	s.send(c, protocol.Error, protocol.ErrorPayload{Code: code, Message: err.Error()})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, board.ErrAlreadyFired):
		return "already-fired"
	case errors.Is(err, board.ErrOutOfBounds):
		return "out-of-bounds"
	case errors.Is(err, board.ErrInvalidGrid):
		return "invalid-grid"
	case errors.Is(err, room.ErrNotYourTurn):
		return "not-your-turn"
	case errors.Is(err, room.ErrNotStarted):
		return "not-started"
	case errors.Is(err, room.ErrMatchFinished):
		return "match-finished"
	case errors.Is(err, room.ErrAlreadyReady):
		return "already-ready"
	case errors.Is(err, protocol.ErrBadMessage):
		return "bad-message"
	default:
		return "internal"
	}
}
