package room

import (
	"errors"
	"fmt"
	"time"

	"github.com/zjx20/seabattlehub/internal/board"
)

var (
	ErrNotParticipant = errors.New("player is not in this room")
	ErrAlreadyReady   = errors.New("ships already submitted")
	ErrNotStarted     = errors.New("game has not started")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrMatchFinished  = errors.New("match is finished")
)

// State is the lifecycle phase of a room.
type State int

const (
	AwaitingSetup State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case AwaitingSetup:
		return "AWAITING_SETUP"
	case InProgress:
		return "IN_PROGRESS"
	case Finished:
		return "FINISHED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Room is one match between exactly two players. It is not safe for
// concurrent use; the server mutates rooms from a single goroutine.
type Room struct {
	ID        string
	Players   [2]string
	State     State
	Winner    string
	CreatedAt time.Time

	ready [2]bool
	grids [2]board.Grid
	turn  int
	flip  func() bool
}

// Shot describes a resolved fire action.
type Shot struct {
	Attacker string
	Defender string
	Target   board.Coord
	Result   board.Result
	Sunk     []board.Coord
	GameOver bool
}

// NewRoom pairs first and second. flip decides who moves first once both
// players are ready; true means first starts.
func NewRoom(id, first, second string, flip func() bool) *Room {
	return &Room{
		ID:        id,
		Players:   [2]string{first, second},
		State:     AwaitingSetup,
		CreatedAt: time.Now(),
		flip:      flip,
	}
}

func (r *Room) seat(playerID string) (int, error) {
	for i, p := range r.Players {
		if p == playerID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrNotParticipant, playerID)
}

// IsReady reports whether the player has submitted a grid.
func (r *Room) IsReady(playerID string) bool {
	s, err := r.seat(playerID)
	return err == nil && r.ready[s]
}

// Turn returns the player allowed to fire, or "" while the game is not running.
func (r *Room) Turn() string {
	if r.State != InProgress {
		return ""
	}
	return r.Players[r.turn]
}

// Grid returns a copy of the player's own grid.
func (r *Room) Grid(playerID string) (board.Grid, bool) {
	s, err := r.seat(playerID)
	if err != nil {
		return board.Grid{}, false
	}
	return r.grids[s].Clone(), true
}

// SubmitShips stores the player's layout and marks them ready. When both
// players are ready the turn order is decided and started is true.
func (r *Room) SubmitShips(playerID string, g board.Grid) (started bool, err error) {
	s, err := r.seat(playerID)
	if err != nil {
		return false, err
	}
	if r.State == Finished {
		return false, ErrMatchFinished
	}
	if r.ready[s] {
		return false, ErrAlreadyReady
	}

	r.grids[s] = g.Clone()
	r.ready[s] = true

	if !r.ready[1-s] {
		return false, nil
	}

	r.turn = 1
	if r.flip() {
		r.turn = 0
	}
	r.State = InProgress
	return true, nil
}

// Fire resolves a shot by playerID at the opponent's grid. A rejected shot
// leaves the room unchanged. A miss passes the turn; a hit keeps it.
func (r *Room) Fire(playerID string, target board.Coord) (Shot, error) {
	s, err := r.seat(playerID)
	if err != nil {
		return Shot{}, err
	}

	switch r.State {
	case AwaitingSetup:
		return Shot{}, ErrNotStarted
	case Finished:
		return Shot{}, ErrMatchFinished
	}
	if r.turn != s {
		return Shot{}, ErrNotYourTurn
	}

	defender := 1 - s
	result, sunk, err := r.grids[defender].Shoot(target)
	if err != nil {
		return Shot{}, fmt.Errorf("fire at (%d,%d): %w", target.X, target.Y, err)
	}

	shot := Shot{
		Attacker: r.Players[s],
		Defender: r.Players[defender],
		Target:   target,
		Result:   result,
		Sunk:     sunk,
	}

	if result == board.Missed {
		r.turn = defender
		return shot, nil
	}

	if !board.HasSurvivingShip(&r.grids[defender]) {
		r.State = Finished
		r.Winner = shot.Attacker
		shot.GameOver = true
	}
	return shot, nil
}

// Leave ends the room because playerID left. It returns the remaining player.
func (r *Room) Leave(playerID string) (string, error) {
	s, err := r.seat(playerID)
	if err != nil {
		return "", err
	}
	if r.State == Finished {
		return "", ErrMatchFinished
	}

	r.State = Finished
	r.Winner = r.Players[1-s]
	return r.Players[1-s], nil
}
