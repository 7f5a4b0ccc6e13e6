package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zjx20/seabattlehub/internal/board"
	"github.com/zjx20/seabattlehub/internal/protocol"
)

const (
	// Time allowed to write a message to the server.
	writeWait = 10 * time.Second
	// The server pings well within this window.
	pingWait = 70 * time.Second
)

func main() {
	serverAddr := flag.String("server", "localhost:4000", "Battle server address (e.g., wss://your.server.com)")
	seed := flag.Uint64("seed", 0, "Seed for the random fleet (0 picks one)")
	flag.Parse()

	u, err := serverURL(*serverAddr)
	if err != nil {
		log.Fatalf("Invalid server URL: %v", err)
	}

	if *seed == 0 {
		*seed = rand.Uint64()
	}
	fleet := board.RandomFleet(rand.New(rand.NewPCG(*seed, *seed>>1)))

	log.Printf("Connecting to %s", u.String())
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pingWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pingWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	out := make(chan []byte, 8)
	go writeLoop(conn, out)
	go readShots(os.Stdin, out)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Connection closed: %v", err)
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			log.Printf("Ignoring frame: %v", err)
			continue
		}
		if done := handle(msg, fleet, out); done {
			return
		}
	}
}

// serverURL accepts host:port, http(s) or ws(s) addresses and points them at /ws.
func serverURL(addr string) (*url.URL, error) {
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		u, err = url.Parse("ws://" + addr)
		if err != nil {
			return nil, err
		}
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u, nil
}

func handle(msg protocol.Message, fleet board.Grid, out chan<- []byte) (done bool) {
	switch msg.Type {
	case protocol.Session:
		var p protocol.SessionPayload
		_ = json.Unmarshal(msg.Payload, &p)
		log.Printf("Session %s", p.ID)
	case protocol.StatusUpdate:
		var text string
		_ = json.Unmarshal(msg.Payload, &text)
		log.Println(text)
	case protocol.SetupPhase:
		printGrid(fleet)
		send(out, protocol.PlayerReady, fleet.Matrix())
	case protocol.GameStart:
		var p protocol.GameStartPayload
		_ = json.Unmarshal(msg.Payload, &p)
		announceTurn(p.Turn)
	case protocol.TurnChange:
		var turn bool
		_ = json.Unmarshal(msg.Payload, &turn)
		announceTurn(turn)
	case protocol.FireResult, protocol.EnemyFire:
		var p protocol.ShotPayload
		_ = json.Unmarshal(msg.Payload, &p)
		who := "You"
		if msg.Type == protocol.EnemyFire {
			who = "Enemy"
		}
		log.Printf("%s fired at (%d,%d): %s", who, p.X, p.Y, p.Result)
		if p.Result == board.Killed {
			log.Printf("Ship sunk: %v", p.SunkCoords)
		}
	case protocol.GameOver:
		var p protocol.GameOverPayload
		_ = json.Unmarshal(msg.Payload, &p)
		log.Printf("Game over, winner: %s", p.Winner)
		return true
	case protocol.Error:
		var p protocol.ErrorPayload
		_ = json.Unmarshal(msg.Payload, &p)
		log.Printf("Rejected (%s): %s", p.Code, p.Message)
	default:
		log.Printf("Unhandled %s", msg.Type)
	}
	return false
}

func announceTurn(mine bool) {
	if mine {
		log.Println("Your turn. Enter target as: x y")
	} else {
		log.Println("Opponent's turn.")
	}
}

func printGrid(g board.Grid) {
	var b strings.Builder
	for y := 0; y < board.Size; y++ {
		for x := 0; x < board.Size; x++ {
			if g.At(board.Coord{X: x, Y: y}) == board.ShipIntact {
				b.WriteString("# ")
			} else {
				b.WriteString(". ")
			}
		}
		b.WriteByte('\n')
	}
	fmt.Print(b.String())
}

// readShots turns "x y" lines into fire frames.
func readShots(f *os.File, out chan<- []byte) {
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var p protocol.FirePayload
		if _, err := fmt.Sscan(sc.Text(), &p.X, &p.Y); err != nil {
			log.Printf("Expected two numbers: %v", err)
			continue
		}
		send(out, protocol.Fire, p)
	}
}

func send(out chan<- []byte, typ string, payload any) {
	data, err := protocol.Encode(typ, payload)
	if err != nil {
		log.Printf("Error encoding %s: %v", typ, err)
		return
	}
	out <- data
}

func writeLoop(conn *websocket.Conn, out <-chan []byte) {
	for data := range out {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Write failed: %v", err)
			conn.Close()
			return
		}
	}
}
