package main

import (
	"bufio"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Minimal interactive client: lines on stdin become JSON actions.
//
//	join <room> [name]
//	start | reset | leave | rooms | ping
//	roll <d1> <d2>
//	buy <cardId>
//	build <landmarkId>
type action struct {
	Action     string `json:"action"`
	Room       string `json:"room,omitempty"`
	Player     int    `json:"player,omitempty"`
	Dice       []int  `json:"dice,omitempty"`
	CardID     string `json:"cardId,omitempty"`
	LandmarkID string `json:"landmarkId,omitempty"`
	Name       string `json:"name,omitempty"`
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	addr := "localhost:8000"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})
	var room string
	var player int

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			log.Printf("<- RECV: %s", string(message))

			var msg struct {
				Type   string `json:"type"`
				Player int    `json:"player"`
			}
			if json.Unmarshal(message, &msg) == nil && msg.Type == "joined" {
				player = msg.Player
				log.Printf("Seated as player %d", player)
			}
		}
	}()

	input := make(chan string)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		for {
			text, err := reader.ReadString('\n')
			if err != nil {
				close(input)
				return
			}
			input <- strings.TrimSpace(text)
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-input:
			if !ok {
				return
			}
			act, ok := parseLine(line, &room, player)
			if !ok {
				continue
			}
			data, _ := json.Marshal(act)
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", string(data))
		}
	}
}

func parseLine(line string, room *string, player int) (*action, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}

	act := &action{Room: *room, Player: player}
	switch fields[0] {
	case "join":
		if len(fields) < 2 {
			log.Println("Usage: join <room> [name]")
			return nil, false
		}
		*room = fields[1]
		act.Action = "join"
		act.Room = fields[1]
		if len(fields) > 2 {
			act.Name = fields[2]
		}
	case "roll":
		act.Action = "roll"
		d1, d2 := 1, 1
		if len(fields) >= 3 {
			d1, _ = strconv.Atoi(fields[1])
			d2, _ = strconv.Atoi(fields[2])
		}
		act.Dice = []int{d1, d2}
	case "buy":
		if len(fields) < 2 {
			log.Println("Usage: buy <cardId>")
			return nil, false
		}
		act.Action = "buy"
		act.CardID = fields[1]
	case "build":
		if len(fields) < 2 {
			log.Println("Usage: build <landmarkId>")
			return nil, false
		}
		act.Action = "build"
		act.LandmarkID = fields[1]
	case "start", "reset", "leave", "ping":
		act.Action = fields[0]
	case "rooms":
		act.Action = "getRooms"
	default:
		log.Printf("Unknown command %q", fields[0])
		return nil, false
	}
	return act, true
}
