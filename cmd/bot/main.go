package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"skyvox.io/internal/protocol"
	"skyvox.io/internal/sim/comp"
)

func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "player alias")
		vd   = flag.Uint("view_distance", 4, "view distance in chunks")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	out := make(chan protocol.ClientMsg, 64)
	ingame := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		readLoop(conn, logger, *name, out, ingame)
	}()

	view := uint32(*vd)
	out <- protocol.ClientMsg{Type: protocol.TypeRegister, Player: &protocol.PlayerInfo{Alias: *name, ViewDistance: &view}}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	var (
		playing bool
		heading float64
		n       int
	)
	for {
		select {
		case <-stop:
			_ = conn.WriteJSON(protocol.ClientMsg{Type: protocol.TypeDisconnect})
			return
		case <-done:
			return
		case <-ingame:
			playing = true
			ingame = nil
		case m := <-out:
			if err := conn.WriteJSON(m); err != nil {
				logger.Printf("write: %v", err)
				return
			}
		case <-ticker.C:
			if !playing {
				continue
			}
			n++
			// Wander: drift the heading and occasionally hop.
			heading += (r.Float64() - 0.5) * 0.6
			in := protocol.InputState{
				Move: [2]float64{math.Cos(heading), math.Sin(heading)},
				Jump: r.Intn(30) == 0,
			}
			if err := conn.WriteJSON(protocol.ClientMsg{Type: protocol.TypePlayerInput, Input: &in}); err != nil {
				logger.Printf("write: %v", err)
				return
			}
			if n%300 == 0 {
				_ = conn.WriteJSON(protocol.ClientMsg{Type: protocol.TypeChat, Text: fmt.Sprintf("still wandering (%d)", n)})
			}
		}
	}
}

func readLoop(conn *websocket.Conn, logger *log.Logger, name string, out chan<- protocol.ClientMsg, ingame chan<- struct{}) {
	for {
		var msg protocol.ServerMsg
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Printf("read: %v", err)
			return
		}
		switch msg.Type {
		case protocol.TypeInitialSync:
			logger.Printf("INITIAL_SYNC uid=%d protocol=%s", msg.EntityUid, msg.ProtocolVersion)
		case protocol.TypeStateAnswer:
			if msg.Error != "" {
				logger.Printf("state rejected: %s (current %s)", msg.Error, msg.State)
				continue
			}
			logger.Printf("state -> %s", msg.State)
			switch msg.State {
			case protocol.StateRegistered:
				body := comp.DefaultBody()
				out <- protocol.ClientMsg{Type: protocol.TypeCharacter, Name: name, Body: &body}
			case protocol.StateCharacter:
				if ingame != nil {
					close(ingame)
					ingame = nil
				}
			}
		case protocol.TypeForceState:
			logger.Printf("forced -> %s", msg.State)
			if msg.State == protocol.StateDead {
				out <- protocol.ClientMsg{Type: protocol.TypeRespawn}
			}
		case protocol.TypePing:
			out <- protocol.ClientMsg{Type: protocol.TypePong}
		case protocol.TypeChat:
			logger.Printf("chat: %s", msg.Text)
		case protocol.TypeDisconnect, protocol.TypeShutdown:
			logger.Printf("%s", msg.Type)
			return
		}
	}
}
