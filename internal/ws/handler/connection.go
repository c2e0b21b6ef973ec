package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"spinsim/internal/lib/logger/sl"
	"spinsim/internal/model"
)

type Message struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Data    interface{} `json:"data"`
}

type Subscription struct {
	Conn    *websocket.Conn
	Channel string
}

// Hub fans simulation step batches out to websocket subscribers. Channels
// are keyed by batch id; a subscriber may receive several steps per message
// because the engine flushes its log in batches.
type Hub struct {
	Channels  map[string]map[*websocket.Conn]bool
	Broadcast chan Message
	Subscribe chan Subscription
	mutex     sync.RWMutex
	log       *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		Channels:  make(map[string]map[*websocket.Conn]bool),
		Broadcast: make(chan Message, 64),
		Subscribe: make(chan Subscription),
		log:       log,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// PublishSteps implements the engine's publisher seam: one message per
// flushed batch on the run's channel.
func (hub *Hub) PublishSteps(channel string, steps []model.SimulationStep) {
	hub.Broadcast <- Message{
		Channel: channel,
		Event:   "steps",
		Data:    steps,
	}
}

func (hub *Hub) Run() {
	var (
		sub       Subscription
		err       error
		data      []byte
		conn      *websocket.Conn
		receivers map[*websocket.Conn]bool
		ok        bool
	)

	for {
		select {
		case sub = <-hub.Subscribe:
			hub.mutex.Lock()
			if hub.Channels[sub.Channel] == nil {
				hub.Channels[sub.Channel] = make(map[*websocket.Conn]bool)
			}
			hub.Channels[sub.Channel][sub.Conn] = true
			hub.mutex.Unlock()
		case message := <-hub.Broadcast:
			hub.mutex.RLock()
			receivers, ok = hub.Channels[message.Channel]
			hub.mutex.RUnlock()

			if !ok {
				continue
			}

			data, err = json.Marshal(message)
			if err != nil {
				hub.log.Error("failed to marshal message", sl.Err(err))

				continue
			}

			for conn = range receivers {
				if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
					hub.log.Error("failed to write message", sl.Err(err))

					hub.drop(message.Channel, conn)
				}
			}
		}
	}
}

func (hub *Hub) drop(channel string, conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	if receivers, ok := hub.Channels[channel]; ok {
		delete(receivers, conn)
	}

	_ = conn.Close()
}

func (hub *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("failed to upgrade connection", sl.Err(err))

		return
	}

	channel := r.URL.Query().Get("batch")
	if channel == "" {
		hub.log.Error("missing batch query parameter")

		_ = ws.Close()

		return
	}

	hub.Subscribe <- Subscription{Conn: ws, Channel: channel}

	hub.log.Info("subscriber joined", sl.String("channel", channel))
}
