package routes

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

type eventType int

const (
	BOOK_ISSUED eventType = iota
	BOOK_RETURNED
)

func (e eventType) String() string {
	switch e {
	case BOOK_ISSUED:
		return "BOOK_ISSUED"
	case BOOK_RETURNED:
		return "BOOK_RETURNED"
	}
	return "Unknown event"
}

type event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type loanEvent struct {
	BookId   string `json:"bookId"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

type hub struct {
	admins     map[*websocket.Conn]bool
	connect    chan *websocket.Conn
	disconnect chan *websocket.Conn
	broadcast  chan *event
}

func newHub() *hub {
	return &hub{
		admins:     make(map[*websocket.Conn]bool),
		connect:    make(chan *websocket.Conn),
		disconnect: make(chan *websocket.Conn),
		broadcast:  make(chan *event),
	}
}

func (s *Server) runHub() {
	for {
		select {
		case conn := <-s.hub.connect:
			s.hub.admins[conn] = true
		case conn := <-s.hub.disconnect:
			conn.Close()
			delete(s.hub.admins, conn)
		case event := <-s.hub.broadcast:
			for conn := range s.hub.admins {
				if err := conn.WriteJSON(event); err != nil {
					continue
				}
			}
		}
	}
}

// broadcast never blocks a request on the hub; with no dashboard
// listening the event is simply dropped.
func (s *Server) broadcast(t eventType, payload interface{}) {
	if s.hub == nil {
		return
	}

	select {
	case s.hub.broadcast <- &event{Type: t.String(), Payload: payload}:
	default:
	}
}

// HandleEvents streams issue/return events to admin dashboards.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)

	if err != nil {
		s.Logger.Error(fmt.Sprintf("error upgrading ws connection: %v", err), "service", "HandleEvents")
		return
	}

	s.hub.connect <- conn

	defer func() {
		s.hub.disconnect <- conn
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
