package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"trivia-service/internal/domain"
	"trivia-service/internal/game"
)

// Keepalive tunes the transport's liveness probing. A connection that misses
// the pong window is treated as disconnected.
type Keepalive struct {
	PingInterval time.Duration
	PongWait     time.Duration
}

func DefaultKeepalive() Keepalive {
	return Keepalive{
		PingInterval: 20 * time.Second,
		PongWait:     20 * time.Second,
	}
}

// Handler upgrades HTTP requests to websockets and routes inbound messages to
// the room a connection belongs to.
type Handler struct {
	manager   *game.Manager
	reg       *Registry
	keepalive Keepalive
	upgrader  websocket.Upgrader
}

func NewHandler(manager *game.Manager, reg *Registry, keepalive Keepalive) *Handler {
	return &Handler{
		manager:   manager,
		reg:       reg,
		keepalive: keepalive,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createRoomPayload struct {
	MaxParticipants int    `json:"maxParticipants"`
	NumQuestions    int    `json:"numQuestions"`
	Topic           string `json:"topic"`
	Username        string `json:"username"`
}

type joinRoomPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type submitAnswerPayload struct {
	Answer string `json:"answer"`
}

type roomStatePayload struct {
	RoomID              string `json:"roomId"`
	ParticipantID       string `json:"participantId"`
	Username            string `json:"username"`
	CurrentParticipants int    `json:"currentParticipants"`
	MaxParticipants     int    `json:"maxParticipants"`
	Topic               string `json:"topic"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS is the single entry point for participants. One connection carries
// one participant; parse failures are logged and the connection stays open.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	client := newClient(uuid.NewString(), conn)
	h.reg.Register(client)
	go client.writePump(h.keepalive.PingInterval)

	_ = conn.SetReadDeadline(time.Now().Add(h.keepalive.PongWait + h.keepalive.PingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.keepalive.PongWait + h.keepalive.PingInterval))
	})

	var roomID, participantID string
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var inbound inboundMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			log.Printf("ws: discarding malformed message from %s: %v", client.id, err)
			continue
		}

		switch inbound.Type {
		case "create_room":
			roomID, participantID = h.handleCreate(client, inbound.Payload, roomID, participantID)
		case "join_room":
			roomID, participantID = h.handleJoin(client, inbound.Payload, roomID, participantID)
		case "submit_answer":
			h.handleSubmit(client, inbound.Payload, roomID, participantID)
		default:
			h.sendError(client, "unsupported_type", "unsupported message type: "+inbound.Type)
		}
	}

	h.reg.Unregister(client.id)
	if roomID != "" && participantID != "" {
		if room, ok := h.manager.Get(roomID); ok {
			room.Disconnect(participantID)
		}
	}
}

// handleCreate and handleJoin return the connection's session binding. A
// rejected message must hand the existing binding back untouched so one bad
// message cannot orphan the participant.
func (h *Handler) handleCreate(client *Client, raw json.RawMessage, currentRoom, currentParticipant string) (string, string) {
	if currentRoom != "" {
		h.sendError(client, "already_in_room", "leave the current room first")
		return currentRoom, currentParticipant
	}
	var payload createRoomPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.sendError(client, "invalid_payload", "invalid create_room payload")
			return currentRoom, currentParticipant
		}
	}
	if payload.Username == "" {
		payload.Username = "player-" + client.id[:6]
	}

	room := h.manager.Create(context.Background(), payload.MaxParticipants, payload.NumQuestions, payload.Topic)
	participantID, err := room.Join(payload.Username)
	if err != nil {
		h.sendError(client, errorCode(err), err.Error())
		return currentRoom, currentParticipant
	}
	h.reg.Bind(client.id, room.ID())

	h.send(client, domain.Event{Type: "room_created", Payload: roomStatePayload{
		RoomID:              room.ID(),
		ParticipantID:       participantID,
		Username:            payload.Username,
		CurrentParticipants: 1,
		MaxParticipants:     room.Capacity(),
		Topic:               room.Topic(),
	}})
	return room.ID(), participantID
}

func (h *Handler) handleJoin(client *Client, raw json.RawMessage, currentRoom, currentParticipant string) (string, string) {
	if currentRoom != "" {
		h.sendError(client, "already_in_room", "leave the current room first")
		return currentRoom, currentParticipant
	}
	var payload joinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomID == "" {
		h.sendError(client, "invalid_payload", "invalid join_room payload")
		return currentRoom, currentParticipant
	}
	if payload.Username == "" {
		payload.Username = "player-" + client.id[:6]
	}

	room, ok := h.manager.Get(payload.RoomID)
	if !ok {
		h.sendError(client, errorCode(domain.ErrRoomNotFound), domain.ErrRoomNotFound.Error())
		return currentRoom, currentParticipant
	}
	// Bind before joining so the join broadcast reaches this connection too.
	h.reg.Bind(client.id, room.ID())
	participantID, err := room.Join(payload.Username)
	if err != nil {
		h.reg.Bind(client.id, "")
		h.sendError(client, errorCode(err), err.Error())
		return currentRoom, currentParticipant
	}

	h.send(client, domain.Event{Type: "room_joined", Payload: roomStatePayload{
		RoomID:              room.ID(),
		ParticipantID:       participantID,
		Username:            payload.Username,
		CurrentParticipants: room.Size(),
		MaxParticipants:     room.Capacity(),
		Topic:               room.Topic(),
	}})
	return room.ID(), participantID
}

func (h *Handler) handleSubmit(client *Client, raw json.RawMessage, roomID, participantID string) {
	if roomID == "" || participantID == "" {
		h.sendError(client, "not_in_room", "join a room before answering")
		return
	}
	var payload submitAnswerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(client, "invalid_payload", "invalid submit_answer payload")
		return
	}
	room, ok := h.manager.Get(roomID)
	if !ok {
		h.sendError(client, errorCode(domain.ErrRoomNotFound), domain.ErrRoomNotFound.Error())
		return
	}
	accepted, err := room.Submit(participantID, payload.Answer)
	if err != nil {
		h.sendError(client, errorCode(err), err.Error())
		return
	}
	if accepted {
		h.send(client, domain.Event{Type: "answer_recorded"})
	}
}

func (h *Handler) send(client *Client, ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ws: marshal %s event: %v", ev.Type, err)
		return
	}
	if !client.enqueue(data) {
		h.reg.Unregister(client.id)
	}
}

func (h *Handler) sendError(client *Client, code, message string) {
	h.send(client, domain.Event{Type: "error", Payload: errorPayload{Code: code, Message: message}})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, domain.ErrRoomFull):
		return "room_full"
	case errors.Is(err, domain.ErrRoomNotJoinable):
		return "room_not_joinable"
	case errors.Is(err, domain.ErrNoActiveQuestion):
		return "no_active_question"
	case errors.Is(err, domain.ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, domain.ErrParticipantNotFound):
		return "participant_not_found"
	default:
		return "internal_error"
	}
}
