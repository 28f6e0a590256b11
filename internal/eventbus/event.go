package eventbus

import (
	"github.com/google/uuid"

	"github.com/suthee/kinarai/core/internal/model"
)

// Room-scoped event names. Client -> channel.
const (
	EventJoinRoom         = "join-room"
	EventLeaveRoom        = "leave-room"
	EventUpdateUserStatus = "update-user-status"
)

// Channel -> client.
const (
	EventRoomUpdated       = "room-updated"
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventUserStatusUpdated = "user-status-updated"
	EventPhaseChanged      = "phase-changed"
	EventSelectionTick     = "selection-tick"
	EventSelectionResult   = "selection-result"
)

type Event struct {
	Type    string       `json:"type"`
	RoomID  model.RoomID `json:"room_id"`
	Payload any          `json:"payload,omitempty"`
}

type UserStatusPayload struct {
	UserID     uuid.UUID `json:"user_id"`
	Ready      bool      `json:"ready"`
	Categories []string  `json:"categories,omitempty"`
}

type PhasePayload struct {
	Phase       model.Phase `json:"phase"`
	InitiatedBy uuid.UUID   `json:"initiated_by"`
}

type TickPayload struct {
	Item      model.Candidate `json:"item"`
	ElapsedMS int64           `json:"elapsed_ms"`
}
