package model

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

const EmptyRoomID RoomID = ""

// Phase of a room round. Selection is terminal.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseReadyCheck Phase = "ready_check"
	PhaseSelection  Phase = "selection"
)

type RoomUser struct {
	ID         uuid.UUID
	Name       string
	Ready      bool
	Categories []string
}

type Settings struct {
	Categories []string
	PriceRange string
	Dietary    []string

	ResultCount     int
	SpinDuration    time.Duration
	RequireAllReady bool
}

// Room invariants: OwnerID corresponds to exactly one entry in Users,
// Users keeps join order, a room with no users left is garbage.
type Room struct {
	ID       RoomID
	Name     string
	OwnerID  uuid.UUID
	Users    []RoomUser
	Settings Settings
	Phase    Phase

	CreatedAt time.Time
}

func (r *Room) User(id uuid.UUID) (RoomUser, bool) {
	for _, u := range r.Users {
		if u.ID == id {
			return u, true
		}
	}
	return RoomUser{}, false
}

func (r *Room) IsOwner(id uuid.UUID) bool {
	return r.OwnerID == id
}

func (r *Room) AllReady() bool {
	for _, u := range r.Users {
		if !u.Ready {
			return false
		}
	}
	return true
}
