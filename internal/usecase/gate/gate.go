package usecase_gate

import (
	"errors"

	"github.com/google/uuid"

	"github.com/suthee/kinarai/core/internal/model"
)

var (
	ErrNotHost        = errors.New("only the room owner can advance the phase")
	ErrNotEnoughUsers = errors.New("not enough participants")
	ErrNotAllReady    = errors.New("not all participants are ready")
	ErrPhaseDone      = errors.New("room already in selection phase")
)

const minUsersToAdvance = 2

// Gate decides when the host may move a room from lobby towards the
// selection phase. Readiness flags are advisory unless RequireAllReady
// is set, which turns "all ready" into a hard precondition.
type Gate struct {
	RequireAllReady bool
}

func New(requireAllReady bool) Gate {
	return Gate{RequireAllReady: requireAllReady}
}

// Next returns the phase following the room's current one, or an error
// describing why the transition is not available to userID.
func (g Gate) Next(room model.Room, userID uuid.UUID) (model.Phase, error) {
	if !room.IsOwner(userID) {
		return room.Phase, ErrNotHost
	}

	switch room.Phase {
	case model.PhaseLobby:
		if len(room.Users) < minUsersToAdvance {
			return room.Phase, ErrNotEnoughUsers
		}
		return model.PhaseReadyCheck, nil

	case model.PhaseReadyCheck:
		if g.RequireAllReady && !room.AllReady() {
			return room.Phase, ErrNotAllReady
		}
		return model.PhaseSelection, nil

	default:
		return room.Phase, ErrPhaseDone
	}
}
