package usecase_gate

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/suthee/kinarai/core/internal/model"
)

func room(phase model.Phase, users ...model.RoomUser) model.Room {
	r := model.Room{
		ID:    "AB12CD",
		Phase: phase,
		Users: users,
	}
	if len(users) > 0 {
		r.OwnerID = users[0].ID
	}
	return r
}

func user(ready bool) model.RoomUser {
	return model.RoomUser{ID: uuid.New(), Ready: ready}
}

func TestLobbyNeedsTwoParticipants(t *testing.T) {
	gate := New(false)
	host := user(false)

	_, err := gate.Next(room(model.PhaseLobby, host), host.ID)
	assert.ErrorIs(t, err, ErrNotEnoughUsers)

	next, err := gate.Next(room(model.PhaseLobby, host, user(false)), host.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.PhaseReadyCheck, next)
}

func TestOnlyHostAdvances(t *testing.T) {
	gate := New(false)
	host := user(false)
	guest := user(true)

	_, err := gate.Next(room(model.PhaseLobby, host, guest), guest.ID)
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestReadyCheckIsAdvisoryByDefault(t *testing.T) {
	gate := New(false)
	host := user(false)

	next, err := gate.Next(room(model.PhaseReadyCheck, host, user(false)), host.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.PhaseSelection, next)
}

func TestRequireAllReadyBlocksStragglers(t *testing.T) {
	gate := New(true)
	host := user(true)

	_, err := gate.Next(room(model.PhaseReadyCheck, host, user(false)), host.ID)
	assert.ErrorIs(t, err, ErrNotAllReady)

	next, err := gate.Next(room(model.PhaseReadyCheck, host, user(true)), host.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.PhaseSelection, next)
}

func TestSelectionPhaseIsTerminal(t *testing.T) {
	gate := New(false)
	host := user(true)

	_, err := gate.Next(room(model.PhaseSelection, host, user(true)), host.ID)
	assert.ErrorIs(t, err, ErrPhaseDone)
}
