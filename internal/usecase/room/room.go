package usecase_room

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/suthee/kinarai/core/internal/model"
	usecase_gate "github.com/suthee/kinarai/core/internal/usecase/gate"
)

var (
	ErrEmptyName        = errors.New("name must not be empty")
	ErrEmptyRoomID      = errors.New("room code must not be empty")
	ErrCodeConflict     = errors.New("code conflict")
	ErrRoomsUnavailable = errors.New("no available rooms")
	ErrInternal         = errors.New("internal error")
	ErrResourceNotFound = errors.New("no such resource")
)

//go:generate mockery --name=RoomRepository --output=./mocks/room/repository --filename=repository.go
type RoomRepository interface {
	Create(ctx context.Context, room model.Room) error
	ByID(ctx context.Context, id model.RoomID) (model.Room, error)
	AddUser(ctx context.Context, id model.RoomID, user model.RoomUser) error
	UpdateUser(ctx context.Context, id model.RoomID, user model.RoomUser) error
	RemoveUser(ctx context.Context, id model.RoomID, userID uuid.UUID) error
	SetOwner(ctx context.Context, id model.RoomID, ownerID uuid.UUID) error
	SetPhase(ctx context.Context, id model.RoomID, phase model.Phase) error
	Delete(ctx context.Context, id model.RoomID) error
}

type Usecase struct {
	RoomRepository RoomRepository
	Gate           usecase_gate.Gate

	defaults model.Settings
}

func New(
	RoomRepository RoomRepository,
	gate usecase_gate.Gate,
	defaults model.Settings,
) *Usecase {
	if defaults.ResultCount <= 0 {
		defaults.ResultCount = 2
	}
	if defaults.SpinDuration <= 0 {
		defaults.SpinDuration = 3 * time.Second
	}

	return &Usecase{
		RoomRepository: RoomRepository,
		Gate:           gate,
		defaults:       defaults,
	}
}

// Create books a new room with hostName as its owner and only user.
func (u *Usecase) Create(ctx context.Context, hostName string) (model.Room, model.RoomUser, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return model.Room{}, model.RoomUser{}, ErrEmptyName
	}

	host := model.RoomUser{
		ID:   uuid.New(),
		Name: hostName,
	}

	room, err := u.createRoomLobby(ctx, host)
	if err != nil {
		return model.Room{}, model.RoomUser{}, err
	}
	return room, host, nil
}

// Assuming that codes can conflict.
// Retrying...
func (u *Usecase) createRoomLobby(ctx context.Context, host model.RoomUser) (model.Room, error) {
	var retries = 3
	for retries > 0 {
		room := model.Room{
			ID:        u.buildRoomCode(),
			Name:      "ห้องของ " + host.Name,
			OwnerID:   host.ID,
			Users:     []model.RoomUser{host},
			Settings:  u.defaults,
			Phase:     model.PhaseLobby,
			CreatedAt: time.Now(),
		}
		if err := u.RoomRepository.Create(ctx, room); err != nil {
			if errors.Is(err, ErrCodeConflict) {
				retries--
			} else {
				return model.Room{}, errors.Join(ErrInternal, err)
			}
		} else {
			return room, nil
		}
	}
	return model.Room{}, ErrRoomsUnavailable
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (u *Usecase) buildRoomCode() model.RoomID {
	const codeLen = 6
	var builder strings.Builder
	builder.Grow(codeLen)

	for i := 0; i < codeLen; i++ {
		builder.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}

	return model.RoomID(builder.String())
}

// Join appends a new user to an existing room, keeping join order.
func (u *Usecase) Join(ctx context.Context, code model.RoomID, name string) (model.Room, model.RoomUser, error) {
	name = strings.TrimSpace(name)
	if code == model.EmptyRoomID {
		return model.Room{}, model.RoomUser{}, ErrEmptyRoomID
	}
	if name == "" {
		return model.Room{}, model.RoomUser{}, ErrEmptyName
	}

	user := model.RoomUser{
		ID:   uuid.New(),
		Name: name,
	}
	if err := u.RoomRepository.AddUser(ctx, code, user); err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return model.Room{}, model.RoomUser{}, ErrResourceNotFound
		}
		return model.Room{}, model.RoomUser{}, errors.Join(ErrInternal, err)
	}

	room, err := u.Room(ctx, code)
	if err != nil {
		return model.Room{}, model.RoomUser{}, err
	}
	return room, user, nil
}

func (u *Usecase) Room(ctx context.Context, code model.RoomID) (model.Room, error) {
	room, err := u.RoomRepository.ByID(ctx, code)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return model.Room{}, ErrResourceNotFound
		}
		return model.Room{}, errors.Join(ErrInternal, err)
	}
	return room, nil
}

// UpdateStatus sets a user's ready flag and, when permitted, their
// category picks. Categories of a ready user stay frozen unless the
// same call flips ready back to false. Last write wins otherwise.
func (u *Usecase) UpdateStatus(ctx context.Context, code model.RoomID, userID uuid.UUID, ready bool, categories []string) (model.RoomUser, error) {
	room, err := u.Room(ctx, code)
	if err != nil {
		return model.RoomUser{}, err
	}

	user, ok := room.User(userID)
	if !ok {
		return model.RoomUser{}, ErrResourceNotFound
	}

	frozen := user.Ready && ready
	user.Ready = ready
	if categories != nil && !frozen {
		user.Categories = categories
	}

	if err := u.RoomRepository.UpdateUser(ctx, code, user); err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return model.RoomUser{}, ErrResourceNotFound
		}
		return model.RoomUser{}, errors.Join(ErrInternal, err)
	}
	return user, nil
}

// Leave removes a user. The last user leaving destroys the room; an
// owner leaving earlier hands the room to the earliest-joined user left.
func (u *Usecase) Leave(ctx context.Context, code model.RoomID, userID uuid.UUID) (model.Room, error) {
	room, err := u.Room(ctx, code)
	if err != nil {
		return model.Room{}, err
	}
	if _, ok := room.User(userID); !ok {
		return model.Room{}, ErrResourceNotFound
	}

	if err := u.RoomRepository.RemoveUser(ctx, code, userID); err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return model.Room{}, ErrResourceNotFound
		}
		return model.Room{}, errors.Join(ErrInternal, err)
	}

	room, err = u.Room(ctx, code)
	if err != nil {
		return model.Room{}, err
	}

	if len(room.Users) == 0 {
		if err := u.RoomRepository.Delete(ctx, code); err != nil && !errors.Is(err, ErrResourceNotFound) {
			return model.Room{}, errors.Join(ErrInternal, err)
		}
		return model.Room{}, nil
	}

	if room.OwnerID == userID {
		next := room.Users[0].ID
		if err := u.RoomRepository.SetOwner(ctx, code, next); err != nil {
			return model.Room{}, errors.Join(ErrInternal, err)
		}
		room.OwnerID = next
	}
	return room, nil
}

// AdvancePhase moves the room through lobby -> ready_check -> selection
// on behalf of userID, subject to the readiness gate.
func (u *Usecase) AdvancePhase(ctx context.Context, code model.RoomID, userID uuid.UUID) (model.Phase, error) {
	room, err := u.Room(ctx, code)
	if err != nil {
		return "", err
	}

	next, err := u.Gate.Next(room, userID)
	if err != nil {
		return room.Phase, err
	}

	if err := u.RoomRepository.SetPhase(ctx, code, next); err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return room.Phase, ErrResourceNotFound
		}
		return room.Phase, errors.Join(ErrInternal, err)
	}
	return next, nil
}

// Pool assembles the candidate pool for a room: the union of every
// participant's picks filtered against the catalog, or the whole
// catalog when nobody narrowed anything down.
func (u *Usecase) Pool(ctx context.Context, code model.RoomID) (model.Pool, error) {
	room, err := u.Room(ctx, code)
	if err != nil {
		return nil, err
	}

	picked := make(map[string]bool)
	for _, user := range room.Users {
		for _, id := range user.Categories {
			picked[id] = true
		}
	}

	if len(picked) == 0 {
		return append(model.Pool(nil), model.Catalog...), nil
	}

	pool := make(model.Pool, 0, len(picked))
	for _, c := range model.Catalog {
		if picked[c.ID] {
			pool = append(pool, c)
		}
	}
	return pool, nil
}
