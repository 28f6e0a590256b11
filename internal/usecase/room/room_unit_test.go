package usecase_room

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/suthee/kinarai/core/internal/model"
	usecase_gate "github.com/suthee/kinarai/core/internal/usecase/gate"
	repo_mocks "github.com/suthee/kinarai/core/internal/usecase/room/mocks/room/repository"
)

type UsecaseRoomUnitSuite struct {
	suite.Suite
}

type resources struct {
	usecase  *Usecase
	roomRepo *repo_mocks.RoomRepository
	ctx      context.Context
}

func initResources(t provider.T) *resources {
	roomRepo := repo_mocks.NewRoomRepository(t)
	usecase := New(roomRepo, usecase_gate.New(false), model.Settings{
		ResultCount:  2,
		SpinDuration: 3 * time.Second,
	})

	return &resources{
		roomRepo: roomRepo,
		usecase:  usecase,
		ctx:      context.Background(),
	}
}

func validRoomCode() model.RoomID {
	return model.RoomID("AB12CD")
}

func twoUserRoom(code model.RoomID) (model.Room, model.RoomUser, model.RoomUser) {
	host := model.RoomUser{ID: uuid.New(), Name: "Alice"}
	guest := model.RoomUser{ID: uuid.New(), Name: "Bob"}
	room := model.Room{
		ID:      code,
		Name:    "ห้องของ Alice",
		OwnerID: host.ID,
		Users:   []model.RoomUser{host, guest},
		Phase:   model.PhaseLobby,
	}
	return room, host, guest
}

func (suite *UsecaseRoomUnitSuite) TestCreate(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		hostName      string
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name:     "Should create room successfully",
			hostName: "Alice",
			setupMocks: func(r *resources) {
				r.roomRepo.On("Create", r.ctx, mock.AnythingOfType("model.Room")).
					Return(nil).Once()
			},
			expectError: false,
		},
		{
			name:          "Should reject empty host name",
			hostName:      "   ",
			setupMocks:    func(r *resources) {},
			expectError:   true,
			expectedError: ErrEmptyName,
		},
		{
			name:     "Should give up after three code conflicts",
			hostName: "Alice",
			setupMocks: func(r *resources) {
				r.roomRepo.On("Create", r.ctx, mock.AnythingOfType("model.Room")).
					Return(ErrCodeConflict).Times(3)
			},
			expectError:   true,
			expectedError: ErrRoomsUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			room, host, err := r.usecase.Create(r.ctx, tc.hostName)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Len(t, string(room.ID), 6)
				assert.Equal(t, host.ID, room.OwnerID)
				assert.Len(t, room.Users, 1)
				assert.Equal(t, tc.hostName, room.Users[0].Name)
				assert.Equal(t, model.PhaseLobby, room.Phase)
			}
			r.roomRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseRoomUnitSuite) TestJoin(t provider.T) {
	t.Parallel()

	code := validRoomCode()

	testCases := []struct {
		name          string
		code          model.RoomID
		userName      string
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name:     "Should append user in join order",
			code:     code,
			userName: "Bob",
			setupMocks: func(r *resources) {
				r.roomRepo.On("AddUser", r.ctx, code, mock.AnythingOfType("model.RoomUser")).
					Return(nil).Once()
				room, _, _ := twoUserRoom(code)
				r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()
			},
			expectError: false,
		},
		{
			name:     "Should return not found for unknown code",
			code:     model.RoomID("ZZ99ZZ"),
			userName: "Carl",
			setupMocks: func(r *resources) {
				r.roomRepo.On("AddUser", r.ctx, model.RoomID("ZZ99ZZ"), mock.AnythingOfType("model.RoomUser")).
					Return(ErrResourceNotFound).Once()
			},
			expectError:   true,
			expectedError: ErrResourceNotFound,
		},
		{
			name:          "Should reject empty room code",
			code:          model.EmptyRoomID,
			userName:      "Bob",
			setupMocks:    func(r *resources) {},
			expectError:   true,
			expectedError: ErrEmptyRoomID,
		},
		{
			name:          "Should reject empty name",
			code:          code,
			userName:      "",
			setupMocks:    func(r *resources) {},
			expectError:   true,
			expectedError: ErrEmptyName,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			room, user, err := r.usecase.Join(r.ctx, tc.code, tc.userName)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.code, room.ID)
				assert.Equal(t, tc.userName, user.Name)
				assert.False(t, user.Ready)
			}
			r.roomRepo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseRoomUnitSuite) TestUpdateStatus(t provider.T) {
	t.Parallel()

	t.Run("Should freeze categories of a ready user", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		room, _, guest := twoUserRoom(code)
		room.Users[1].Ready = true
		room.Users[1].Categories = []string{"thai"}

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()
		r.roomRepo.On("UpdateUser", r.ctx, code, mock.MatchedBy(func(u model.RoomUser) bool {
			return u.ID == guest.ID && u.Ready && len(u.Categories) == 1 && u.Categories[0] == "thai"
		})).Return(nil).Once()

		user, err := r.usecase.UpdateStatus(r.ctx, code, guest.ID, true, []string{"japanese", "cafe"})

		assert.NoError(t, err)
		assert.Equal(t, []string{"thai"}, user.Categories)
		r.roomRepo.AssertExpectations(t)
	})

	t.Run("Should unfreeze categories when ready flips to false", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		room, _, guest := twoUserRoom(code)
		room.Users[1].Ready = true
		room.Users[1].Categories = []string{"thai"}

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()
		r.roomRepo.On("UpdateUser", r.ctx, code, mock.MatchedBy(func(u model.RoomUser) bool {
			return u.ID == guest.ID && !u.Ready && len(u.Categories) == 2
		})).Return(nil).Once()

		user, err := r.usecase.UpdateStatus(r.ctx, code, guest.ID, false, []string{"japanese", "cafe"})

		assert.NoError(t, err)
		assert.Equal(t, []string{"japanese", "cafe"}, user.Categories)
		r.roomRepo.AssertExpectations(t)
	})

	t.Run("Should keep old categories when none are sent", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		room, _, guest := twoUserRoom(code)
		room.Users[1].Categories = []string{"dessert"}

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()
		r.roomRepo.On("UpdateUser", r.ctx, code, mock.AnythingOfType("model.RoomUser")).
			Return(nil).Once()

		user, err := r.usecase.UpdateStatus(r.ctx, code, guest.ID, true, nil)

		assert.NoError(t, err)
		assert.True(t, user.Ready)
		assert.Equal(t, []string{"dessert"}, user.Categories)
		r.roomRepo.AssertExpectations(t)
	})

	t.Run("Should return not found for unknown user", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		room, _, _ := twoUserRoom(code)

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()

		_, err := r.usecase.UpdateStatus(r.ctx, code, uuid.New(), true, nil)

		assert.ErrorIs(t, err, ErrResourceNotFound)
		r.roomRepo.AssertExpectations(t)
	})
}

func (suite *UsecaseRoomUnitSuite) TestLeave(t provider.T) {
	t.Parallel()

	t.Run("Should destroy the room when the last user leaves", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		host := model.RoomUser{ID: uuid.New(), Name: "Alice"}
		room := model.Room{ID: code, OwnerID: host.ID, Users: []model.RoomUser{host}}
		empty := model.Room{ID: code, OwnerID: host.ID}

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()
		r.roomRepo.On("RemoveUser", r.ctx, code, host.ID).Return(nil).Once()
		r.roomRepo.On("ByID", r.ctx, code).Return(empty, nil).Once()
		r.roomRepo.On("Delete", r.ctx, code).Return(nil).Once()

		_, err := r.usecase.Leave(r.ctx, code, host.ID)

		assert.NoError(t, err)
		r.roomRepo.AssertExpectations(t)
	})

	t.Run("Should hand ownership to the earliest joined user", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		room, host, guest := twoUserRoom(code)
		remaining := model.Room{ID: code, OwnerID: host.ID, Users: []model.RoomUser{guest}}

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()
		r.roomRepo.On("RemoveUser", r.ctx, code, host.ID).Return(nil).Once()
		r.roomRepo.On("ByID", r.ctx, code).Return(remaining, nil).Once()
		r.roomRepo.On("SetOwner", r.ctx, code, guest.ID).Return(nil).Once()

		updated, err := r.usecase.Leave(r.ctx, code, host.ID)

		assert.NoError(t, err)
		assert.Equal(t, guest.ID, updated.OwnerID)
		r.roomRepo.AssertExpectations(t)
	})

	t.Run("Should return not found for a stranger", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		room, _, _ := twoUserRoom(code)

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()

		_, err := r.usecase.Leave(r.ctx, code, uuid.New())

		assert.ErrorIs(t, err, ErrResourceNotFound)
		r.roomRepo.AssertExpectations(t)
	})
}

func (suite *UsecaseRoomUnitSuite) TestAdvancePhase(t provider.T) {
	t.Parallel()

	t.Run("Should advance lobby to ready check for the host", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		room, host, _ := twoUserRoom(code)

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()
		r.roomRepo.On("SetPhase", r.ctx, code, model.PhaseReadyCheck).Return(nil).Once()

		phase, err := r.usecase.AdvancePhase(r.ctx, code, host.ID)

		assert.NoError(t, err)
		assert.Equal(t, model.PhaseReadyCheck, phase)
		r.roomRepo.AssertExpectations(t)
	})

	t.Run("Should refuse a non-host", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		room, _, guest := twoUserRoom(code)

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()

		_, err := r.usecase.AdvancePhase(r.ctx, code, guest.ID)

		assert.ErrorIs(t, err, usecase_gate.ErrNotHost)
		r.roomRepo.AssertExpectations(t)
	})
}

func (suite *UsecaseRoomUnitSuite) TestPool(t provider.T) {
	t.Parallel()

	t.Run("Should union everyone's picks against the catalog", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		room, _, _ := twoUserRoom(code)
		room.Users[0].Categories = []string{"thai", "cafe"}
		room.Users[1].Categories = []string{"cafe", "korean"}

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()

		pool, err := r.usecase.Pool(r.ctx, code)

		assert.NoError(t, err)
		assert.Len(t, pool, 3)
		r.roomRepo.AssertExpectations(t)
	})

	t.Run("Should fall back to the whole catalog", func(t provider.T) {
		r := initResources(t)
		code := validRoomCode()
		room, _, _ := twoUserRoom(code)

		r.roomRepo.On("ByID", r.ctx, code).Return(room, nil).Once()

		pool, err := r.usecase.Pool(r.ctx, code)

		assert.NoError(t, err)
		assert.Len(t, pool, len(model.Catalog))
		r.roomRepo.AssertExpectations(t)
	})
}

func TestUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecaseRoomUnitSuite))
}
