package http_room

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	http_common "github.com/suthee/kinarai/core/internal/delivery/http/common"
	"github.com/suthee/kinarai/core/internal/eventbus"
	"github.com/suthee/kinarai/core/internal/model"
	usecase_gate "github.com/suthee/kinarai/core/internal/usecase/gate"
	usecase_room "github.com/suthee/kinarai/core/internal/usecase/room"
)

type Controller struct {
	usecase *usecase_room.Usecase
	channel eventbus.Channel
	logger  *slog.Logger
}

func New(usecase *usecase_room.Usecase, channel eventbus.Channel) *Controller {
	return &Controller{
		usecase: usecase,
		channel: channel,
		logger:  slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	rooms := router.Group("/rooms")
	{
		rooms.POST("", c.create)
		rooms.POST("/join", c.join)
		rooms.GET("/:room_id", c.room)
		rooms.PATCH("/:room_id/users/:user_id/status", c.updateStatus)
		rooms.DELETE("/:room_id/users/:user_id", c.leave)
		rooms.POST("/:room_id/phase", c.advancePhase)
	}
}

type CreateRoomRequestDTO struct {
	Name string `json:"name"`
}

type CreateRoomResponseDTO struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// Create books a new room for the calling host.
// @Summary Create a room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param request body CreateRoomRequestDTO true "Host display name"
// @Success 201 {object} CreateRoomResponseDTO "Room created"
// @Failure 400 {object} http_common.ErrorResponse "Empty name"
// @Failure 503 {object} http_common.ErrorResponse "No free room codes"
// @Router /rooms [post]
func (c *Controller) create(ctx *gin.Context) {
	var req CreateRoomRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	room, host, err := c.usecase.Create(ctx, req.Name)
	if err != nil {
		c.logger.Error("failed to create room", slog.String("error", err.Error()))
		switch {
		case errors.Is(err, usecase_room.ErrEmptyName):
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: "name must not be empty",
			})
		case errors.Is(err, usecase_room.ErrRoomsUnavailable):
			ctx.JSON(http.StatusServiceUnavailable, http_common.ErrorResponse{
				Message: "unavailable",
			})
		default:
			ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
				Message: "internal error",
			})
		}
		return
	}

	ctx.Header("X-user-token", host.ID.String())
	ctx.JSON(http.StatusCreated, CreateRoomResponseDTO{
		RoomID: string(room.ID),
		UserID: host.ID.String(),
	})
}

type JoinRoomRequestDTO struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// Join adds a user to an existing room and notifies its participants.
// @Summary Join a room by code
// @Tags Rooms
// @Accept json
// @Produce json
// @Param request body JoinRoomRequestDTO true "Room code and display name"
// @Success 200 {object} CreateRoomResponseDTO "Joined"
// @Failure 400 {object} http_common.ErrorResponse "Missing field"
// @Failure 404 {object} http_common.ErrorResponse "Unknown room code"
// @Router /rooms/join [post]
func (c *Controller) join(ctx *gin.Context) {
	var req JoinRoomRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	room, user, err := c.usecase.Join(ctx, model.RoomID(req.RoomID), req.Name)
	if err != nil {
		c.logger.Error("failed to join room", slog.String("error", err.Error()))
		switch {
		case errors.Is(err, usecase_room.ErrEmptyName), errors.Is(err, usecase_room.ErrEmptyRoomID):
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: "room code and name are required",
			})
		case errors.Is(err, usecase_room.ErrResourceNotFound):
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
		default:
			ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
				Message: "internal error",
			})
		}
		return
	}

	c.publish(room.ID, eventbus.EventUserJoined, user)

	ctx.Header("X-user-token", user.ID.String())
	ctx.JSON(http.StatusOK, CreateRoomResponseDTO{
		RoomID: string(room.ID),
		UserID: user.ID.String(),
	})
}

type RoomUserDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Ready      bool     `json:"ready"`
	Categories []string `json:"categories,omitempty"`
}

type RoomResponseDTO struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Owner string        `json:"owner"`
	Phase string        `json:"phase"`
	Users []RoomUserDTO `json:"users"`
}

// Room returns the current snapshot.
// @Summary Get a room
// @Tags Rooms
// @Produce json
// @Param room_id path string true "Room code"
// @Success 200 {object} RoomResponseDTO "Room snapshot"
// @Failure 404 {object} http_common.ErrorResponse "Unknown room code"
// @Router /rooms/{room_id} [get]
func (c *Controller) room(ctx *gin.Context) {
	code := model.RoomID(ctx.Param("room_id"))

	room, err := c.usecase.Room(ctx, code)
	if err != nil {
		c.logger.Error("failed to get room", slog.String("error", err.Error()))
		if errors.Is(err, usecase_room.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, toRoomDTO(room))
}

type UpdateStatusRequestDTO struct {
	Ready      bool     `json:"ready"`
	Categories []string `json:"categories"`
}

// UpdateStatus flips a user's ready flag and category picks.
// @Summary Update a participant's status
// @Tags Rooms
// @Accept json
// @Param room_id path string true "Room code"
// @Param user_id path string true "User id"
// @Param request body UpdateStatusRequestDTO true "New status"
// @Success 200 "Status applied"
// @Failure 404 {object} http_common.ErrorResponse "Unknown room or user"
// @Router /rooms/{room_id}/users/{user_id}/status [patch]
func (c *Controller) updateStatus(ctx *gin.Context) {
	code := model.RoomID(ctx.Param("room_id"))
	userID, err := uuid.Parse(ctx.Param("user_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid user id",
		})
		return
	}

	var req UpdateStatusRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	user, err := c.usecase.UpdateStatus(ctx, code, userID, req.Ready, req.Categories)
	if err != nil {
		c.logger.Error("failed to update status", slog.String("error", err.Error()))
		if errors.Is(err, usecase_room.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	c.publish(code, eventbus.EventUserStatusUpdated, eventbus.UserStatusPayload{
		UserID:     user.ID,
		Ready:      user.Ready,
		Categories: user.Categories,
	})

	ctx.Status(http.StatusOK)
}

// Leave removes a user from the room.
// @Summary Leave a room
// @Tags Rooms
// @Param room_id path string true "Room code"
// @Param user_id path string true "User id"
// @Success 204 "Left"
// @Failure 404 {object} http_common.ErrorResponse "Unknown room or user"
// @Router /rooms/{room_id}/users/{user_id} [delete]
func (c *Controller) leave(ctx *gin.Context) {
	code := model.RoomID(ctx.Param("room_id"))
	userID, err := uuid.Parse(ctx.Param("user_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid user id",
		})
		return
	}

	room, err := c.usecase.Leave(ctx, code, userID)
	if err != nil {
		c.logger.Error("failed to leave room", slog.String("error", err.Error()))
		if errors.Is(err, usecase_room.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	c.publish(code, eventbus.EventUserLeft, userID)
	if len(room.Users) > 0 {
		c.publish(code, eventbus.EventRoomUpdated, room)
	}

	ctx.Status(http.StatusNoContent)
}

// AdvancePhase moves the room to its next phase on behalf of the host,
// identified by the X-user-token header.
// @Summary Advance the room phase
// @Tags Rooms
// @Param room_id path string true "Room code"
// @Success 200 "Phase advanced"
// @Failure 401 {object} http_common.ErrorResponse "Missing token"
// @Failure 403 {object} http_common.ErrorResponse "Not the host"
// @Failure 409 {object} http_common.ErrorResponse "Transition unavailable"
// @Security UserToken
// @Router /rooms/{room_id}/phase [post]
func (c *Controller) advancePhase(ctx *gin.Context) {
	code := model.RoomID(ctx.Param("room_id"))

	userToken := ctx.GetHeader("X-user-token")
	if userToken == "" {
		ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
			Message: "X-user-token not found",
		})
		return
	}
	userID, err := uuid.Parse(userToken)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid user token",
		})
		return
	}

	phase, err := c.usecase.AdvancePhase(ctx, code, userID)
	if err != nil {
		c.logger.Error("failed to advance phase", slog.String("error", err.Error()))
		switch {
		case errors.Is(err, usecase_room.ErrResourceNotFound):
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
		case errors.Is(err, usecase_gate.ErrNotHost):
			ctx.JSON(http.StatusForbidden, http_common.ErrorResponse{
				Message: "only the host can do that",
			})
		case errors.Is(err, usecase_gate.ErrNotEnoughUsers),
			errors.Is(err, usecase_gate.ErrNotAllReady),
			errors.Is(err, usecase_gate.ErrPhaseDone):
			ctx.JSON(http.StatusConflict, http_common.ErrorResponse{
				Message: err.Error(),
			})
		default:
			ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
				Message: "internal error",
			})
		}
		return
	}

	c.publish(code, eventbus.EventPhaseChanged, eventbus.PhasePayload{
		Phase:       phase,
		InitiatedBy: userID,
	})

	ctx.JSON(http.StatusOK, gin.H{"phase": string(phase)})
}

func (c *Controller) publish(code model.RoomID, eventType string, payload any) {
	err := c.channel.Publish(code, eventbus.Event{
		Type:    eventType,
		RoomID:  code,
		Payload: payload,
	})
	if err != nil {
		c.logger.Error("event not delivered", slog.String("error", err.Error()), slog.String("type", eventType))
	}
}

func toRoomDTO(room model.Room) RoomResponseDTO {
	dto := RoomResponseDTO{
		ID:    string(room.ID),
		Name:  room.Name,
		Owner: room.OwnerID.String(),
		Phase: string(room.Phase),
		Users: make([]RoomUserDTO, 0, len(room.Users)),
	}
	for _, u := range room.Users {
		dto.Users = append(dto.Users, RoomUserDTO{
			ID:         u.ID.String(),
			Name:       u.Name,
			Ready:      u.Ready,
			Categories: u.Categories,
		})
	}
	return dto
}
