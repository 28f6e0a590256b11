package http_selection

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	http_common "github.com/suthee/kinarai/core/internal/delivery/http/common"
	"github.com/suthee/kinarai/core/internal/model"
	usecase_room "github.com/suthee/kinarai/core/internal/usecase/room"
	usecase_selection "github.com/suthee/kinarai/core/internal/usecase/selection"
)

type Controller struct {
	rooms  *usecase_room.Usecase
	engine *usecase_selection.Engine
	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(rooms *usecase_room.Usecase,
	engine *usecase_selection.Engine,
	opts ...ControllerOption) *Controller {
	c := &Controller{
		rooms:  rooms,
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	selection := router.Group("/rooms/:room_id/spin")
	selection.POST("", c.spin)
}

type SpinRequestDTO struct {
	ResultCount int   `json:"result_count"`
	DurationMS  int64 `json:"duration_ms"`
}

type CandidateDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type SpinResponseDTO struct {
	RoomID  string         `json:"room_id"`
	Items   []CandidateDTO `json:"items"`
	DrawnAt time.Time      `json:"drawn_at"`
}

// Spin commits one draw for the room and starts the shared reveal.
// @Summary Trigger a selection spin
// @Tags Selection
// @Accept json
// @Produce json
// @Param room_id path string true "Room code"
// @Param request body SpinRequestDTO false "Overrides for count and duration"
// @Success 200 {object} SpinResponseDTO "Committed result"
// @Failure 404 {object} http_common.ErrorResponse "Unknown room"
// @Failure 409 {object} http_common.ErrorResponse "Spin already running or wrong phase"
// @Failure 422 {object} http_common.ErrorResponse "Nothing to select"
// @Router /rooms/{room_id}/spin [post]
func (c *Controller) spin(ctx *gin.Context) {
	code := model.RoomID(ctx.Param("room_id"))

	// Body is optional; defaults come from room settings.
	var req SpinRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		req = SpinRequestDTO{}
	}

	room, err := c.rooms.Room(ctx, code)
	if err != nil {
		if errors.Is(err, usecase_room.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
			return
		}
		c.logger.Error("failed to load room for spin", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	if room.Phase != model.PhaseSelection {
		ctx.JSON(http.StatusConflict, http_common.ErrorResponse{
			Message: "room is not in selection phase",
		})
		return
	}

	pool, err := c.rooms.Pool(ctx, code)
	if err != nil {
		c.logger.Error("failed to build pool", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	resultCount := req.ResultCount
	if resultCount == 0 {
		resultCount = room.Settings.ResultCount
	}
	duration := time.Duration(req.DurationMS) * time.Millisecond
	if duration == 0 {
		duration = room.Settings.SpinDuration
	}

	result, err := c.engine.Start(ctx, code, pool, resultCount, duration)
	if err != nil {
		c.logger.Error("failed to start spin", slog.String("error", err.Error()))
		switch {
		case errors.Is(err, usecase_selection.ErrEmptyPool):
			ctx.JSON(http.StatusUnprocessableEntity, http_common.ErrorResponse{
				Message: "nothing to select",
			})
		case errors.Is(err, usecase_selection.ErrBadResultCount):
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: "result count must be at least 1",
			})
		case errors.Is(err, usecase_selection.ErrSpinActive):
			ctx.JSON(http.StatusConflict, http_common.ErrorResponse{
				Message: "selection already in progress",
			})
		default:
			ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
				Message: "internal error",
			})
		}
		return
	}

	ctx.JSON(http.StatusOK, toSpinDTO(result))
}

func toSpinDTO(result model.SelectionResult) SpinResponseDTO {
	dto := SpinResponseDTO{
		RoomID:  string(result.RoomID),
		Items:   make([]CandidateDTO, 0, len(result.Items)),
		DrawnAt: result.DrawnAt,
	}
	for _, item := range result.Items {
		dto.Items = append(dto.Items, CandidateDTO{
			ID:    item.ID,
			Name:  item.Name,
			Color: item.Color,
		})
	}
	return dto
}
