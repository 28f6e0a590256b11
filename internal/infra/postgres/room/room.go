package infra_postgres_room

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/suthee/kinarai/core/internal/model"
	usecase_room "github.com/suthee/kinarai/core/internal/usecase/room"
)

type Driver struct {
	db *sqlx.DB
}

func New(
	db *sqlx.DB,
) *Driver {
	return &Driver{db: db}
}

type roomDTO struct {
	Code       string         `db:"code"`
	Name       string         `db:"name"`
	IDOwner    uuid.UUID      `db:"id_owner"`
	Phase      string         `db:"phase"`
	Categories pq.StringArray `db:"categories"`
	PriceRange string         `db:"price_range"`
	Dietary    pq.StringArray `db:"dietary"`
	CreatedAt  time.Time      `db:"created_at"`
}

type userDTO struct {
	ID         uuid.UUID      `db:"id"`
	RoomCode   string         `db:"room_code"`
	Name       string         `db:"name"`
	Ready      bool           `db:"ready"`
	Categories pq.StringArray `db:"categories"`
	Position   int            `db:"position"`
}

func (d *Driver) Create(ctx context.Context, room model.Room) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO rooms (code, name, id_owner, phase, categories, price_range, dietary, created_at)
		VALUES (:code, :name, :id_owner, :phase, :categories, :price_range, :dietary, :created_at)
	`

	_, err = tx.NamedExecContext(ctx, query, roomDTO{
		Code:       string(room.ID),
		Name:       room.Name,
		IDOwner:    room.OwnerID,
		Phase:      string(room.Phase),
		Categories: room.Settings.Categories,
		PriceRange: room.Settings.PriceRange,
		Dietary:    room.Settings.Dietary,
		CreatedAt:  room.CreatedAt,
	})
	if err != nil {
		if strings.Contains(err.Error(), "unique constraint") ||
			strings.Contains(err.Error(), "duplicate key") {
			return usecase_room.ErrCodeConflict
		}
		return err
	}

	for i, user := range room.Users {
		if err := insertUser(ctx, tx, string(room.ID), user, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertUser(ctx context.Context, tx *sqlx.Tx, code string, user model.RoomUser, position int) error {
	query := `
		INSERT INTO room_users (id, room_code, name, ready, categories, position)
		VALUES (:id, :room_code, :name, :ready, :categories, :position)
	`
	_, err := tx.NamedExecContext(ctx, query, userDTO{
		ID:         user.ID,
		RoomCode:   code,
		Name:       user.Name,
		Ready:      user.Ready,
		Categories: user.Categories,
		Position:   position,
	})
	return err
}

func (d *Driver) ByID(ctx context.Context, id model.RoomID) (model.Room, error) {
	var room roomDTO

	query := `
        SELECT code, name, id_owner, phase, categories, price_range, dietary, created_at
        FROM rooms
        WHERE code = $1
    `

	err := d.db.GetContext(ctx, &room, query, string(id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Room{}, usecase_room.ErrResourceNotFound
		}
		return model.Room{}, err
	}

	var users []userDTO
	queryUsers := `
        SELECT id, room_code, name, ready, categories, position
        FROM room_users
        WHERE room_code = $1
        ORDER BY position
    `
	if err := d.db.SelectContext(ctx, &users, queryUsers, string(id)); err != nil {
		return model.Room{}, err
	}

	result := model.Room{
		ID:      model.RoomID(room.Code),
		Name:    room.Name,
		OwnerID: room.IDOwner,
		Phase:   model.Phase(room.Phase),
		Settings: model.Settings{
			Categories: room.Categories,
			PriceRange: room.PriceRange,
			Dietary:    room.Dietary,
		},
		CreatedAt: room.CreatedAt,
	}
	for _, u := range users {
		result.Users = append(result.Users, model.RoomUser{
			ID:         u.ID,
			Name:       u.Name,
			Ready:      u.Ready,
			Categories: u.Categories,
		})
	}
	return result, nil
}

func (d *Driver) AddUser(ctx context.Context, id model.RoomID, user model.RoomUser) error {
	var position int
	queryPos := `
        SELECT COALESCE(MAX(position)+1, 0)
        FROM room_users
        WHERE room_code = $1
    `
	if err := d.db.GetContext(ctx, &position, queryPos, string(id)); err != nil {
		return err
	}

	var exists bool
	queryRoom := `SELECT EXISTS(SELECT 1 FROM rooms WHERE code = $1)`
	if err := d.db.GetContext(ctx, &exists, queryRoom, string(id)); err != nil {
		return err
	}
	if !exists {
		return usecase_room.ErrResourceNotFound
	}

	query := `
		INSERT INTO room_users (id, room_code, name, ready, categories, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := d.db.ExecContext(ctx, query,
		user.ID, string(id), user.Name, user.Ready, pq.StringArray(user.Categories), position)
	return err
}

func (d *Driver) UpdateUser(ctx context.Context, id model.RoomID, user model.RoomUser) error {
	query := `
        UPDATE room_users
        SET ready = $1, categories = $2
        WHERE room_code = $3 AND id = $4
    `

	result, err := d.db.ExecContext(ctx, query,
		user.Ready, pq.StringArray(user.Categories), string(id), user.ID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return usecase_room.ErrResourceNotFound
	}
	return nil
}

func (d *Driver) RemoveUser(ctx context.Context, id model.RoomID, userID uuid.UUID) error {
	query := `
        DELETE FROM room_users
        WHERE room_code = $1 AND id = $2
    `

	result, err := d.db.ExecContext(ctx, query, string(id), userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return usecase_room.ErrResourceNotFound
	}
	return nil
}

func (d *Driver) SetOwner(ctx context.Context, id model.RoomID, ownerID uuid.UUID) error {
	return d.setColumn(ctx, id, `UPDATE rooms SET id_owner = $1 WHERE code = $2`, ownerID)
}

func (d *Driver) SetPhase(ctx context.Context, id model.RoomID, phase model.Phase) error {
	return d.setColumn(ctx, id, `UPDATE rooms SET phase = $1 WHERE code = $2`, string(phase))
}

func (d *Driver) setColumn(ctx context.Context, id model.RoomID, query string, value any) error {
	result, err := d.db.ExecContext(ctx, query, value, string(id))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return usecase_room.ErrResourceNotFound
	}
	return nil
}

func (d *Driver) Delete(ctx context.Context, id model.RoomID) error {
	query := `
        DELETE FROM rooms
        WHERE code = $1
    `

	result, err := d.db.ExecContext(ctx, query, string(id))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return usecase_room.ErrResourceNotFound
	}
	return nil
}
