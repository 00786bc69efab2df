package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadplan/timetable-api/internal/models"
)

const roomColumns = "id, name, capacity, room_type, available, created_at, updated_at"

// RoomRepository provides persistence for rooms and their department links.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// ListAll returns every room with its department affiliations attached.
func (r *RoomRepository) ListAll(ctx context.Context) ([]models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms ORDER BY name ASC", roomColumns)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	if err := r.attachDepartments(ctx, rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// FindByID loads a room and its department links.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE id = $1", roomColumns)
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	rooms := []models.Room{room}
	if err := r.attachDepartments(ctx, rooms); err != nil {
		return nil, err
	}
	return &rooms[0], nil
}

// Create stores a room and its department links in one transaction.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create room: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO rooms (id, name, capacity, room_type, available, created_at, updated_at)
		VALUES (:id, :name, :capacity, :room_type, :available, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	if err = r.replaceDepartments(ctx, tx, room.ID, room.DepartmentIDs); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create room: %w", err)
	}
	return nil
}

// Update modifies a room and rewrites its department links.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update room: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE rooms SET name = :name, capacity = :capacity, room_type = :room_type, available = :available, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if err = r.replaceDepartments(ctx, tx, room.ID, room.DepartmentIDs); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update room: %w", err)
	}
	return nil
}

// Delete removes a room; link rows cascade at the schema level.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

func (r *RoomRepository) replaceDepartments(ctx context.Context, tx *sqlx.Tx, roomID string, deptIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_departments WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("clear room departments: %w", err)
	}
	for _, deptID := range deptIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO room_departments (room_id, department_id) VALUES ($1, $2)`, roomID, deptID); err != nil {
			return fmt.Errorf("link room department: %w", err)
		}
	}
	return nil
}

type roomDepartmentLink struct {
	RoomID       string `db:"room_id"`
	DepartmentID string `db:"department_id"`
}

func (r *RoomRepository) attachDepartments(ctx context.Context, rooms []models.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	ids := make([]string, len(rooms))
	for i, room := range rooms {
		ids[i] = room.ID
	}
	query, args, err := sqlx.In(`SELECT room_id, department_id FROM room_departments WHERE room_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build room departments query: %w", err)
	}
	var links []roomDepartmentLink
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("load room departments: %w", err)
	}
	byRoom := make(map[string][]string, len(rooms))
	for _, link := range links {
		byRoom[link.RoomID] = append(byRoom[link.RoomID], link.DepartmentID)
	}
	for i := range rooms {
		rooms[i].DepartmentIDs = byRoom[rooms[i].ID]
	}
	return nil
}
