package models

import "time"

// Room is a bookable teaching space. DepartmentIDs lists the departments the
// room serves; occupancy during a generation run is tracked by the engine,
// never persisted on the room itself.
type Room struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Capacity      int       `db:"capacity" json:"capacity"`
	RoomType      string    `db:"room_type" json:"room_type"`
	Available     bool      `db:"available" json:"available"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
	DepartmentIDs []string  `db:"-" json:"department_ids"`
}

// ServesDepartment reports whether the room is affiliated with a department.
func (r Room) ServesDepartment(deptID string) bool {
	for _, id := range r.DepartmentIDs {
		if id == deptID {
			return true
		}
	}
	return false
}
