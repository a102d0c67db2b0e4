// Package todos implements the per-user todo resource behind the auth
// gate. Every query is bound to the authenticated user's id, so a todo
// owned by someone else behaves exactly like one that does not exist.
package todos

import (
	"github.com/google/uuid"

	"github.com/kbukum/todoapi/database"
)

// Todo is a row of the todos table.
type Todo struct {
	database.BaseModel
	Task     string    `gorm:"type:text;not null" json:"task"`
	Complete bool      `gorm:"not null;default:false" json:"complete"`
	UserID   uuid.UUID `gorm:"type:varchar(36);not null;index:idx_todos_user_id" json:"user_id"`
}

// TableName implements gorm's tabler.
func (Todo) TableName() string { return "todos" }
