package todos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kbukum/todoapi/database"
	apperrors "github.com/kbukum/todoapi/errors"
)

const resourceName = "todo"

// Repository reads and writes todos on behalf of one user per call.
type Repository struct {
	db *database.DB
}

// NewRepository creates a Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// List returns the user's todos, oldest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]Todo, error) {
	todos := make([]Todo, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&todos).Error
	if err != nil {
		return nil, database.FromDatabase(err, resourceName)
	}
	return todos, nil
}

// Create stores a new, incomplete todo for the user.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, task string) (*Todo, error) {
	todo := &Todo{Task: task, UserID: userID}
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return nil, database.FromDatabase(err, resourceName)
	}
	return todo, nil
}

// SetComplete updates the completion flag of one of the user's todos.
func (r *Repository) SetComplete(ctx context.Context, userID, id uuid.UUID, complete bool) (*Todo, error) {
	var todo Todo
	err := r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := takeOwned(tx, userID, id, &todo); err != nil {
			return err
		}
		if err := tx.Model(&todo).
			Where("user_id = ?", userID).
			Update("complete", complete).Error; err != nil {
			return err
		}
		todo.Complete = complete
		return nil
	})
	if err != nil {
		return nil, database.FromDatabase(err, resourceName)
	}
	return &todo, nil
}

// Delete removes one of the user's todos and returns it.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (*Todo, error) {
	var todo Todo
	err := r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := takeOwned(tx, userID, id, &todo); err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Todo{}).Error
	})
	if err != nil {
		return nil, database.FromDatabase(err, resourceName)
	}
	return &todo, nil
}

func takeOwned(tx *gorm.DB, userID, id uuid.UUID, dst *Todo) error {
	err := tx.Where("id = ? AND user_id = ?", id, userID).Take(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resourceName, id.String())
	}
	return err
}
