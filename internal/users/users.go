// Package users stores accounts in the users table. Repository is the
// GORM-backed account.UserDirectory.
package users

import (
	"context"
	"fmt"

	"github.com/kbukum/todoapi/database"
	"github.com/kbukum/todoapi/internal/account"
)

// User is a row of the users table.
type User struct {
	database.BaseModel
	Email string `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email" json:"email"`
	Hash  string `gorm:"not null" json:"-"`
}

// TableName implements gorm's tabler.
func (User) TableName() string { return "users" }

func (u *User) toAccount() *account.User {
	return &account.User{ID: u.ID.String(), Email: u.Email, Hash: u.Hash}
}

var _ account.UserDirectory = (*Repository)(nil)

// Repository reads and writes users.
type Repository struct {
	db *database.DB
}

// NewRepository creates a Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// SelectByEmail returns the user with exactly this email, or
// account.ErrUserNotFound.
func (r *Repository) SelectByEmail(ctx context.Context, email string) (*account.User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error
	if database.IsNotFoundError(err) {
		return nil, account.ErrUserNotFound
	}
	if err != nil {
		return nil, database.FromDatabase(err, "user")
	}
	return u.toAccount(), nil
}

// Insert creates a user. The unique index on email is the only duplicate
// check; a violation returns account.ErrUniquenessViolation.
func (r *Repository) Insert(ctx context.Context, email, hash string) (*account.User, error) {
	u := User{Email: email, Hash: hash}
	err := r.db.WithContext(ctx).Create(&u).Error
	if database.IsDuplicateError(err) {
		return nil, fmt.Errorf("insert user: %w", account.ErrUniquenessViolation)
	}
	if err != nil {
		return nil, database.FromDatabase(err, "user")
	}
	return u.toAccount(), nil
}
