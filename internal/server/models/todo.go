package models

import "time"

// Todo is a single task owned by exactly one user. UserID never changes after
// creation and every repository operation is keyed by (ID, UserID).
type Todo struct {
	ID          int64
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      int64
}

// TodoPatch is a partial update; nil fields are left untouched.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}
