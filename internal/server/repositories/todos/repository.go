// Package todos provides ownership-scoped persistence for todo items. Every
// operation takes the owner's user id; an item belonging to someone else is
// indistinguishable from a missing one.
package todos

import (
	"context"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

type Repository interface {
	// List returns all items of owner in creation order.
	List(ctx context.Context, ownerID int64) ([]*models.Todo, error)

	// Create inserts a new item and returns it with ID and timestamps set.
	Create(ctx context.Context, todo *models.Todo) (*models.Todo, error)

	// Get returns the item (id, ownerID), or common.ErrorNotFound when it does
	// not exist or belongs to another owner.
	Get(ctx context.Context, ownerID, id int64) (*models.Todo, error)

	// Update applies the non-nil fields of patch and refreshes UpdatedAt, even
	// for a no-op patch. Missing/foreign items yield common.ErrorNotFound.
	Update(ctx context.Context, ownerID, id int64, patch *models.TodoPatch) (*models.Todo, error)

	// Delete permanently removes the item. Missing/foreign items yield
	// common.ErrorNotFound.
	Delete(ctx context.Context, ownerID, id int64) error
}
