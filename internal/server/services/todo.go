package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/todos"
)

type TodoService struct {
	repo todos.Repository
}

func NewTodoService(repo todos.Repository) *TodoService {
	return &TodoService{repo: repo}
}

func (s *TodoService) List(ctx context.Context, ownerID int64) ([]*models.Todo, error) {
	result, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing todos: %w", err)
	}
	return result, nil
}

// Create inserts a new item owned by ownerID. The owner always comes from the
// verified identity, never from client input.
func (s *TodoService) Create(ctx context.Context, ownerID int64, title, description string, completed bool) (*models.Todo, error) {

	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}

	todo := &models.Todo{
		Title:       title,
		Description: description,
		Completed:   completed,
		UserID:      ownerID,
	}

	todo, err := s.repo.Create(ctx, todo)
	if err != nil {
		return nil, fmt.Errorf("error creating todo: %w", err)
	}

	return todo, nil
}

func (s *TodoService) Get(ctx context.Context, ownerID, id int64) (*models.Todo, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *TodoService) Update(ctx context.Context, ownerID, id int64, patch *models.TodoPatch) (*models.Todo, error) {

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", common.ErrorValidation)
	}

	return s.repo.Update(ctx, ownerID, id, patch)
}

func (s *TodoService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}
