package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// updateTodoRequest carries a partial update; absent fields stay nil and the
// matching columns are left untouched.
type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// todoID parses the :id path parameter. A non-numeric id behaves like a
// missing item.
func todoID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (s *Server) handleListTodos(c *gin.Context) {
	ownerID := c.GetInt64(contextUserIDKey)

	items, err := s.todos.List(c.Request.Context(), ownerID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]todoJSON, 0, len(items))
	for _, item := range items {
		out = append(out, toTodoJSON(item))
	}

	c.JSON(http.StatusOK, gin.H{"todos": out})
}

func (s *Server) handleCreateTodo(c *gin.Context) {
	ownerID := c.GetInt64(contextUserIDKey)

	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	todo, err := s.todos.Create(c.Request.Context(), ownerID, req.Title, req.Description, req.Completed)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Todo created successfully",
		"todo":    toTodoJSON(todo),
	})
}

func (s *Server) handleGetTodo(c *gin.Context) {
	ownerID := c.GetInt64(contextUserIDKey)

	id, err := todoID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	todo, err := s.todos.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"todo": toTodoJSON(todo)})
}

func (s *Server) handleUpdateTodo(c *gin.Context) {
	ownerID := c.GetInt64(contextUserIDKey)

	id, err := todoID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := &models.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}

	todo, err := s.todos.Update(c.Request.Context(), ownerID, id, patch)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Todo updated successfully",
		"todo":    toTodoJSON(todo),
	})
}

func (s *Server) handleDeleteTodo(c *gin.Context) {
	ownerID := c.GetInt64(contextUserIDKey)

	id, err := todoID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.todos.Delete(c.Request.Context(), ownerID, id); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted successfully"})
}
