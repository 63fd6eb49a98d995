package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
)

// --- in-memory repositories ---

type memUsersRepo struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]*models.User
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{byName: make(map[string]*models.User)}
}

func (r *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[u.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.byName[u.Username] = u
	return u, nil
}

func (r *memUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type memTodosRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*models.Todo
}

func newMemTodosRepo() *memTodosRepo {
	return &memTodosRepo{items: make(map[int64]*models.Todo)}
}

func (r *memTodosRepo) List(ctx context.Context, ownerID int64) ([]*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*models.Todo{}
	for _, item := range r.items {
		if item.UserID == ownerID {
			copied := *item
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memTodosRepo) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	todo.ID = r.nextID
	todo.CreatedAt = time.Now()
	todo.UpdatedAt = todo.CreatedAt
	copied := *todo
	r.items[todo.ID] = &copied
	return todo, nil
}

func (r *memTodosRepo) Get(ctx context.Context, ownerID, id int64) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *memTodosRepo) Update(ctx context.Context, ownerID, id int64, patch *models.TodoPatch) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Completed != nil {
		item.Completed = *patch.Completed
	}
	item.UpdatedAt = item.UpdatedAt.Add(time.Millisecond)
	copied := *item
	return &copied, nil
}

func (r *memTodosRepo) Delete(ctx context.Context, ownerID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.UserID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.items, id)
	return nil
}

// --- helpers ---

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		EndpointAddr:       ":0",
		JWTSecret:          testSecret,
		AccessTokenTTL:     time.Hour,
		BcryptCost:         bcrypt.MinCost,
		CORSAllowedOrigins: "http://localhost",
		GinMode:            gin.TestMode,
	}

	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	us := services.NewUserService(newMemUsersRepo(), hasher, cfg)
	ts := services.NewTodoService(newMemTodosRepo())

	return NewServer(cfg, logger, us, ts).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(b)
	} else {
		reader = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	return out
}

func registerAndLogin(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": username, "password": password})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: unexpected status %d body=%s", username, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": username, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: unexpected status %d body=%s", username, rec.Code, rec.Body.String())
	}

	token, _ := decodeBody(t, rec)["access_token"].(string)
	if token == "" {
		t.Fatal("login response must contain access_token")
	}
	return token
}

// --- tests ---

func TestRegister_DuplicateUsername(t *testing.T) {
	router := newTestRouter(t)

	body := map[string]string{"username": "alice", "password": "pw1"}

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register: status %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRegister_MissingFields(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": "alice"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRegister_ResponseHidesPasswordHash(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": "alice", "password": "pw1", "email": "a@example.com"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body=%s", rec.Code, rec.Body.String())
	}

	user, _ := decodeBody(t, rec)["user"].(map[string]any)
	if user == nil {
		t.Fatalf("response must contain user object, body=%s", rec.Body.String())
	}
	for _, key := range []string{"password", "password_hash", "PasswordHash"} {
		if _, ok := user[key]; ok {
			t.Fatalf("user serialization must not include %q", key)
		}
	}
	if user["username"] != "alice" || user["email"] != "a@example.com" {
		t.Fatalf("unexpected user payload: %v", user)
	}
}

func TestLogin_SameErrorForWrongPasswordAndUnknownUser(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": "alice", "password": "pw1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d", rec.Code)
	}

	wrongPassword := doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "alice", "password": "nope"})
	unknownUser := doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "ghost", "password": "nope"})

	if wrongPassword.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPassword.Code, unknownUser.Code)
	}
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Fatalf("failure responses must be identical: %q vs %q",
			wrongPassword.Body.String(), unknownUser.Body.String())
	}
}

func TestTodos_RequireBearerToken(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "not.a.jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodGet, "/api/todos", tc.token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTodos_ExpiredTokenRejected(t *testing.T) {
	router := newTestRouter(t)
	registerAndLogin(t, router, "alice", "pw1")

	expired, err := auth.GenerateToken("1", []byte(testSecret), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/todos", expired, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestCreateTodo_EmptyTitle(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "pw1")

	rec := doJSON(t, router, http.MethodPost, "/api/todos", token,
		map[string]any{"description": "no title"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestOwnershipIsolation(t *testing.T) {
	router := newTestRouter(t)

	tokenA := registerAndLogin(t, router, "alice", "pw1")
	tokenB := registerAndLogin(t, router, "bob", "pw2")

	rec := doJSON(t, router, http.MethodPost, "/api/todos", tokenA,
		map[string]any{"title": "secret task"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body=%s", rec.Code, rec.Body.String())
	}
	todo, _ := decodeBody(t, rec)["todo"].(map[string]any)
	id := int64(todo["id"].(float64))

	// B must not see A's item in any way
	rec = doJSON(t, router, http.MethodGet, "/api/todos/1", tokenB, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get as B: expected 404, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPut, "/api/todos/1", tokenB,
		map[string]any{"title": "hijacked"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("update as B: expected 404, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, "/api/todos/1", tokenB, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete as B: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/todos", tokenB, nil)
	list, _ := decodeBody(t, rec)["todos"].([]any)
	if len(list) != 0 {
		t.Fatalf("B's list must be empty, got %v", list)
	}

	// A still owns the unchanged item
	rec = doJSON(t, router, http.MethodGet, "/api/todos/1", tokenA, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get as A: status %d", rec.Code)
	}
	got, _ := decodeBody(t, rec)["todo"].(map[string]any)
	if got["title"] != "secret task" || int64(got["id"].(float64)) != id {
		t.Fatalf("unexpected item for A: %v", got)
	}
}

func TestUpdateTodo_PartialPatch(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "alice", "pw1")

	rec := doJSON(t, router, http.MethodPost, "/api/todos", token,
		map[string]any{"title": "buy milk", "description": "2 liters"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}
	created, _ := decodeBody(t, rec)["todo"].(map[string]any)

	rec = doJSON(t, router, http.MethodPut, "/api/todos/1", token,
		map[string]any{"completed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body=%s", rec.Code, rec.Body.String())
	}
	updated, _ := decodeBody(t, rec)["todo"].(map[string]any)

	if updated["title"] != "buy milk" || updated["description"] != "2 liters" {
		t.Fatalf("patching completed must not touch other fields: %v", updated)
	}
	if updated["completed"] != true {
		t.Fatalf("completed must be patched: %v", updated)
	}
	if updated["updated_at"] == created["updated_at"] {
		t.Fatalf("updated_at must be refreshed on update: %v", updated["updated_at"])
	}
}

func TestEndToEndScenario(t *testing.T) {
	router := newTestRouter(t)

	// register + login
	token := registerAndLogin(t, router, "alice", "pw1")

	// create
	rec := doJSON(t, router, http.MethodPost, "/api/todos", token,
		map[string]any{"title": "buy milk"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body=%s", rec.Code, rec.Body.String())
	}
	todo, _ := decodeBody(t, rec)["todo"].(map[string]any)
	if int64(todo["id"].(float64)) != 1 {
		t.Fatalf("first item must get id=1, got %v", todo["id"])
	}
	if todo["completed"] != false || todo["description"] != "" {
		t.Fatalf("unexpected defaults: %v", todo)
	}

	// get returns the same item
	rec = doJSON(t, router, http.MethodGet, "/api/todos/1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	got, _ := decodeBody(t, rec)["todo"].(map[string]any)
	if got["title"] != "buy milk" || got["completed"] != false {
		t.Fatalf("round-trip mismatch: %v", got)
	}

	// delete
	rec = doJSON(t, router, http.MethodDelete, "/api/todos/1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}

	// gone
	rec = doJSON(t, router, http.MethodGet, "/api/todos/1", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestHealthAndAPIIndex(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("api index: status %d", rec.Code)
	}
	if _, ok := decodeBody(t, rec)["endpoints"]; !ok {
		t.Fatalf("api index must list endpoints, body=%s", rec.Body.String())
	}
}
