package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo-tracker/backend/internal/handlers"
	"todo-tracker/backend/internal/logging"
	"todo-tracker/backend/internal/models"
	"todo-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockTodoService struct {
	shouldReturnError bool
	todos             []models.Todo
	lastUpdate        models.UpdateTodoInput
	deleteSuccess     bool
}

func (m *MockTodoService) CreateTodo(ctx context.Context, db *gorm.DB, input models.CreateTodoInput) (*models.Todo, error) {
	if m.shouldReturnError {
		return nil, gorm.ErrInvalidDB
	}
	now := time.Now().UTC()
	todo := models.Todo{
		ID:          uint(len(m.todos) + 1),
		Title:       input.Title,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.todos = append(m.todos, todo)
	return &todo, nil
}

func (m *MockTodoService) GetTodos(ctx context.Context, db *gorm.DB) ([]models.Todo, error) {
	if m.shouldReturnError {
		return nil, gorm.ErrInvalidDB
	}
	if m.todos == nil {
		return []models.Todo{}, nil
	}
	return m.todos, nil
}

func (m *MockTodoService) find(id uint) (*models.Todo, error) {
	for i := range m.todos {
		if m.todos[i].ID == id {
			return &m.todos[i], nil
		}
	}
	return nil, &services.NotFoundError{ID: id}
}

func (m *MockTodoService) UpdateTodo(ctx context.Context, db *gorm.DB, input models.UpdateTodoInput) (*models.Todo, error) {
	if m.shouldReturnError {
		return nil, gorm.ErrInvalidDB
	}
	m.lastUpdate = input
	todo, err := m.find(input.ID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		todo.Title = *input.Title
	}
	if input.Description.Set {
		todo.Description = input.Description.Value
	}
	if input.Completed != nil {
		todo.Completed = *input.Completed
	}
	return todo, nil
}

func (m *MockTodoService) ToggleTodo(ctx context.Context, db *gorm.DB, id uint) (*models.Todo, error) {
	if m.shouldReturnError {
		return nil, gorm.ErrInvalidDB
	}
	todo, err := m.find(id)
	if err != nil {
		return nil, err
	}
	todo.Completed = !todo.Completed
	return todo, nil
}

func (m *MockTodoService) DeleteTodo(ctx context.Context, db *gorm.DB, id uint) (models.DeleteTodoResult, error) {
	if m.shouldReturnError {
		return models.DeleteTodoResult{}, gorm.ErrInvalidDB
	}
	return models.DeleteTodoResult{Success: m.deleteSuccess}, nil
}

func setupTodoHandler() (*MockTodoService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTodoService{}
	handler := handlers.NewTodoHandler(nil, mockService, logging.Discard())

	router := gin.New()
	handler.RegisterRoutes(router.Group("/trpc"))
	return mockService, router
}

func call(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type todoEnvelope struct {
	Result struct {
		Data models.Todo `json:"data"`
	} `json:"result"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.RPCError {
	t.Helper()

	var resp handlers.RPCResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error, "expected an error envelope, got %s", w.Body.String())
	assert.Nil(t, resp.Result)
	return *resp.Error
}

func TestGetTodos(t *testing.T) {
	mockService, router := setupTodoHandler()
	mockService.todos = []models.Todo{{ID: 1, Title: "one"}, {ID: 2, Title: "two", Completed: true}}

	w := call(router, http.MethodGet, "/trpc/getTodos", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Result struct {
			Data []models.Todo `json:"data"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Result.Data, 2)
	assert.Equal(t, "two", resp.Result.Data[1].Title)
	assert.True(t, resp.Result.Data[1].Completed)
}

func TestGetTodos_EmptyIsArray(t *testing.T) {
	_, router := setupTodoHandler()

	w := call(router, http.MethodGet, "/trpc/getTodos?input=%7B%7D", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":{"data":[]}}`, w.Body.String())
}

func TestCreateTodo(t *testing.T) {
	_, router := setupTodoHandler()

	w := call(router, http.MethodPost, "/trpc/createTodo", `{"title":"Buy milk","description":"2 litres"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp todoEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(1), resp.Result.Data.ID)
	assert.Equal(t, "Buy milk", resp.Result.Data.Title)
	require.NotNil(t, resp.Result.Data.Description)
	assert.Equal(t, "2 litres", *resp.Result.Data.Description)
	assert.False(t, resp.Result.Data.Completed)
}

func TestCreateTodo_Validation(t *testing.T) {
	_, router := setupTodoHandler()

	cases := map[string]string{
		"missing title": `{"description":"x"}`,
		"empty title":   `{"title":""}`,
		"wrong type":    `{"title":42}`,
		"invalid json":  `invalid json`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := call(router, http.MethodPost, "/trpc/createTodo", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			rpcErr := decodeError(t, w)
			assert.Equal(t, handlers.CodeBadRequest, rpcErr.Data.Code)
			assert.Equal(t, http.StatusBadRequest, rpcErr.Data.HTTPStatus)
			assert.Equal(t, "createTodo", rpcErr.Data.Path)
			assert.Equal(t, -32600, rpcErr.Code)
			assert.NotEmpty(t, rpcErr.Message)
		})
	}
}

func TestCreateTodo_ValidationMessageNamesField(t *testing.T) {
	_, router := setupTodoHandler()

	w := call(router, http.MethodPost, "/trpc/createTodo", `{"title":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "title")
}

func TestUpdateTodo_DescriptionTriState(t *testing.T) {
	mockService, router := setupTodoHandler()
	description := "old"
	mockService.todos = []models.Todo{{ID: 1, Title: "title", Description: &description}}

	w := call(router, http.MethodPost, "/trpc/updateTodo", `{"id":1,"completed":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mockService.lastUpdate.Description.Set)
	require.NotNil(t, mockService.lastUpdate.Completed)
	assert.True(t, *mockService.lastUpdate.Completed)

	w = call(router, http.MethodPost, "/trpc/updateTodo", `{"id":1,"description":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockService.lastUpdate.Description.Set)
	assert.Nil(t, mockService.lastUpdate.Description.Value)
	assert.Nil(t, mockService.lastUpdate.Title)

	var resp todoEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Result.Data.Description)
	assert.Equal(t, "title", resp.Result.Data.Title)
	assert.True(t, resp.Result.Data.Completed)
}

func TestUpdateTodo_NotFound(t *testing.T) {
	_, router := setupTodoHandler()

	w := call(router, http.MethodPost, "/trpc/updateTodo", `{"id":999,"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	rpcErr := decodeError(t, w)
	assert.Equal(t, handlers.CodeNotFound, rpcErr.Data.Code)
	assert.Contains(t, rpcErr.Message, "not found")
	assert.Equal(t, "updateTodo", rpcErr.Data.Path)
}

func TestUpdateTodo_EmptyTitleRejected(t *testing.T) {
	_, router := setupTodoHandler()

	w := call(router, http.MethodPost, "/trpc/updateTodo", `{"id":1,"title":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleTodo(t *testing.T) {
	mockService, router := setupTodoHandler()
	mockService.todos = []models.Todo{{ID: 1, Title: "toggle"}}

	w := call(router, http.MethodPost, "/trpc/toggleTodo", `{"id":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp todoEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Result.Data.Completed)
}

func TestToggleTodo_NotFound(t *testing.T) {
	_, router := setupTodoHandler()

	w := call(router, http.MethodPost, "/trpc/toggleTodo", `{"id":999}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, handlers.CodeNotFound, decodeError(t, w).Data.Code)
}

func TestToggleTodo_MissingID(t *testing.T) {
	_, router := setupTodoHandler()

	w := call(router, http.MethodPost, "/trpc/toggleTodo", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTodo(t *testing.T) {
	mockService, router := setupTodoHandler()

	mockService.deleteSuccess = true
	w := call(router, http.MethodPost, "/trpc/deleteTodo", `{"id":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":{"data":{"success":true}}}`, w.Body.String())

	mockService.deleteSuccess = false
	w = call(router, http.MethodPost, "/trpc/deleteTodo", `{"id":999}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":{"data":{"success":false}}}`, w.Body.String())
}

func TestInternalErrorHidesDetails(t *testing.T) {
	mockService, router := setupTodoHandler()
	mockService.shouldReturnError = true

	w := call(router, http.MethodGet, "/trpc/getTodos", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	rpcErr := decodeError(t, w)
	assert.Equal(t, handlers.CodeInternalError, rpcErr.Data.Code)
	assert.NotContains(t, rpcErr.Message, gorm.ErrInvalidDB.Error())
}

func TestUnknownProcedure(t *testing.T) {
	_, router := setupTodoHandler()

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := call(router, method, "/trpc/listEverything", `{}`)
		assert.Equal(t, http.StatusNotFound, w.Code)

		rpcErr := decodeError(t, w)
		assert.Equal(t, handlers.CodeNotFound, rpcErr.Data.Code)
		assert.Equal(t, "listEverything", rpcErr.Data.Path)
	}
}

func TestWrongMethod(t *testing.T) {
	_, router := setupTodoHandler()

	w := call(router, http.MethodGet, "/trpc/createTodo", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, handlers.CodeMethodNotSupported, decodeError(t, w).Data.Code)

	w = call(router, http.MethodPost, "/trpc/getTodos", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestProcedures(t *testing.T) {
	handler := handlers.NewTodoHandler(nil, &MockTodoService{}, logging.Discard())

	assert.Equal(t,
		[]string{"createTodo", "deleteTodo", "getTodos", "toggleTodo", "updateTodo"},
		handler.Procedures())
}

func TestNotFoundErrorMatchesSentinel(t *testing.T) {
	err := error(&services.NotFoundError{ID: 7})
	assert.True(t, errors.Is(err, services.ErrTodoNotFound))
	assert.Equal(t, "todo with id 7 not found", err.Error())
}
