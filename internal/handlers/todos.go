package handlers

import (
	"fmt"
	"sort"

	"todo-tracker/backend/internal/models"
	"todo-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"
)

type procedureKind int

const (
	query procedureKind = iota
	mutation
)

type procedure struct {
	kind    procedureKind
	schema  *jsonschema.Schema
	handler func(c *gin.Context, path string)
}

type TodoHandler struct {
	db          *gorm.DB
	todoService services.TodoService
	logger      zerolog.Logger
	procedures  map[string]procedure
}

func NewTodoHandler(db *gorm.DB, todoService services.TodoService, logger zerolog.Logger) *TodoHandler {
	h := &TodoHandler{
		db:          db,
		todoService: todoService,
		logger:      logger.With().Str("component", "rpc").Logger(),
	}

	h.procedures = map[string]procedure{
		"getTodos":   {kind: query, handler: h.GetTodos},
		"createTodo": {kind: mutation, schema: compileSchema("createTodo", createTodoSchema), handler: h.CreateTodo},
		"updateTodo": {kind: mutation, schema: compileSchema("updateTodo", updateTodoSchema), handler: h.UpdateTodo},
		"toggleTodo": {kind: mutation, schema: compileSchema("toggleTodo", idOnlySchema), handler: h.ToggleTodo},
		"deleteTodo": {kind: mutation, schema: compileSchema("deleteTodo", idOnlySchema), handler: h.DeleteTodo},
	}
	return h
}

// RegisterRoutes mounts the procedures as GET (queries) and POST (mutations)
// on /:procedure below group.
func (h *TodoHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/:procedure", h.dispatch(query))
	group.POST("/:procedure", h.dispatch(mutation))
}

func (h *TodoHandler) Procedures() []string {
	names := make([]string, 0, len(h.procedures))
	for name := range h.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *TodoHandler) dispatch(kind procedureKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Param("procedure")

		proc, ok := h.procedures[path]
		if !ok {
			respondError(c, path, CodeNotFound, fmt.Sprintf("no procedure found on path %q", path))
			return
		}

		if proc.kind != kind {
			respondError(c, path, CodeMethodNotSupported,
				fmt.Sprintf("unsupported %s request to %s procedure", c.Request.Method, kindName(proc.kind)))
			return
		}

		proc.handler(c, path)
	}
}

func kindName(kind procedureKind) string {
	if kind == query {
		return "query"
	}
	return "mutation"
}

func (h *TodoHandler) GetTodos(c *gin.Context, path string) {
	todos, err := h.todoService.GetTodos(c.Request.Context(), h.db)
	if err != nil {
		h.handleTodoError(c, path, err)
		return
	}
	respondData(c, todos)
}

func (h *TodoHandler) CreateTodo(c *gin.Context, path string) {
	var input models.CreateTodoInput
	if !h.bind(c, path, &input) {
		return
	}

	todo, err := h.todoService.CreateTodo(c.Request.Context(), h.db, input)
	if err != nil {
		h.handleTodoError(c, path, err)
		return
	}
	respondData(c, todo)
}

func (h *TodoHandler) UpdateTodo(c *gin.Context, path string) {
	var input models.UpdateTodoInput
	if !h.bind(c, path, &input) {
		return
	}

	todo, err := h.todoService.UpdateTodo(c.Request.Context(), h.db, input)
	if err != nil {
		h.handleTodoError(c, path, err)
		return
	}
	respondData(c, todo)
}

func (h *TodoHandler) ToggleTodo(c *gin.Context, path string) {
	var input models.ToggleTodoInput
	if !h.bind(c, path, &input) {
		return
	}

	todo, err := h.todoService.ToggleTodo(c.Request.Context(), h.db, input.ID)
	if err != nil {
		h.handleTodoError(c, path, err)
		return
	}
	respondData(c, todo)
}

func (h *TodoHandler) DeleteTodo(c *gin.Context, path string) {
	var input models.DeleteTodoInput
	if !h.bind(c, path, &input) {
		return
	}

	result, err := h.todoService.DeleteTodo(c.Request.Context(), h.db, input.ID)
	if err != nil {
		h.handleTodoError(c, path, err)
		return
	}
	respondData(c, result)
}

// bind validates the request body against the procedure's schema, then
// decodes it into input and runs the binding tags.
func (h *TodoHandler) bind(c *gin.Context, path string, input interface{}) bool {
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, path, CodeBadRequest, "failed to read input")
		return false
	}

	if schema := h.procedures[path].schema; schema != nil {
		if err := validateInput(schema, raw); err != nil {
			respondError(c, path, CodeBadRequest, err.Error())
			return false
		}
	}

	if err := binding.JSON.BindBody(raw, input); err != nil {
		respondError(c, path, CodeBadRequest, err.Error())
		return false
	}
	return true
}
