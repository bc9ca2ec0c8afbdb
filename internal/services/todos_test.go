package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"todo-tracker/backend/internal/database"
	"todo-tracker/backend/internal/logging"
	"todo-tracker/backend/internal/models"
	"todo-tracker/backend/internal/repositories"
	"todo-tracker/backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type TodoServiceTestSuite struct {
	suite.Suite
	pool    *database.DatabasePool
	db      *gorm.DB
	service *services.TodoServiceImpl
	ctx     context.Context
}

func (suite *TodoServiceTestSuite) SetupTest() {
	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver: database.DriverSQLite,
		DSN:    ":memory:",
	}, nil)
	suite.Require().NoError(err)
	suite.Require().NoError(database.Migrate(pool.DB))

	suite.pool = pool
	suite.db = pool.DB
	suite.service = services.NewTodoService(repositories.NewTodoRepository(), logging.Discard())
	suite.ctx = context.Background()
}

func (suite *TodoServiceTestSuite) TearDownTest() {
	suite.pool.Close()
}

func (suite *TodoServiceTestSuite) create(title string, description *string) *models.Todo {
	todo, err := suite.service.CreateTodo(suite.ctx, suite.db, models.CreateTodoInput{
		Title:       title,
		Description: description,
	})
	suite.Require().NoError(err)
	return todo
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func (suite *TodoServiceTestSuite) TestCreateTodo() {
	todo := suite.create("Buy milk", strPtr("2 litres"))

	suite.NotZero(todo.ID)
	suite.Equal("Buy milk", todo.Title)
	suite.Require().NotNil(todo.Description)
	suite.Equal("2 litres", *todo.Description)
	suite.False(todo.Completed)
	suite.True(todo.CreatedAt.Equal(todo.UpdatedAt))
}

func (suite *TodoServiceTestSuite) TestCreateTodo_WithoutDescription() {
	todo := suite.create("Walk the dog", nil)

	suite.Nil(todo.Description)
	suite.False(todo.Completed)
	suite.True(todo.CreatedAt.Equal(todo.UpdatedAt))
}

func (suite *TodoServiceTestSuite) TestCreateTodo_EmptyTitle() {
	_, err := suite.service.CreateTodo(suite.ctx, suite.db, models.CreateTodoInput{Title: ""})

	suite.ErrorIs(err, services.ErrInvalidInput)

	todos, err := suite.service.GetTodos(suite.ctx, suite.db)
	suite.Require().NoError(err)
	suite.Empty(todos)
}

func (suite *TodoServiceTestSuite) TestGetTodos_OrderedByID() {
	first := suite.create("first", nil)
	second := suite.create("second", nil)
	third := suite.create("third", nil)

	todos, err := suite.service.GetTodos(suite.ctx, suite.db)
	suite.Require().NoError(err)
	suite.Require().Len(todos, 3)
	suite.Equal([]uint{first.ID, second.ID, third.ID}, []uint{todos[0].ID, todos[1].ID, todos[2].ID})
}

func (suite *TodoServiceTestSuite) TestGetTodos_Empty() {
	todos, err := suite.service.GetTodos(suite.ctx, suite.db)

	suite.Require().NoError(err)
	suite.NotNil(todos)
	suite.Empty(todos)
}

func (suite *TodoServiceTestSuite) TestDeleteTodo_RemovesOnlyTarget() {
	first := suite.create("first", nil)
	middle := suite.create("middle", nil)
	last := suite.create("last", nil)

	result, err := suite.service.DeleteTodo(suite.ctx, suite.db, middle.ID)
	suite.Require().NoError(err)
	suite.True(result.Success)

	todos, err := suite.service.GetTodos(suite.ctx, suite.db)
	suite.Require().NoError(err)
	suite.Require().Len(todos, 2)
	suite.Equal(first.ID, todos[0].ID)
	suite.Equal("first", todos[0].Title)
	suite.Equal(last.ID, todos[1].ID)
	suite.Equal("last", todos[1].Title)
}

func (suite *TodoServiceTestSuite) TestDeleteTodo_Missing() {
	suite.create("keep me", nil)

	result, err := suite.service.DeleteTodo(suite.ctx, suite.db, 999)
	suite.Require().NoError(err)
	suite.False(result.Success)

	todos, err := suite.service.GetTodos(suite.ctx, suite.db)
	suite.Require().NoError(err)
	suite.Len(todos, 1)
}

func (suite *TodoServiceTestSuite) TestDeleteTodo_IDsNotReused() {
	first := suite.create("first", nil)
	_, err := suite.service.DeleteTodo(suite.ctx, suite.db, first.ID)
	suite.Require().NoError(err)

	second := suite.create("second", nil)
	suite.Greater(second.ID, first.ID)
}

func (suite *TodoServiceTestSuite) TestToggleTodo_Alternates() {
	todo := suite.create("toggle me", nil)
	suite.Require().False(todo.Completed)

	previous := todo.UpdatedAt
	for _, want := range []bool{true, false, true} {
		toggled, err := suite.service.ToggleTodo(suite.ctx, suite.db, todo.ID)
		suite.Require().NoError(err)
		suite.Equal(want, toggled.Completed)
		suite.True(toggled.UpdatedAt.After(previous), "updated_at must strictly increase")
		suite.True(toggled.CreatedAt.Equal(todo.CreatedAt))
		previous = toggled.UpdatedAt
	}
}

func (suite *TodoServiceTestSuite) TestToggleTodo_FrozenClockStillAdvances() {
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	suite.service.WithClock(func() time.Time { return frozen })

	todo := suite.create("frozen", nil)
	first, err := suite.service.ToggleTodo(suite.ctx, suite.db, todo.ID)
	suite.Require().NoError(err)
	second, err := suite.service.ToggleTodo(suite.ctx, suite.db, todo.ID)
	suite.Require().NoError(err)

	suite.Equal(frozen.Add(time.Microsecond), first.UpdatedAt.UTC())
	suite.Equal(frozen.Add(2*time.Microsecond), second.UpdatedAt.UTC())
}

func (suite *TodoServiceTestSuite) TestToggleTodo_NotFound() {
	_, err := suite.service.ToggleTodo(suite.ctx, suite.db, 999)

	suite.Require().Error(err)
	suite.True(errors.Is(err, services.ErrTodoNotFound))
	suite.Contains(err.Error(), "not found")
	suite.Contains(err.Error(), "999")
}

func (suite *TodoServiceTestSuite) TestUpdateTodo_NotFound() {
	_, err := suite.service.UpdateTodo(suite.ctx, suite.db, models.UpdateTodoInput{
		ID:    999,
		Title: strPtr("nope"),
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrTodoNotFound)
	suite.Contains(err.Error(), "not found")
}

func (suite *TodoServiceTestSuite) TestUpdateTodo_NullDescriptionOnly() {
	todo := suite.create("keep title", strPtr("to be cleared"))
	toggled, err := suite.service.ToggleTodo(suite.ctx, suite.db, todo.ID)
	suite.Require().NoError(err)

	updated, err := suite.service.UpdateTodo(suite.ctx, suite.db, models.UpdateTodoInput{
		ID:          todo.ID,
		Description: models.NullString(),
	})
	suite.Require().NoError(err)

	suite.Equal("keep title", updated.Title)
	suite.True(updated.Completed)
	suite.Nil(updated.Description)
	suite.True(updated.UpdatedAt.After(toggled.UpdatedAt))
}

func (suite *TodoServiceTestSuite) TestUpdateTodo_AbsentFieldsUnchanged() {
	todo := suite.create("title", strPtr("description"))

	updated, err := suite.service.UpdateTodo(suite.ctx, suite.db, models.UpdateTodoInput{
		ID:        todo.ID,
		Completed: boolPtr(true),
	})
	suite.Require().NoError(err)

	suite.Equal("title", updated.Title)
	suite.Require().NotNil(updated.Description)
	suite.Equal("description", *updated.Description)
	suite.True(updated.Completed)
}

func (suite *TodoServiceTestSuite) TestUpdateTodo_AllFields() {
	todo := suite.create("old title", nil)

	updated, err := suite.service.UpdateTodo(suite.ctx, suite.db, models.UpdateTodoInput{
		ID:          todo.ID,
		Title:       strPtr("new title"),
		Description: models.NewNullableString("new description"),
		Completed:   boolPtr(true),
	})
	suite.Require().NoError(err)

	suite.Equal(todo.ID, updated.ID)
	suite.Equal("new title", updated.Title)
	suite.Require().NotNil(updated.Description)
	suite.Equal("new description", *updated.Description)
	suite.True(updated.Completed)
	suite.True(updated.UpdatedAt.After(todo.UpdatedAt))
	suite.True(updated.CreatedAt.Equal(todo.CreatedAt))

	todos, err := suite.service.GetTodos(suite.ctx, suite.db)
	suite.Require().NoError(err)
	suite.Require().Len(todos, 1)
	suite.Equal("new title", todos[0].Title)
}

func (suite *TodoServiceTestSuite) TestUpdateTodo_EmptyTitle() {
	todo := suite.create("title", nil)

	_, err := suite.service.UpdateTodo(suite.ctx, suite.db, models.UpdateTodoInput{
		ID:    todo.ID,
		Title: strPtr(""),
	})
	suite.ErrorIs(err, services.ErrInvalidInput)
}

func (suite *TodoServiceTestSuite) TestUpdateTodo_NoFieldsRefreshesTimestamp() {
	todo := suite.create("title", nil)

	updated, err := suite.service.UpdateTodo(suite.ctx, suite.db, models.UpdateTodoInput{ID: todo.ID})
	suite.Require().NoError(err)

	suite.Equal("title", updated.Title)
	suite.True(updated.UpdatedAt.After(todo.UpdatedAt))
}

func (suite *TodoServiceTestSuite) TestToggleTodo_ConcurrentCallsSerialize() {
	todo := suite.create("contended", nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.service.ToggleTodo(suite.ctx, suite.db, todo.ID)
			suite.NoError(err)
		}()
	}
	wg.Wait()

	todos, err := suite.service.GetTodos(suite.ctx, suite.db)
	suite.Require().NoError(err)
	suite.Require().Len(todos, 1)
	suite.False(todos[0].Completed, "an even number of toggles returns to the start")
}

func TestToggleTodo_FileDatabaseConcurrentCalls(t *testing.T) {
	config := database.DefaultPoolConfig()
	config.Driver = database.DriverSQLite
	config.DSN = filepath.Join(t.TempDir(), "todos.db")

	pool, err := database.NewDatabasePool(config, nil)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, database.Migrate(pool.DB))

	ctx := context.Background()
	service := services.NewTodoService(repositories.NewTodoRepository(), logging.Discard())
	todo, err := service.CreateTodo(ctx, pool.DB, models.CreateTodoInput{Title: "contended"})
	require.NoError(t, err)

	const callers = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		stamp = make(map[time.Time]bool)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			toggled, err := service.ToggleTodo(ctx, pool.DB, todo.ID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			stamp[toggled.UpdatedAt] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, stamp, callers, "every toggle gets its own updated_at")

	todos, err := service.GetTodos(ctx, pool.DB)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.False(t, todos[0].Completed)
}

func TestTodoServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TodoServiceTestSuite))
}
