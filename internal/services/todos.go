package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-tracker/backend/internal/models"
	"todo-tracker/backend/internal/repositories"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type TodoService interface {
	CreateTodo(ctx context.Context, db *gorm.DB, input models.CreateTodoInput) (*models.Todo, error)
	GetTodos(ctx context.Context, db *gorm.DB) ([]models.Todo, error)
	UpdateTodo(ctx context.Context, db *gorm.DB, input models.UpdateTodoInput) (*models.Todo, error)
	ToggleTodo(ctx context.Context, db *gorm.DB, id uint) (*models.Todo, error)
	DeleteTodo(ctx context.Context, db *gorm.DB, id uint) (models.DeleteTodoResult, error)
}

// timestampResolution is the precision Postgres keeps for timestamps.
const timestampResolution = time.Microsecond

type TodoServiceImpl struct {
	repo   repositories.TodoRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewTodoService(repo repositories.TodoRepository, logger zerolog.Logger) *TodoServiceImpl {
	return &TodoServiceImpl{
		repo:   repo,
		logger: logger.With().Str("component", "todo_service").Logger(),
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *TodoServiceImpl) WithClock(now func() time.Time) *TodoServiceImpl {
	s.now = now
	return s
}

func (s *TodoServiceImpl) stamp() time.Time {
	return s.now().UTC().Truncate(timestampResolution)
}

// nextUpdatedAt returns a stamp strictly after previous, even when the clock
// has not advanced past it.
func (s *TodoServiceImpl) nextUpdatedAt(previous time.Time) time.Time {
	next := s.stamp()
	if !next.After(previous) {
		next = previous.UTC().Truncate(timestampResolution).Add(timestampResolution)
	}
	return next
}

func (s *TodoServiceImpl) CreateTodo(ctx context.Context, db *gorm.DB, input models.CreateTodoInput) (*models.Todo, error) {
	if input.Title == "" {
		return nil, invalidInput("title is required")
	}

	now := s.stamp()
	todo := models.Todo{
		Title:       input.Title,
		Description: input.Description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, db, &todo); err != nil {
		s.logger.Error().Err(err).Msg("failed to insert todo")
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	s.logger.Info().Uint("todo_id", todo.ID).Msg("created todo")
	return &todo, nil
}

func (s *TodoServiceImpl) GetTodos(ctx context.Context, db *gorm.DB) ([]models.Todo, error) {
	todos, err := s.repo.FindAll(ctx, db)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list todos")
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

func (s *TodoServiceImpl) UpdateTodo(ctx context.Context, db *gorm.DB, input models.UpdateTodoInput) (*models.Todo, error) {
	if input.Title != nil && *input.Title == "" {
		return nil, invalidInput("title must not be empty")
	}

	return s.mutate(ctx, db, input.ID, func(current models.Todo) map[string]interface{} {
		fields := map[string]interface{}{}
		if input.Title != nil {
			fields["title"] = *input.Title
		}
		if input.Description.Set {
			fields["description"] = input.Description.Value
		}
		if input.Completed != nil {
			fields["completed"] = *input.Completed
		}
		return fields
	})
}

func (s *TodoServiceImpl) ToggleTodo(ctx context.Context, db *gorm.DB, id uint) (*models.Todo, error) {
	return s.mutate(ctx, db, id, func(current models.Todo) map[string]interface{} {
		return map[string]interface{}{
			"completed": !current.Completed,
		}
	})
}

// mutate reads the todo, applies the fields returned by change together with
// a fresh updated_at, and reads the row back, all in one transaction.
func (s *TodoServiceImpl) mutate(ctx context.Context, db *gorm.DB, id uint, change func(current models.Todo) map[string]interface{}) (*models.Todo, error) {
	var updated models.Todo

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{ID: id}
			}
			return err
		}

		fields := change(current)
		fields["updated_at"] = s.nextUpdatedAt(current.UpdatedAt)

		affected, err := s.repo.Update(ctx, tx, id, fields)
		if err != nil {
			return err
		}
		if affected == 0 {
			return &NotFoundError{ID: id}
		}

		updated, err = s.repo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrTodoNotFound) {
			s.logger.Debug().Uint("todo_id", id).Msg("todo not found")
			return nil, err
		}
		s.logger.Error().Err(err).Uint("todo_id", id).Msg("failed to update todo")
		return nil, fmt.Errorf("failed to update todo %d: %w", id, err)
	}

	s.logger.Info().
		Uint("todo_id", id).
		Bool("completed", updated.Completed).
		Msg("updated todo")
	return &updated, nil
}

func (s *TodoServiceImpl) DeleteTodo(ctx context.Context, db *gorm.DB, id uint) (models.DeleteTodoResult, error) {
	affected, err := s.repo.Delete(ctx, db, id)
	if err != nil {
		s.logger.Error().Err(err).Uint("todo_id", id).Msg("failed to delete todo")
		return models.DeleteTodoResult{}, fmt.Errorf("failed to delete todo %d: %w", id, err)
	}

	if affected == 0 {
		s.logger.Debug().Uint("todo_id", id).Msg("no todo to delete")
		return models.DeleteTodoResult{Success: false}, nil
	}

	s.logger.Info().Uint("todo_id", id).Msg("deleted todo")
	return models.DeleteTodoResult{Success: true}, nil
}
