package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"todo-tracker/backend/internal/cache"
	"todo-tracker/backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const todoListCacheKey = "todos:all"

// CachedTodoService serves GetTodos from the cache and drops the cached list
// after every successful mutation. Cache failures are logged, never
// returned.
//
// A list read from the store is cached only if no mutation finished while it
// was being read. When an invalidation fails the cache is bypassed until a
// later one succeeds, so a list that outlived a write is never served.
type CachedTodoService struct {
	todoService TodoService
	cache       cache.Cache
	listTTL     time.Duration
	logger      zerolog.Logger

	mu         sync.Mutex
	generation uint64
	stale      bool
}

func NewCachedTodoService(todoService TodoService, cacheInstance cache.Cache, listTTL time.Duration, logger zerolog.Logger) *CachedTodoService {
	if listTTL <= 0 {
		listTTL = 10 * time.Minute
	}

	return &CachedTodoService{
		todoService: todoService,
		cache:       cacheInstance,
		listTTL:     listTTL,
		logger:      logger.With().Str("component", "cached_todo_service").Logger(),
	}
}

func (s *CachedTodoService) CreateTodo(ctx context.Context, db *gorm.DB, input models.CreateTodoInput) (*models.Todo, error) {
	todo, err := s.todoService.CreateTodo(ctx, db, input)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return todo, nil
}

func (s *CachedTodoService) GetTodos(ctx context.Context, db *gorm.DB) ([]models.Todo, error) {
	generation, usable := s.begin(ctx)
	if !usable {
		return s.todoService.GetTodos(ctx, db)
	}

	var cached []models.Todo
	err := s.cache.Get(ctx, todoListCacheKey, &cached)
	if err == nil {
		if cached == nil {
			cached = []models.Todo{}
		}
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Str("key", todoListCacheKey).Msg("cache read failed")
	}

	todos, err := s.todoService.GetTodos(ctx, db)
	if err != nil {
		return nil, err
	}

	s.store(ctx, generation, todos)
	return todos, nil
}

func (s *CachedTodoService) UpdateTodo(ctx context.Context, db *gorm.DB, input models.UpdateTodoInput) (*models.Todo, error) {
	todo, err := s.todoService.UpdateTodo(ctx, db, input)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return todo, nil
}

func (s *CachedTodoService) ToggleTodo(ctx context.Context, db *gorm.DB, id uint) (*models.Todo, error) {
	todo, err := s.todoService.ToggleTodo(ctx, db, id)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return todo, nil
}

func (s *CachedTodoService) DeleteTodo(ctx context.Context, db *gorm.DB, id uint) (models.DeleteTodoResult, error) {
	result, err := s.todoService.DeleteTodo(ctx, db, id)
	if err != nil {
		return result, err
	}

	if result.Success {
		s.invalidate(ctx)
	}
	return result, nil
}

func (s *CachedTodoService) GetCacheStats() map[string]interface{} {
	return s.cache.Stats()
}

// begin snapshots the mutation generation before a read. It reports false
// while the cache is known to hold data older than the store.
func (s *CachedTodoService) begin(ctx context.Context) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stale {
		if err := s.cache.Delete(ctx, todoListCacheKey); err != nil {
			return 0, false
		}
		s.stale = false
		s.logger.Info().Msg("cache invalidation recovered")
	}
	return s.generation, true
}

func (s *CachedTodoService) store(ctx context.Context, generation uint64, todos []models.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stale || s.generation != generation {
		return
	}

	if err := s.cache.Set(ctx, todoListCacheKey, todos, s.listTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", todoListCacheKey).Msg("cache write failed")
	}
}

func (s *CachedTodoService) invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	err := s.cache.Delete(ctx, todoListCacheKey)
	s.stale = err != nil
	if err != nil {
		s.logger.Warn().Err(err).Str("key", todoListCacheKey).Msg("cache invalidation failed, bypassing cache")
	}
}
