package repositories

import (
	"context"

	"todo-tracker/backend/internal/models"

	"gorm.io/gorm"
)

// TodoRepository is the entity store for todos. Every method issues a single
// statement against db, which may be a transaction.
type TodoRepository interface {
	Create(ctx context.Context, db *gorm.DB, todo *models.Todo) error
	FindAll(ctx context.Context, db *gorm.DB) ([]models.Todo, error)
	FindByID(ctx context.Context, db *gorm.DB, id uint) (models.Todo, error)
	Update(ctx context.Context, db *gorm.DB, id uint, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, id uint) (int64, error)
}

type GormTodoRepository struct{}

func NewTodoRepository() *GormTodoRepository {
	return &GormTodoRepository{}
}

func (r *GormTodoRepository) Create(ctx context.Context, db *gorm.DB, todo *models.Todo) error {
	return db.WithContext(ctx).Create(todo).Error
}

func (r *GormTodoRepository) FindAll(ctx context.Context, db *gorm.DB) ([]models.Todo, error) {
	todos := []models.Todo{}
	err := db.WithContext(ctx).Order("id ASC").Find(&todos).Error
	return todos, err
}

// FindByID returns gorm.ErrRecordNotFound when no row matches.
func (r *GormTodoRepository) FindByID(ctx context.Context, db *gorm.DB, id uint) (models.Todo, error) {
	var todo models.Todo
	err := db.WithContext(ctx).First(&todo, id).Error
	return todo, err
}

func (r *GormTodoRepository) Update(ctx context.Context, db *gorm.DB, id uint, fields map[string]interface{}) (int64, error) {
	result := db.WithContext(ctx).Model(&models.Todo{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *GormTodoRepository) Delete(ctx context.Context, db *gorm.DB, id uint) (int64, error) {
	result := db.WithContext(ctx).Delete(&models.Todo{}, id)
	return result.RowsAffected, result.Error
}
