package models

import (
	"bytes"
	"encoding/json"
	"time"
)

type Todo struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"not null"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP;autoUpdateTime:false"`
}

func (Todo) TableName() string {
	return "todos"
}

type CreateTodoInput struct {
	Title       string  `json:"title" binding:"required,min=1"`
	Description *string `json:"description"`
}

// UpdateTodoInput carries a partial update. Nil pointers mean "leave unchanged";
// Description distinguishes an absent key from an explicit null.
type UpdateTodoInput struct {
	ID          uint           `json:"id" binding:"required,gt=0"`
	Title       *string        `json:"title,omitempty" binding:"omitnil,min=1"`
	Description NullableString `json:"description,omitzero"`
	Completed   *bool          `json:"completed,omitempty"`
}

type ToggleTodoInput struct {
	ID uint `json:"id" binding:"required,gt=0"`
}

type DeleteTodoInput struct {
	ID uint `json:"id" binding:"required,gt=0"`
}

type DeleteTodoResult struct {
	Success bool `json:"success"`
}

// NullableString is a tri-state JSON string: absent, null, or a value.
type NullableString struct {
	Set   bool
	Value *string
}

func NewNullableString(value string) NullableString {
	return NullableString{Set: true, Value: &value}
}

func NullString() NullableString {
	return NullableString{Set: true}
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}
