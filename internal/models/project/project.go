package project

import (
	"time"

	"github.com/google/uuid"
)

// Project нужен ядру только для отображения названия в отчётах
type Project struct {
	UUID      uuid.UUID `json:"uuid" db:"uuid"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
