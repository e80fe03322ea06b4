package repository

import "errors"

var (
	ErrNotFound          = errors.New("запись не найдена")
	ErrVersionConflict   = errors.New("конфликт версий")
	ErrInvalidHierarchy  = errors.New("нарушение иерархии задач")
	ErrInvalidDates      = errors.New("дата начала позже даты окончания")
	ErrActiveTimerExists = errors.New("у пользователя уже есть активный таймер")
	ErrDuplicateOffline  = errors.New("офлайн-запись уже синхронизирована")
)
