package permission

import (
	"time"

	"github.com/google/uuid"
)

type Level string
type Role string

const LevelViewer Level = "viewer"
const LevelEditor Level = "editor"
const LevelSuperEditor Level = "super-editor"

const RoleMember Role = ""
const RoleAdmin Role = "admin"
const RoleSuperAdmin Role = "super-admin"

// SpacePermission - уровень доступа пользователя в пространстве, уникален по (space, user)
type SpacePermission struct {
	SpaceID   uuid.UUID  `json:"space_id" db:"space_id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Level     Level      `json:"level" db:"level"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

func (l Level) Valid() bool {
	switch l {
	case LevelViewer, LevelEditor, LevelSuperEditor:
		return true
	}
	return false
}

func (l Level) CanEdit() bool {
	return l == LevelEditor || l == LevelSuperEditor
}

func (l Level) CanManage() bool {
	return l == LevelSuperEditor
}

func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Actor - уже аутентифицированный пользователь с ролью
type Actor struct {
	UserID uuid.UUID
	Role   Role
}
