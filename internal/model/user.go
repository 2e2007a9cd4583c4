package model

import "time"

// Roles
const (
	RoleSupervisor = "supervisor"
	RoleOperator   = "operator"
	RoleUser       = "user"
)

// User is an account of the tracker. Password holds a bcrypt hash; rows
// imported from the legacy system may still hold plaintext until their owner
// logs in once.
type User struct {
	ID          int64  `gorm:"primaryKey"`
	Username    string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Email       string `gorm:"type:varchar(150);uniqueIndex;not null"`
	Password    string `gorm:"not null"`
	Contact     string `gorm:"type:varchar(50)"`
	Subdivision string `gorm:"type:varchar(100)"`
	Role        string `gorm:"type:varchar(20);not null;default:'user'"`
	CreatedAt   time.Time
}

func (User) TableName() string { return "users" }

// Action types recorded in the audit log.
const (
	ActionLogin             = "login"
	ActionLogout            = "logout"
	ActionRegister          = "register"
	ActionAddItem           = "add_item"
	ActionAddCategory       = "add_category"
	ActionAddSubcategory    = "add_subcategory"
	ActionAddPredefinedItem = "add_predefined_item"
	ActionDeleteItem        = "delete_item"
	ActionDeleteSubcategory = "delete_subcategory"
	ActionIncreaseStock     = "increase_stock"
	ActionReduceStock       = "reduce_stock"
	ActionChangePassword    = "change_password"
	ActionDeleteUser        = "delete_user"
	ActionClearLogs         = "clear_logs"
)

// ActionLog is one append-only audit entry. UserID is nulled when the user is
// removed outside the delete-user operation.
type ActionLog struct {
	ID          int64     `gorm:"primaryKey"`
	UserID      *int64    `gorm:"index"`
	ActionType  string    `gorm:"type:varchar(50);not null"`
	Description string    `gorm:"type:text;not null"`
	Timestamp   time.Time `gorm:"not null;index"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (ActionLog) TableName() string { return "action_logs" }
