package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=1"`
}

type RegisterRequest struct {
	Username    string `json:"username"    validate:"required,min=3,max=100"`
	Email       string `json:"email"       validate:"required,email,max=150"`
	Password    string `json:"password"    validate:"required,min=6,max=72"`
	Contact     string `json:"contact"     validate:"max=50"`
	Subdivision string `json:"subdivision" validate:"max=100"`
}

type ChangePasswordRequest struct {
	UserID          int64  `json:"user_id"          validate:"required,gt=0"`
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,max=72"`
}

type LogoutRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type DeleteUserRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LoginResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
	ID      int64  `json:"id"`
}

type UserResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Contact     string `json:"contact"`
	Subdivision string `json:"subdivision"`
	Role        string `json:"role"`
}
