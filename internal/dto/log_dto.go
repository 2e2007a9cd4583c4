package dto

type ClearLogsRequest struct {
	UserID  int64 `json:"user_id" validate:"required,gt=0"`
	Confirm bool  `json:"confirm"`
}

type ClearLogsResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deleted_count"`
}

// ListLogsQuery binds GET /logs.
type ListLogsQuery struct {
	UserID *int64 `form:"user_id"`
}

type ActionLogResponse struct {
	ID          int64  `json:"id"`
	UserID      *int64 `json:"user_id"`
	Username    string `json:"username"`
	ActionType  string `json:"action_type"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}
