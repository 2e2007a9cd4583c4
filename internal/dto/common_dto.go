package dto

// CreatedResponse acknowledges an insert with the new row id.
type CreatedResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

// MessageResponse acknowledges a write without a payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
