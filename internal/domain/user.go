package domain

// User is the session-cached copy of an account owned by the remote
// auth service.
type User struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"full_name,omitempty"`
	IsAdmin  bool    `json:"is_admin"`
	Balance  float64 `json:"balance"`
}
