package domain

// Envelope is the response wrapper used by the laundry REST API.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// LoginData is the payload of a successful login exchange.
type LoginData struct {
	Token string      `json:"token"`
	User  UserPayload `json:"user"`
}

// SessionView is what the console reports about a role family's session.
// The token is deliberately absent.
type SessionView struct {
	Family          string    `json:"family"`
	Hydrated        bool      `json:"hydrated"`
	IsAuthenticated bool      `json:"is_authenticated"`
	User            *Identity `json:"user,omitempty"`
}

// LoginResponse is returned to console clients after a successful login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}
