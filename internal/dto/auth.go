package dto

// ── Auth ──

// LoginRequest login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest admin creates an account
type CreateUserRequest struct {
	Username   string  `json:"username"    binding:"required,min=3,max=50"`
	Password   string  `json:"password"    binding:"required,min=8,max=72"`
	Role       string  `json:"role"        binding:"required,oneof=admin hr employee"`
	EmployeeID *string `json:"employee_id" binding:"omitempty,uuid"`
}

// TokenResponse issued access token
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"` // seconds
	User        UserResponse `json:"user"`
}

// UserResponse account without secrets
type UserResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Role       string  `json:"role"`
	EmployeeID *string `json:"employee_id,omitempty"`
}
