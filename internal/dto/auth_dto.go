package dto

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest accepts either the emailed token or the legacy
// email plus code pair.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"omitempty,email"`
	Code        string `json:"code"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=100"`
}

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50,username"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6,max=100"`
	Bio      *string `json:"bio" validate:"omitempty,max=1000"`
	Image    *string `json:"image" validate:"omitempty,max=2000"`
}

type UserResponse struct {
	ID            uint    `json:"id"`
	Email         string  `json:"email"`
	Username      string  `json:"username"`
	Bio           *string `json:"bio"`
	Image         *string `json:"image"`
	EmailVerified bool    `json:"emailVerified"`
	Token         string  `json:"token,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Plugins   int    `json:"plugins"`
}
