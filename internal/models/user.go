package models

import "time"

// User is a Blogium account. OAuth-created accounts keep PasswordHash nil.
type User struct {
	ID                      uint       `gorm:"primaryKey" json:"id"`
	Username                string     `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Email                   string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash            *string    `json:"-"`
	Bio                     *string    `gorm:"type:text" json:"bio"`
	Image                   *string    `gorm:"type:text" json:"image"`
	EmailVerified           bool       `gorm:"default:false" json:"email_verified"`
	VerificationCode        *string    `gorm:"size:255" json:"-"`
	VerificationCodeExpiry  *time.Time `json:"-"`
	PasswordResetCode       *string    `gorm:"size:255;index" json:"-"`
	PasswordResetCodeExpiry *time.Time `json:"-"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// IsExternal reports whether the account was created through an OAuth provider.
func (u *User) IsExternal() bool {
	return u.PasswordHash == nil
}
