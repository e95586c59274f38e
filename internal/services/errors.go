package services

import "errors"

var (
	// Not found
	ErrArticleNotFound      = errors.New("article not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// Ownership
	ErrNotArticleAuthor = errors.New("you are not the author of this article")
	ErrNotCommentAuthor = errors.New("you are not the author of this comment")

	// Validation
	ErrSelfFollow         = errors.New("you cannot follow yourself")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email address is not verified")
	ErrAlreadyVerified    = errors.New("email address is already verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code has expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")

	// Upstream
	ErrUpstream = errors.New("upstream service failure")
)
