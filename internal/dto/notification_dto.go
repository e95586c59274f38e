package dto

import "time"

type NotificationArticle struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type NotificationActor struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Image    *string `json:"image"`
}

type NotificationView struct {
	ID        uint                 `json:"id"`
	Type      string               `json:"type"`
	Message   string               `json:"message"`
	IsRead    bool                 `json:"isRead"`
	CreatedAt time.Time            `json:"createdAt"`
	Article   *NotificationArticle `json:"article,omitempty"`
	Actor     *NotificationActor   `json:"actor,omitempty"`
}

type NotificationListResponse struct {
	Notifications []NotificationView `json:"notifications"`
	UnreadCount   int64              `json:"unreadCount"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
