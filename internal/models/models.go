package models

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Article{},
		&Tag{},
		&ArticleTag{},
		&Comment{},
		&ArticleFavorite{},
		&UserFollow{},
		&Notification{},
		&SystemLog{},
	}
}
