package models

import "time"

type Announcement struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Category   string    `json:"category"`
	Pinned     bool      `json:"pinned"`
	AuthorID   int       `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateAnnouncementRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required,max=10000"`
	Category string `json:"category" validate:"omitempty,oneof=general maintenance event emergency finance"`
	Pinned   bool   `json:"pinned"`
}
