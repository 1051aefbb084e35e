package models

import "time"

type Link struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateLinkRequest struct {
	Title string `json:"title" validate:"required,min=1,max=100"`
	URL   string `json:"url" validate:"required,url,max=2048"`
}

type UpdateLinkRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=100"`
	URL   *string `json:"url" validate:"omitempty,url,max=2048"`
}

type ReorderLinksRequest struct {
	IDs []string `json:"ids" validate:"required,dive,uuid"`
}
