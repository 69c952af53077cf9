package models

import "time"

type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	DarkMode  bool      `json:"darkMode" db:"dark_mode"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UserSummary is the public view of a user shown in friend and member lists.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"imageUrl"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ImageURL: u.ImageURL}
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=1,max=64"`
	ImageURL string `json:"imageUrl"`
	DarkMode bool   `json:"darkMode"`
}

type UserInfo struct {
	Username string `json:"username"`
	ImageURL string `json:"imageUrl"`
	DarkMode bool   `json:"darkMode"`
}
