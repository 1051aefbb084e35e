package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Username     *string   `json:"username"`
	Bio          string    `json:"bio"`
	AvatarKey    *string   `json:"avatarKey"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal is the public-safe view of a user attached to authenticated requests.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// ProfileUpdate holds the optional fields of a profile edit; nil means unchanged.
type ProfileUpdate struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Bio      *string `json:"bio" validate:"omitempty,max=300"`
	Username *string `json:"username" validate:"omitempty,min=3,max=30,alphanum"`
}

type PublicProfile struct {
	Name      string  `json:"name"`
	Username  string  `json:"username"`
	Bio       string  `json:"bio"`
	AvatarKey *string `json:"avatarKey"`
	Links     []Link  `json:"links"`
}
