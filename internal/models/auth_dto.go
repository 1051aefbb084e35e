package models

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"-"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	User        *User  `json:"user"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"contentType" validate:"required,oneof=image/png image/jpeg image/webp"`
}

type AvatarUpload struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}
