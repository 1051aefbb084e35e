package models

//nolint:gosec //file not handles sensitive data
const (
	MwPrincipalKey = "principal"

	RefreshCookieName = "refreshToken"
	RefreshCookiePath = "/api/auth"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

type SuccessResponse struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type FailResponse struct {
	Status string              `json:"status"`
	Data   map[string][]string `json:"data"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClientMeta identifies the client presenting a credential.
type ClientMeta struct {
	UserAgent string `json:"user_agent"`
	IPAddress string `json:"ip_address"`
}
