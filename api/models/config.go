package models

// Config Dashboard configuration published by the upstream API
// swagger:model Config
type Config struct {
	GitLabBaseURL    string `json:"gitLabBaseURL"`
	GitLabAppID      string `json:"gitLabAppId"`
	OAuthEnabled     bool   `json:"oAuthEnabled"`
	UserLinkTemplate string `json:"userLinkTemplate"`
	User             *User  `json:"user"`
}

// DefaultConfig The configuration assumed until the upstream config is loaded
func DefaultConfig() Config {
	return Config{OAuthEnabled: true}
}
