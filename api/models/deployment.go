package models

import "time"

// Deployment A historical release of a project branch into an environment
// swagger:model Deployment
type Deployment struct {
	ID        int        `json:"id"`
	Ref       string     `json:"ref"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Pipeline  Pipeline   `json:"pipeline"`
	User      *User      `json:"user,omitempty"`
}

// Pipeline The pipeline that carried out a deployment
type Pipeline struct {
	ID     int       `json:"id"`
	Status JobStatus `json:"status"`
}

// User An upstream platform user
// swagger:model User
type User struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarURL"`
}
