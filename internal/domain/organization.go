package domain

import "time"

// Organization is a tenant. It owns services and incidents and is exposed
// publicly by its slug.
type Organization struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	ExternalRef string     `json:"external_ref"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}
