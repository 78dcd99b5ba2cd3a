package domain

import "time"

// Client is a customer site owning installed modules.
type Client struct {
	ID          string
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
