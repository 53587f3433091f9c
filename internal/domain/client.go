package domain

import (
	"fmt"
	"time"
)

type Client struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

// NewDefaultClient synthesizes the record created on first reference to an
// unknown client id.
func NewDefaultClient(id int64, createdAt time.Time) *Client {
	return &Client{
		ID:        id,
		Name:      fmt.Sprintf("Client %d", id),
		Email:     fmt.Sprintf("client%d@example.com", id),
		CreatedAt: createdAt,
	}
}
