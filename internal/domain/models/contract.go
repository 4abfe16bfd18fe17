package models

import "time"

type Contract struct {
	ID          int       `json:"id"`
	Description string    `json:"description"`
	UserID      int       `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	Fidelity    int       `json:"fidelity"`
	Amount      float64   `json:"amount"`
}
