package domain

import "time"

// Restaurant is a location that gets audited. Reference data — the audit
// flow never mutates it.
type Restaurant struct {
	ID        string    `json:"id"         db:"id"`
	Code      string    `json:"code"       db:"code"` // unique short code, e.g. "KHI-042"
	Name      string    `json:"name"       db:"name"`
	Address   string    `json:"address"    db:"address"`
	City      string    `json:"city"       db:"city"`
	Country   string    `json:"country"    db:"country"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
