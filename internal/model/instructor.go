package model

import "time"

// Instructor — запись из внешнего справочника персонала.
type Instructor struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}
