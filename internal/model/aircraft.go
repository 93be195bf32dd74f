package model

import "time"

// Aircraft — запись из справочника воздушных судов.
// Движок бронирования только читает её; жизненным циклом судна
// управляет внешний модуль.
type Aircraft struct {
	ID              int64     `json:"id"`
	TailNumber      string    `json:"tail_number"`
	Model           string    `json:"model"`
	IsActive        bool      `json:"is_active"`
	IsAvailable     bool      `json:"is_available"`
	HourlyRateCents int64     `json:"hourly_rate_cents"` // ставка в центах за лётный час
	CreatedAt       time.Time `json:"created_at"`
}

// Bookable сообщает, можно ли планировать периоды на этом судне.
func (a *Aircraft) Bookable() bool {
	return a.IsActive && a.IsAvailable
}
