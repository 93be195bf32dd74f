package model

import "time"

// FlightPeriod представляет учебный период — диапазон дат, привязанный
// к одному воздушному судну. Из периода массово генерируются слоты,
// а флаг is_active разрешает создание заявок на эти слоты.
type FlightPeriod struct {
	ID         int64     `json:"id"`
	AircraftID int64     `json:"aircraft_id"`
	StartDate  time.Time `json:"start_date"` // дата без времени, UTC
	EndDate    time.Time `json:"end_date"`   // включительно
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Days возвращает длительность периода в днях, включая обе границы.
func (p *FlightPeriod) Days() int {
	return int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1
}

// Contains проверяет, попадает ли дата в диапазон периода.
func (p *FlightPeriod) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}
