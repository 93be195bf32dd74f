package model

import "time"

type Block string

const (
	BlockMorning   Block = "AM"
	BlockAfternoon Block = "PM"
	BlockEvening   Block = "EVE"
)

// Blocks — фиксированный набор блоков дня в порядке следования.
// Каждый день периода даёт ровно по одному слоту на блок.
var Blocks = []Block{BlockMorning, BlockAfternoon, BlockEvening}

type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "available"   // Свободен для заявок
	SlotStatusPending     SlotStatus = "pending"     // Есть заявка, ждёт одобрения
	SlotStatusReserved    SlotStatus = "reserved"    // Заявка одобрена
	SlotStatusUnavailable SlotStatus = "unavailable" // Прошедшая дата, погода, обслуживание
)

// FlightSlot — одна бронируемая ячейка (дата, блок, судно).
// Пассивная запись: статусом управляют переходы FlightRequest
// и прямые правки персонала.
type FlightSlot struct {
	ID           int64      `json:"id"`
	PeriodID     int64      `json:"period_id"`
	Date         time.Time  `json:"date"`
	Block        Block      `json:"block"`
	AircraftID   *int64     `json:"aircraft_id"`   // указатель - может быть nil
	InstructorID *int64     `json:"instructor_id"` // назначенный инструктор, может быть nil
	StudentID    *int64     `json:"student_id"`
	Status       SlotStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
