package model

import "time"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"   // Ожидает решения персонала
	RequestStatusApproved  RequestStatus = "approved"  // Одобрена, слот зарезервирован
	RequestStatusCancelled RequestStatus = "cancelled" // Терминальный статус
)

// FlightRequest — заявка студента на конкретный слот.
type FlightRequest struct {
	ID          int64         `json:"id"`
	StudentID   int64         `json:"student_id"`
	SlotID      int64         `json:"slot_id"`
	Status      RequestStatus `json:"status"`
	Notes       string        `json:"notes"`
	RequestedAt time.Time     `json:"requested_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Slot    *FlightSlot `json:"slot,omitempty"`
	Student *Student    `json:"student,omitempty"`
}
