package model

import "time"

// Student — профиль студента из внешнего модуля учёта.
// Движок меняет только баланс (штраф за отмену и его возврат)
// и одноразовый флаг временного допуска.
type Student struct {
	ID                     int64     `json:"id"`
	FullName               string    `json:"full_name"`
	BalanceCents           int64     `json:"balance_cents"`
	HasCredit              bool      `json:"has_credit"`
	HasTemporaryPermission bool      `json:"has_temporary_permission"` // одноразовый, сгорает при одобрении
	CreatedAt              time.Time `json:"created_at"`
}
