package model

import "time"

// CancellationFee — запись о штрафе за позднюю отмену.
// Сумма в записи авторитетна для возврата: она не обязана совпадать
// с текущей ставкой судна.
type CancellationFee struct {
	ID          int64     `json:"id"`
	RequestID   *int64    `json:"request_id"` // может быть nil, если заявка удалена
	AmountCents int64     `json:"amount_cents"`
	DateAdded   time.Time `json:"date_added"`
}
