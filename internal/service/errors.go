package service

import "errors"

// Бизнес-ошибки движка бронирования. Вызывающий слой различает их
// через errors.Is и сам переводит в сообщения для пользователя.
var (
	ErrPeriodDurationInvalid   = errors.New("period duration must be a multiple of 7 days, between 7 and 21")
	ErrPeriodStartTooFar       = errors.New("period start date is more than 30 days out")
	ErrPeriodOverlap           = errors.New("period overlaps another period for the same aircraft")
	ErrAircraftUnavailable     = errors.New("aircraft is inactive or unavailable")
	ErrPeriodNotActive         = errors.New("flight period is not active")
	ErrSlotNotAvailable        = errors.New("slot is not available")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrMaxRequestsExceeded     = errors.New("maximum number of concurrent requests exceeded")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	ErrAircraftNotFound   = errors.New("aircraft not found")
	ErrStudentNotFound    = errors.New("student profile not found")
	ErrInstructorNotFound = errors.New("instructor not found")
	ErrPeriodNotFound     = errors.New("flight period not found")
	ErrSlotNotFound       = errors.New("slot not found")
	ErrRequestNotFound    = errors.New("flight request not found")
	ErrFeeNotFound        = errors.New("cancellation fee not found")
)
