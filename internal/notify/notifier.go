package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventType string

const (
	RequestCreated     EventType = "request_created"
	RequestApproved    EventType = "request_approved"
	RequestCancelled   EventType = "request_cancelled"
	InstructorAssigned EventType = "instructor_assigned"
	InstructorRemoved  EventType = "instructor_removed"
)

// Event — именованное событие для рассылки уведомлений.
// Поля-ссылки опциональны: каждое событие несёт только то,
// что относится к его типу.
type Event struct {
	ID           uuid.UUID `json:"id"`
	Type         EventType `json:"type"`
	RequestID    *int64    `json:"request_id,omitempty"`
	SlotID       *int64    `json:"slot_id,omitempty"`
	StudentID    *int64    `json:"student_id,omitempty"`
	InstructorID *int64    `json:"instructor_id,omitempty"`
	At           time.Time `json:"at"`
}

// NewEvent создаёт событие с заполненными id и временем.
func NewEvent(t EventType) Event {
	return Event{ID: uuid.New(), Type: t, At: time.Now()}
}

// Dispatcher доставляет события внешнему модулю уведомлений.
// Доставка не должна влиять на исход транзакции, поэтому
// интерфейс не возвращает ошибку.
type Dispatcher interface {
	Dispatch(ctx context.Context, events ...Event)
}

// Outbox накапливает события внутри транзакции.
// Flush вызывается строго после успешного commit — откат транзакции
// означает, что накопленные события просто не уйдут.
type Outbox struct {
	events []Event
}

func (o *Outbox) Add(e Event) {
	o.events = append(o.events, e)
}

func (o *Outbox) Len() int {
	return len(o.events)
}

func (o *Outbox) Flush(ctx context.Context, d Dispatcher) {
	if d == nil || len(o.events) == 0 {
		return
	}
	d.Dispatch(ctx, o.events...)
	o.events = nil
}

// ZapDispatcher пишет события в лог. Используется, пока внешний
// модуль доставки почты не подключён.
type ZapDispatcher struct {
	logger *zap.Logger
}

func NewZapDispatcher(logger *zap.Logger) *ZapDispatcher {
	return &ZapDispatcher{logger: logger}
}

func (d *ZapDispatcher) Dispatch(ctx context.Context, events ...Event) {
	for _, e := range events {
		d.logger.Info("Notification event",
			zap.String("event_id", e.ID.String()),
			zap.String("type", string(e.Type)),
			zap.Int64p("request_id", e.RequestID),
			zap.Int64p("slot_id", e.SlotID),
			zap.Int64p("student_id", e.StudentID),
			zap.Int64p("instructor_id", e.InstructorID),
		)
	}
}

// Recorder — Dispatcher для тестов, просто собирает события.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Dispatch(ctx context.Context, events ...Event) {
	r.Events = append(r.Events, events...)
}
