package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/slack-go/slack"
)

// LeaveKind — полный или половинный день.
type LeaveKind string

const (
	KindFullDay LeaveKind = "full"
	KindHalfDay LeaveKind = "half"
)

// DateLayout — календарная дата без времени, как её отдает Slack datepicker.
const DateLayout = "2006-01-02"

// NoReasonPlaceholder подставляется вместо пустой причины: в сообщении и в
// токене причина присутствует всегда, отсутствие != пустая строка.
const NoReasonPlaceholder = "No reason provided."

var (
	ErrEmptyRequester = errors.New("leave request has no requester")
	ErrMissingDates   = errors.New("leave request dates are not set")
	ErrInvalidRange   = errors.New("leave request range start is after its end")
)

// ParseLeaveKind нормализует значение радио-кнопки из формы.
func ParseLeaveKind(v string) (LeaveKind, error) {
	switch LeaveKind(v) {
	case KindFullDay, KindHalfDay:
		return LeaveKind(v), nil
	default:
		return "", fmt.Errorf("unknown leave kind %q", v)
	}
}

// Label — человекочитаемый вид для сообщений.
func (k LeaveKind) Label() string {
	if k == KindHalfDay {
		return "Half day"
	}
	return "Full day(s)"
}

// LeaveRequest — единственная доменная сущность. Никогда не персистится:
// между вебхуками живет только внутри закодированного токена кнопки.
type LeaveRequest struct {
	Requester string // Slack user ID, кто просит отпуск
	From      time.Time
	Until     time.Time // включительно
	Kind      LeaveKind
	Reason    string // после нормализации всегда непустая
}

// Validate проверяет кросс-полевые инварианты, которые форма Slack
// проверить не может (datepicker отдает даты по отдельности).
func (r *LeaveRequest) Validate() error {
	if r.Requester == "" {
		return ErrEmptyRequester
	}
	if r.From.IsZero() || r.Until.IsZero() {
		return ErrMissingDates
	}
	if r.From.After(r.Until) {
		return ErrInvalidRange
	}
	return nil
}

// FromLabel / UntilLabel — формат дат для сообщений ("Mon, Jan 2 2006").
func (r *LeaveRequest) FromLabel() string  { return r.From.Format("Mon, Jan 2 2006") }
func (r *LeaveRequest) UntilLabel() string { return r.Until.Format("Mon, Jan 2 2006") }

// Outcome — результат решения менеджера.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// Reaction — эмодзи, которым помечается решенное сообщение.
func (o Outcome) Reaction() string {
	if o == OutcomeApproved {
		return "white_check_mark"
	}
	return "x"
}

// Verb для текстов уведомлений: "approved" / "rejected".
func (o Outcome) Verb() string { return string(o) }

// Decision — эфемерный результат клика. Живет ровно один вызов обработчика,
// никуда не сохраняется.
type Decision struct {
	Approver string // Slack user ID менеджера, нажавшего кнопку
	Outcome  Outcome
	Request  LeaveRequest
}

// ReviewState — явный конечный автомат поверх неявного представления:
// у Slack нет поля статуса, статус читается из формы самого сообщения.
type ReviewState string

const (
	StatePending ReviewState = "PENDING"
	StateDecided ReviewState = "DECIDED"
)

// ReviewStateOf выводит состояние из блоков сообщения: пока висит actions-блок
// с кнопками — запрос ожидает решения. Инвариант "обе кнопки или ни одной"
// обеспечивают билдеры блоков, поэтому одного наличия блока достаточно.
func ReviewStateOf(blocks []slack.Block) ReviewState {
	for _, b := range blocks {
		if b.BlockType() == slack.MBTAction {
			return StatePending
		}
	}
	return StateDecided
}
