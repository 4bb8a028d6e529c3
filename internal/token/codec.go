// Package token кодирует LeaveRequest в opaque-строку для value кнопки.
// Slack-сообщение здесь работает как база данных: токен — единственное место,
// где состояние запроса переживает паузу между двумя вебхуками.
package token

import (
	"fmt"
	"net/url"
	"time"

	"github.com/xela07ax/slack-leave-gateway/internal/domain"
)

// Имена полей в закодированной строке.
const (
	fieldUser   = "user"
	fieldFrom   = "from"
	fieldUntil  = "until"
	fieldKind   = "kind"
	fieldReason = "reason"
)

// DecodeError — постоянный (не ретраябельный) отказ: токен либо битый, либо
// собран не нами. Обработчик решения обязан трактовать его как not-found.
type DecodeError struct {
	Field string
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("token: bad field %q: %v", e.Field, e.Cause)
	}
	return fmt.Sprintf("token: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Encode сериализует запрос в процентное (URL) кодирование.
// Каждое поле экранируется отдельно, поэтому произвольный текст причины —
// включая разделители вроде "|" и не-ASCII — проходит без потерь.
func Encode(req domain.LeaveRequest) string {
	v := url.Values{}
	v.Set(fieldUser, req.Requester)
	v.Set(fieldFrom, req.From.Format(domain.DateLayout))
	v.Set(fieldUntil, req.Until.Format(domain.DateLayout))
	v.Set(fieldKind, string(req.Kind))
	v.Set(fieldReason, req.Reason)
	return v.Encode()
}

// Decode восстанавливает запрос из токена. Любая неполнота — ошибка,
// молчаливых дефолтов нет: действовать по полупустому токену опаснее,
// чем отказать.
func Decode(s string) (domain.LeaveRequest, error) {
	v, err := url.ParseQuery(s)
	if err != nil {
		return domain.LeaveRequest{}, &DecodeError{Cause: err}
	}

	// 1. Сначала проверяем наличие всех полей — ошибка детерминированно
	// называет первое отсутствующее.
	for _, f := range []string{fieldUser, fieldFrom, fieldUntil, fieldKind, fieldReason} {
		if !v.Has(f) {
			return domain.LeaveRequest{}, &DecodeError{Field: f, Cause: fmt.Errorf("missing")}
		}
	}

	// 2. Потом парсим типизированные значения
	from, err := time.Parse(domain.DateLayout, v.Get(fieldFrom))
	if err != nil {
		return domain.LeaveRequest{}, &DecodeError{Field: fieldFrom, Cause: err}
	}
	until, err := time.Parse(domain.DateLayout, v.Get(fieldUntil))
	if err != nil {
		return domain.LeaveRequest{}, &DecodeError{Field: fieldUntil, Cause: err}
	}
	kind, err := domain.ParseLeaveKind(v.Get(fieldKind))
	if err != nil {
		return domain.LeaveRequest{}, &DecodeError{Field: fieldKind, Cause: err}
	}
	if v.Get(fieldUser) == "" {
		return domain.LeaveRequest{}, &DecodeError{Field: fieldUser, Cause: fmt.Errorf("empty")}
	}

	return domain.LeaveRequest{
		Requester: v.Get(fieldUser),
		From:      from,
		Until:     until,
		Kind:      kind,
		Reason:    v.Get(fieldReason),
	}, nil
}
