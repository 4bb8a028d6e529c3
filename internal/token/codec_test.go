package token

import (
	"errors"
	"testing"
	"time"

	"github.com/xela07ax/slack-leave-gateway/internal/domain"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func TestRoundTrip(t *testing.T) {
	cases := map[string]domain.LeaveRequest{
		"plain": {
			Requester: "U123",
			From:      date(t, "2024-03-01"),
			Until:     date(t, "2024-03-05"),
			Kind:      domain.KindFullDay,
			Reason:    domain.NoReasonPlaceholder,
		},
		"pipe in reason": {
			Requester: "U123",
			From:      date(t, "2024-03-01"),
			Until:     date(t, "2024-03-01"),
			Kind:      domain.KindHalfDay,
			Reason:    "a|b",
		},
		"url metacharacters": {
			Requester: "U123",
			From:      date(t, "2024-12-24"),
			Until:     date(t, "2024-12-31"),
			Kind:      domain.KindFullDay,
			Reason:    "50% off & more = profit?",
		},
		"non-ascii": {
			Requester: "U123",
			From:      date(t, "2024-07-01"),
			Until:     date(t, "2024-07-14"),
			Kind:      domain.KindFullDay,
			Reason:    "отпуск у моря 🏖",
		},
		"newlines": {
			Requester: "U123",
			From:      date(t, "2024-05-02"),
			Until:     date(t, "2024-05-03"),
			Kind:      domain.KindHalfDay,
			Reason:    "line one\nline two",
		},
	}

	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(Encode(want))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if got != want {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestDecode_MissingField(t *testing.T) {
	// Токен без until: собран вручную, как если бы кто-то подделал кнопку
	_, err := Decode("user=U1&from=2024-03-01&kind=full&reason=x")

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Field != "until" {
		t.Fatalf("expected missing field %q, got %q", "until", decodeErr.Field)
	}
}

func TestDecode_BadDate(t *testing.T) {
	_, err := Decode("user=U1&from=not-a-date&until=2024-03-01&kind=full&reason=x")

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Field != "from" {
		t.Fatalf("expected field %q, got %q", "from", decodeErr.Field)
	}
}

func TestDecode_BadEncoding(t *testing.T) {
	if _, err := Decode("user=%zz"); err == nil {
		t.Fatal("expected error for invalid percent encoding")
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode("user=U1&from=2024-03-01&until=2024-03-02&kind=sabbatical&reason=x")

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Field != "kind" {
		t.Fatalf("expected field %q, got %q", "kind", decodeErr.Field)
	}
}

func TestDecode_EmptyRequester(t *testing.T) {
	if _, err := Decode("user=&from=2024-03-01&until=2024-03-02&kind=full&reason=x"); err == nil {
		t.Fatal("expected error for empty requester")
	}
}
