package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func signBody(secret, timestamp, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func gatedHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	gate := VerifySlackSignature(testSigningSecret, zap.NewNop(), NewMetrics(nil))
	return gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestVerifySlackSignature_MissingHeaders(t *testing.T) {
	called := false
	h := gatedHandler(t, &called)

	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader("command=/leave-me"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if called {
		t.Fatal("handler must not run behind a failed gate")
	}
}

func TestVerifySlackSignature_BadSignature(t *testing.T) {
	called := false
	h := gatedHandler(t, &called)

	body := "command=/leave-me"
	ts := fmt.Sprint(time.Now().Unix())
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized || called {
		t.Fatalf("forged signature must be rejected: code=%d called=%v", rr.Code, called)
	}
}

func TestVerifySlackSignature_StaleTimestamp(t *testing.T) {
	called := false
	h := gatedHandler(t, &called)

	// Подпись валидна, но таймстамп за пределами окна свежести (replay)
	body := "command=/leave-me"
	ts := fmt.Sprint(time.Now().Add(-10 * time.Minute).Unix())
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", signBody(testSigningSecret, ts, body))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized || called {
		t.Fatalf("stale timestamp must be rejected: code=%d called=%v", rr.Code, called)
	}
}

func TestVerifySlackSignature_ValidRequestPassesBodyThrough(t *testing.T) {
	var seenBody string
	gate := VerifySlackSignature(testSigningSecret, zap.NewNop(), NewMetrics(nil))
	h := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Тело должно быть читаемо после проверки подписи
		if err := r.ParseForm(); err != nil {
			t.Fatalf("body not restored: %v", err)
		}
		seenBody = r.FormValue("command")
		w.WriteHeader(http.StatusOK)
	}))

	body := "command=/leave-me"
	ts := fmt.Sprint(time.Now().Unix())
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", signBody(testSigningSecret, ts, body))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("valid request rejected: %d", rr.Code)
	}
	if seenBody != "/leave-me" {
		t.Fatalf("downstream handler saw wrong body: %q", seenBody)
	}
}
