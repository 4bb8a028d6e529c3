package engine

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/xela07ax/slack-leave-gateway/internal/connectors"
)

func slashRequest(command string) *http.Request {
	form := url.Values{}
	form.Set("command", command)
	form.Set("trigger_id", "T_123")
	form.Set("channel_id", "C_ORIGIN")
	form.Set("user_id", "U1")

	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHandleSlashCommand_OpensLeaveForm(t *testing.T) {
	mock := connectors.NewMockMessenger()
	core := newTestCore(mock)

	rr := httptest.NewRecorder()
	core.HandleSlashCommand(rr, slashRequest("/leave-me"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	opens := mock.CallsTo("OpenModal")
	if len(opens) != 1 {
		t.Fatalf("expected 1 modal open, got %d", len(opens))
	}
	if opens[0].User != "T_123" {
		t.Fatalf("modal opened with wrong trigger id %q", opens[0].User)
	}
	// Канал происхождения уходит в private_metadata формы
	if opens[0].Text != "C_ORIGIN" {
		t.Fatalf("origin channel not attached to form: %q", opens[0].Text)
	}
}

func TestHandleSlashCommand_ForeignCommandIgnored(t *testing.T) {
	mock := connectors.NewMockMessenger()
	core := newTestCore(mock)

	rr := httptest.NewRecorder()
	core.HandleSlashCommand(rr, slashRequest("/lunch"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if calls := mock.Calls(); len(calls) != 0 {
		t.Fatalf("foreign command must make zero API calls, got %v", calls)
	}
}

func TestHandleInteraction_UnknownTypeAcked(t *testing.T) {
	mock := connectors.NewMockMessenger()
	core := newTestCore(mock)

	form := url.Values{}
	form.Set("payload", `{"type":"shortcut"}`)
	req := httptest.NewRequest(http.MethodPost, "/slack/interaction", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	core.HandleInteraction(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if calls := mock.Calls(); len(calls) != 0 {
		t.Fatalf("unknown callback type must make zero API calls, got %v", calls)
	}
}

func TestHandleInteraction_MissingPayload(t *testing.T) {
	mock := connectors.NewMockMessenger()
	core := newTestCore(mock)

	req := httptest.NewRequest(http.MethodPost, "/slack/interaction", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	core.HandleInteraction(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
