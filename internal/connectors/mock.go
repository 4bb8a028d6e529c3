package connectors

import (
	"context"
	"sync"

	"github.com/slack-go/slack"
)

// MockCall — одна запись журнала вызовов мока.
type MockCall struct {
	Method  string
	Channel string
	TS      string
	User    string
	Text    string
	Blocks  []slack.Block
}

// MockMessenger пишет все вызовы в журнал и позволяет скриптовать отказы.
// Сценарии отказов задаются ключом "Метод" или "Метод:канал" (второй
// перекрывает первый — удобно ронять доставку одному конкретному менеджеру).
type MockMessenger struct {
	mu     sync.Mutex
	calls  []MockCall
	FailOn map[string]error

	PostTS    string         // ts, который вернет PostMessage/PostText
	Permalink string         // ссылка, которую вернет GetPermalink
	Message   *slack.Message // текущее состояние сообщения для GetMessage
}

func NewMockMessenger() *MockMessenger {
	return &MockMessenger{
		FailOn:    map[string]error{},
		PostTS:    "1700000000.000100",
		Permalink: "https://acme.slack.test/archives/C_LEAVES/p1700000000000100",
	}
}

func (m *MockMessenger) record(c MockCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailOn[c.Method+":"+c.Channel]; ok {
		return err
	}
	if err, ok := m.FailOn[c.Method]; ok {
		return err
	}
	m.calls = append(m.calls, c)
	return nil
}

// Calls возвращает копию журнала (фан-аут пишет из нескольких горутин).
func (m *MockMessenger) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallsTo фильтрует журнал по имени метода.
func (m *MockMessenger) CallsTo(method string) []MockCall {
	var out []MockCall
	for _, c := range m.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockMessenger) OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	return m.record(MockCall{Method: "OpenModal", User: triggerID, Text: view.PrivateMetadata})
}

func (m *MockMessenger) PostMessage(ctx context.Context, channelID string, blocks []slack.Block) (string, error) {
	if err := m.record(MockCall{Method: "PostMessage", Channel: channelID, Blocks: blocks}); err != nil {
		return "", err
	}
	return m.PostTS, nil
}

func (m *MockMessenger) PostText(ctx context.Context, channelID, text string) (string, error) {
	if err := m.record(MockCall{Method: "PostText", Channel: channelID, Text: text}); err != nil {
		return "", err
	}
	return m.PostTS, nil
}

func (m *MockMessenger) PostThreadReply(ctx context.Context, channelID, threadTS, text string) error {
	return m.record(MockCall{Method: "PostThreadReply", Channel: channelID, TS: threadTS, Text: text})
}

func (m *MockMessenger) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	return m.record(MockCall{Method: "PostEphemeral", Channel: channelID, User: userID, Text: text})
}

func (m *MockMessenger) AddReaction(ctx context.Context, channelID, ts, name string) error {
	return m.record(MockCall{Method: "AddReaction", Channel: channelID, TS: ts, Text: name})
}

func (m *MockMessenger) UpdateMessage(ctx context.Context, channelID, ts string, blocks []slack.Block) error {
	return m.record(MockCall{Method: "UpdateMessage", Channel: channelID, TS: ts, Blocks: blocks})
}

func (m *MockMessenger) GetPermalink(ctx context.Context, channelID, ts string) (string, error) {
	if err := m.record(MockCall{Method: "GetPermalink", Channel: channelID, TS: ts}); err != nil {
		return "", err
	}
	return m.Permalink, nil
}

func (m *MockMessenger) GetMessage(ctx context.Context, channelID, ts string) (*slack.Message, error) {
	if err := m.record(MockCall{Method: "GetMessage", Channel: channelID, TS: ts}); err != nil {
		return nil, err
	}
	return m.Message, nil
}
