package connectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/slack-go/slack"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// SlackAdapter оборачивает Slack Web API в capability-набор движка.
// Надежность (Retries, Circuit Breaker, Rate Limiter) встроена прямо сюда:
// поверхность из девяти методов декоратором оборачивать неудобно, поэтому
// каждый вызов проходит через общий do().
type SlackAdapter struct {
	client  *slack.Client
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewSlackAdapter(client *slack.Client) *SlackAdapter {
	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "slack-web-api",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Если более 5 ошибок подряд — открываемся (блокируем трафик)
			return counts.ConsecutiveFailures > 5
		},
	})

	// Tier-3 методы Slack (chat.postMessage и родня) живут около 50 rps
	limiter := rate.NewLimiter(rate.Limit(20), 10)

	return &SlackAdapter{
		client:  client,
		cb:      cb,
		limiter: limiter,
	}
}

// do — общий конвейер надежности: Limiter -> Circuit Breaker -> Retry.
func (a *SlackAdapter) do(ctx context.Context, fn func(ctx context.Context) error) error {
	// 1. Rate Limiter
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	// 2. Circuit Breaker
	_, err := a.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
			// Умный расчет задержки
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Slack прислал Retry-After — ждем ровно столько
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}

				// В остальных случаях (сетевой лаг, 500-ка) — стандартный экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return mapThrottle(fn(tCtx))
		})

		return nil, retryErr
	})

	return err
}

// mapThrottle переводит 429 от slack-go в ThrottleError для ретрая.
func mapThrottle(err error) error {
	var rle *slack.RateLimitedError
	if errors.As(err, &rle) {
		return &ThrottleError{RetryAfter: rle.RetryAfter, Cause: err}
	}
	return err
}

func (a *SlackAdapter) OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	return a.do(ctx, func(ctx context.Context) error {
		_, err := a.client.OpenViewContext(ctx, triggerID, view)
		return err
	})
}

func (a *SlackAdapter) PostMessage(ctx context.Context, channelID string, blocks []slack.Block) (string, error) {
	var ts string
	err := a.do(ctx, func(ctx context.Context) error {
		var postErr error
		_, ts, postErr = a.client.PostMessageContext(ctx, channelID, slack.MsgOptionBlocks(blocks...))
		return postErr
	})
	return ts, err
}

func (a *SlackAdapter) PostText(ctx context.Context, channelID, text string) (string, error) {
	var ts string
	err := a.do(ctx, func(ctx context.Context) error {
		var postErr error
		_, ts, postErr = a.client.PostMessageContext(ctx, channelID,
			slack.MsgOptionText(text, false),
			slack.MsgOptionDisableLinkUnfurl())
		return postErr
	})
	return ts, err
}

func (a *SlackAdapter) PostThreadReply(ctx context.Context, channelID, threadTS, text string) error {
	return a.do(ctx, func(ctx context.Context) error {
		_, _, err := a.client.PostMessageContext(ctx, channelID,
			slack.MsgOptionText(text, false),
			slack.MsgOptionTS(threadTS))
		return err
	})
}

func (a *SlackAdapter) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	return a.do(ctx, func(ctx context.Context) error {
		_, err := a.client.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false))
		return err
	})
}

func (a *SlackAdapter) AddReaction(ctx context.Context, channelID, ts, name string) error {
	return a.do(ctx, func(ctx context.Context) error {
		return a.client.AddReactionContext(ctx, name, slack.NewRefToMessage(channelID, ts))
	})
}

func (a *SlackAdapter) UpdateMessage(ctx context.Context, channelID, ts string, blocks []slack.Block) error {
	return a.do(ctx, func(ctx context.Context) error {
		_, _, _, err := a.client.UpdateMessageContext(ctx, channelID, ts, slack.MsgOptionBlocks(blocks...))
		return err
	})
}

func (a *SlackAdapter) GetPermalink(ctx context.Context, channelID, ts string) (string, error) {
	var link string
	err := a.do(ctx, func(ctx context.Context) error {
		var linkErr error
		link, linkErr = a.client.GetPermalinkContext(ctx, &slack.PermalinkParameters{
			Channel: channelID,
			Ts:      ts,
		})
		return linkErr
	})
	return link, err
}

// GetMessage читает текущее состояние одного сообщения. Нужен guard'у решений:
// перед мутацией мы смотрим, не убраны ли уже кнопки.
func (a *SlackAdapter) GetMessage(ctx context.Context, channelID, ts string) (*slack.Message, error) {
	var msg *slack.Message
	err := a.do(ctx, func(ctx context.Context) error {
		resp, histErr := a.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Latest:    ts,
			Inclusive: true,
			Limit:     1,
		})
		if histErr != nil {
			return histErr
		}
		if len(resp.Messages) == 0 {
			return fmt.Errorf("message %s not found in %s", ts, channelID)
		}
		msg = &resp.Messages[0]
		return nil
	})
	return msg, err
}
