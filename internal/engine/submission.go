package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/xela07ax/slack-leave-gateway/internal/domain"
	"github.com/xela07ax/slack-leave-gateway/internal/token"
)

// handleSubmission обрабатывает view_submission формы отпуска.
// Битые поля не порождают частичного состояния: ни одного вызова Slack,
// пользователь видит ошибки прямо в модалке (response_action: errors).
func (c *Core) handleSubmission(w http.ResponseWriter, ctx context.Context, cb *slack.InteractionCallback) {
	if cb.View.CallbackID != CallbackSubmitLeave {
		w.WriteHeader(http.StatusOK)
		return
	}

	req, fieldErrs := parseSubmission(cb)
	if len(fieldErrs) > 0 {
		c.metrics.MalformedSubmissions.Inc()
		c.logger.Warn("malformed leave submission",
			zap.Any("errors", fieldErrs),
			zap.String("user", cb.User.ID),
			zap.String("trace_id", extractTraceID(ctx)))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(slack.NewErrorsViewSubmissionResponse(fieldErrs))
		return
	}

	c.submitLeave(ctx, req, cb.View.PrivateMetadata)
	w.WriteHeader(http.StatusOK)
}

// parseSubmission достает поля из View.State.Values и собирает LeaveRequest.
// Ошибки ключуются block_id — так Slack подсветит конкретное поле формы.
func parseSubmission(cb *slack.InteractionCallback) (domain.LeaveRequest, map[string]string) {
	values := cb.View.State.Values
	fieldErrs := map[string]string{}

	var from, until time.Time
	if raw := values[blockFrom][inputFrom].SelectedDate; raw == "" {
		fieldErrs[blockFrom] = "Select the first day of leave."
	} else if parsed, err := time.Parse(domain.DateLayout, raw); err != nil {
		fieldErrs[blockFrom] = "Not a valid date."
	} else {
		from = parsed
	}
	if raw := values[blockUntil][inputUntil].SelectedDate; raw == "" {
		fieldErrs[blockUntil] = "Select the last day of leave."
	} else if parsed, err := time.Parse(domain.DateLayout, raw); err != nil {
		fieldErrs[blockUntil] = "Not a valid date."
	} else {
		until = parsed
	}

	// Радио имеет initial_option, но значение все равно не доверяем
	kind := domain.KindFullDay
	if raw := values[blockKind][inputKind].SelectedOption.Value; raw != "" {
		parsed, err := domain.ParseLeaveKind(raw)
		if err != nil {
			fieldErrs[blockKind] = "Pick full or half day."
		} else {
			kind = parsed
		}
	}

	// Отсутствие причины — не пустой контрол, а канонический плейсхолдер
	reason := strings.TrimSpace(values[blockReason][inputReason].Value)
	if reason == "" {
		reason = domain.NoReasonPlaceholder
	}

	req := domain.LeaveRequest{
		Requester: cb.User.ID,
		From:      from,
		Until:     until,
		Kind:      kind,
		Reason:    reason,
	}

	if len(fieldErrs) == 0 && from.After(until) {
		fieldErrs[blockUntil] = "Last date must not be before the first date."
	}
	return req, fieldErrs
}

// submitLeave выполняет наблюдаемые эффекты сабмита. Транзакции между
// вызовами Slack нет: упавший шаг логируется, независимые шаги продолжаются,
// отката уже отправленных сообщений не бывает.
func (c *Core) submitLeave(ctx context.Context, req domain.LeaveRequest, originChannel string) {
	traceID := extractTraceID(ctx)

	// 1. Сообщение в канал ревью с кнопками-близнецами
	ts, err := c.messenger.PostMessage(ctx, c.slackCfg.LeavesChannel, ReviewMessageBlocks(req, domain.StatePending))
	if err != nil {
		// Без сообщения нет ни ts, ни пермалинка — вся цепочка отменяется
		c.metrics.SlackAPIErrors.WithLabelValues("chat.postMessage").Inc()
		c.logger.Error("failed to post review message", zap.Error(err), zap.String("trace_id", traceID))
		return
	}

	// 2. Пермалинк для фан-аута менеджерам
	link, err := c.messenger.GetPermalink(ctx, c.slackCfg.LeavesChannel, ts)
	if err != nil {
		c.metrics.SlackAPIErrors.WithLabelValues("chat.getPermalink").Inc()
		c.logger.Error("failed to fetch permalink, skipping manager fan-out",
			zap.Error(err), zap.String("ts", ts), zap.String("trace_id", traceID))
	} else {
		// 3. Фан-аут: доставки независимы, падение одной не трогает остальные
		notice := fmt.Sprintf(
			"<@%s> has submitted a request for leave. Please <%s|click here> to approve/reject.",
			req.Requester, link)

		var wg sync.WaitGroup
		for _, manager := range c.slackCfg.Managers {
			wg.Add(1)
			go func(manager string) {
				defer wg.Done()
				if _, err := c.messenger.PostText(ctx, manager, notice); err != nil {
					c.metrics.SlackAPIErrors.WithLabelValues("chat.postMessage").Inc()
					c.logger.Error("failed to notify manager",
						zap.Error(err), zap.String("manager", manager), zap.String("trace_id", traceID))
				}
			}(manager)
		}
		wg.Wait()
	}

	// 4. Ack заявителю — отправляется независимо от судьбы фан-аута
	err = c.messenger.PostEphemeral(ctx, originChannel, req.Requester,
		"Your request for leave has been submitted for approval.")
	if err != nil {
		c.metrics.SlackAPIErrors.WithLabelValues("chat.postEphemeral").Inc()
		c.logger.Error("failed to ack requester", zap.Error(err), zap.String("trace_id", traceID))
	}
}

// ReviewMessageBlocks рендерит сообщение ревью для обоих состояний автомата.
// Pending и Decided отличаются ровно одним: наличием actions-блока, поэтому
// инвариант "обе кнопки или ни одной" обеспечен конструктивно.
func ReviewMessageBlocks(req domain.LeaveRequest, state domain.ReviewState) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(fmt.Sprintf(
			"<@%s> has submitted a request for leave from *%s* to *%s*.",
			req.Requester, req.FromLabel(), req.UntilLabel())), nil, nil),
		slack.NewSectionBlock(mrkdwn(fmt.Sprintf("*Full or half day:* %s", req.Kind.Label())), nil, nil),
		slack.NewSectionBlock(mrkdwn(fmt.Sprintf("*Reason:* _%s_", req.Reason)), nil, nil),
	}

	if state == domain.StatePending {
		// Оба токена побайтово идентичны, различаются только action_id
		encoded := token.Encode(req)

		approve := slack.NewButtonBlockElement(ActionApprove, encoded, plainText("Approve"))
		approve.Style = slack.StylePrimary
		approve.Confirm = slack.NewConfirmationBlockObject(
			plainText("Really?"),
			plainText("This will mark this request for leave as approved. It cannot be undone."),
			plainText("Approve"),
			plainText("Cancel"))

		reject := slack.NewButtonBlockElement(ActionReject, encoded, plainText("Reject"))
		reject.Style = slack.StyleDanger
		reject.Confirm = slack.NewConfirmationBlockObject(
			plainText("Really?"),
			plainText("This will mark this request for leave as rejected. It cannot be undone."),
			plainText("Reject"),
			plainText("Cancel"))

		blocks = append(blocks, slack.NewActionBlock(blockDecision, approve, reject))
	}

	return blocks
}
