package engine

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/xela07ax/slack-leave-gateway/internal/domain"
	"github.com/xela07ax/slack-leave-gateway/internal/token"
)

// handleDecision обрабатывает block_actions по кнопкам Approve/Reject.
// Битый токен — постоянный отказ: логируем, отвечаем not-found, ни одного
// вызова Slack. Ретраить тут нечего.
func (c *Core) handleDecision(w http.ResponseWriter, ctx context.Context, cb *slack.InteractionCallback) {
	for _, action := range cb.ActionCallback.BlockActions {
		var outcome domain.Outcome
		switch action.ActionID {
		case ActionApprove:
			outcome = domain.OutcomeApproved
		case ActionReject:
			outcome = domain.OutcomeRejected
		default:
			continue
		}

		req, err := token.Decode(action.Value)
		if err != nil {
			c.metrics.TokenDecodeFailures.Inc()
			c.logger.Warn("undecodable decision token",
				zap.Error(err),
				zap.String("action", action.ActionID),
				zap.String("trace_id", extractTraceID(ctx)))
			http.Error(w, "unknown leave request", http.StatusNotFound)
			return
		}

		c.applyDecision(ctx, domain.Decision{
			Approver: cb.User.ID,
			Outcome:  outcome,
			Request:  req,
		}, cb.Message.Timestamp)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Коллбэк без наших кнопок — подтверждаем и забываем
	w.WriteHeader(http.StatusOK)
}

// applyDecision проводит переход Pending -> Decided.
// Порядок шагов намеренный: реакция и тред раньше перезаписи, чтобы при
// упавшей перезаписи решение все равно осталось видимым. Шаги независимы —
// ошибка каждого логируется, остальные продолжаются.
func (c *Core) applyDecision(ctx context.Context, dec domain.Decision, ts string) {
	channel := c.slackCfg.LeavesChannel
	traceID := extractTraceID(ctx)

	// 0. Guard двойного решения: читаем текущую форму сообщения.
	// Кнопки уже сняты — второй клик проиграл гонку, выходим без эффектов.
	// Окно fetch->update остается (у Slack нет CAS на сообщениях).
	current, err := c.messenger.GetMessage(ctx, channel, ts)
	if err != nil {
		// Guard не смог прочитать состояние — идем дальше, это деградация
		// до поведения без guard'а, а не повод потерять решение
		c.metrics.SlackAPIErrors.WithLabelValues("conversations.history").Inc()
		c.logger.Warn("decided-state check failed, proceeding unguarded",
			zap.Error(err), zap.String("ts", ts), zap.String("trace_id", traceID))
	} else if domain.ReviewStateOf(current.Blocks.BlockSet) == domain.StateDecided {
		c.metrics.DuplicateDecisions.Inc()
		c.logger.Info("request already decided, dropping decision",
			zap.String("approver", dec.Approver),
			zap.String("outcome", string(dec.Outcome)),
			zap.String("ts", ts),
			zap.String("trace_id", traceID))
		return
	}

	c.metrics.DecisionsTotal.WithLabelValues(string(dec.Outcome)).Inc()

	// 1. Реакция-маркер исхода
	if err := c.messenger.AddReaction(ctx, channel, ts, dec.Outcome.Reaction()); err != nil {
		c.metrics.SlackAPIErrors.WithLabelValues("reactions.add").Inc()
		c.logger.Error("failed to add reaction", zap.Error(err), zap.String("trace_id", traceID))
	}

	// 2. Тред: кто и как решил
	reply := fmt.Sprintf("<@%s> has *%s* this request for leave.", dec.Approver, dec.Outcome.Verb())
	if err := c.messenger.PostThreadReply(ctx, channel, ts, reply); err != nil {
		c.metrics.SlackAPIErrors.WithLabelValues("chat.postMessage").Inc()
		c.logger.Error("failed to post decision reply", zap.Error(err), zap.String("trace_id", traceID))
	}

	// 3. Личное уведомление заявителю — поля из токена, не из Slack
	dm := fmt.Sprintf("Your request for leave from *%s* to *%s* has been *%s* by <@%s>.",
		dec.Request.FromLabel(), dec.Request.UntilLabel(), dec.Outcome.Verb(), dec.Approver)
	if _, err := c.messenger.PostText(ctx, dec.Request.Requester, dm); err != nil {
		c.metrics.SlackAPIErrors.WithLabelValues("chat.postMessage").Inc()
		c.logger.Error("failed to notify requester", zap.Error(err), zap.String("trace_id", traceID))
	}

	// 4. Снимаем кнопки: после этого ни одного живого токена не остается
	if err := c.messenger.UpdateMessage(ctx, channel, ts, ReviewMessageBlocks(dec.Request, domain.StateDecided)); err != nil {
		c.metrics.SlackAPIErrors.WithLabelValues("chat.update").Inc()
		c.logger.Error("failed to strip decision controls", zap.Error(err), zap.String("trace_id", traceID))
	}

	c.logger.Info("leave decision applied",
		zap.String("requester", dec.Request.Requester),
		zap.String("approver", dec.Approver),
		zap.String("outcome", string(dec.Outcome)),
		zap.String("ts", ts),
		zap.String("trace_id", traceID))
}
