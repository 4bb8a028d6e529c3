package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/xela07ax/slack-leave-gateway/internal/infra"
)

// Messenger — capability-набор внешнего коллеги (Slack Web API).
// Все наблюдаемые эффекты воркфлоу проходят через него; ядро не знает
// про HTTP-транспорт Slack и целиком тестируется на моке.
type Messenger interface {
	OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
	PostMessage(ctx context.Context, channelID string, blocks []slack.Block) (string, error)
	PostText(ctx context.Context, channelID, text string) (string, error)
	PostThreadReply(ctx context.Context, channelID, threadTS, text string) error
	PostEphemeral(ctx context.Context, channelID, userID, text string) error
	AddReaction(ctx context.Context, channelID, ts, name string) error
	UpdateMessage(ctx context.Context, channelID, ts string, blocks []slack.Block) error
	GetPermalink(ctx context.Context, channelID, ts string) (string, error)
	GetMessage(ctx context.Context, channelID, ts string) (*slack.Message, error)
}

// Core — движок воркфлоу согласования отпусков. Внутреннего мутабельного
// состояния нет: каждый вебхук обрабатывается независимо, все "хранение"
// делегировано самим сообщениям Slack.
type Core struct {
	messenger Messenger
	slackCfg  *infra.SlackConfig
	logger    *zap.Logger
	metrics   *Metrics
}

func NewCore(m Messenger, cfg *infra.SlackConfig, logger *zap.Logger, metrics *Metrics) *Core {
	return &Core{
		messenger: m,
		slackCfg:  cfg,
		logger:    logger.Named("engine"),
		metrics:   metrics,
	}
}

// HandleSlashCommand открывает модалку по /leave-me. Канал, из которого
// позвали команду, сразу прячем в private_metadata формы — туда вернется
// эфемерный ack после сабмита.
func (c *Core) HandleSlashCommand(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		c.metrics.HandlerDuration.WithLabelValues("slash_command").Observe(time.Since(start).Seconds())
	}()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		http.Error(w, "bad slash command payload", http.StatusBadRequest)
		return
	}
	c.metrics.WebhooksTotal.WithLabelValues("slash_command").Inc()

	if cmd.Command != CommandLeave {
		// Чужая команда — молча подтверждаем, Slack сам покажет "ничего"
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := c.messenger.OpenModal(r.Context(), cmd.TriggerID, LeaveFormView(cmd.ChannelID)); err != nil {
		c.metrics.SlackAPIErrors.WithLabelValues("views.open").Inc()
		c.logger.Error("failed to open leave form",
			zap.Error(err),
			zap.String("user", cmd.UserID),
			zap.String("trace_id", extractTraceID(r.Context())))
	}
	w.WriteHeader(http.StatusOK)
}

// HandleInteraction разбирает интерактивный коллбэк. Формы payload'а
// структурно разные по типу — диспетчеризуемся по тегу, а не щупаем
// одну рыхлую структуру.
func (c *Core) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		c.metrics.HandlerDuration.WithLabelValues("interaction").Observe(time.Since(start).Seconds())
	}()

	raw := r.FormValue("payload")
	if raw == "" {
		http.Error(w, "missing payload", http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(raw), &callback); err != nil {
		http.Error(w, "bad interaction payload", http.StatusBadRequest)
		return
	}
	c.metrics.WebhooksTotal.WithLabelValues(string(callback.Type)).Inc()

	switch callback.Type {
	case slack.InteractionTypeViewSubmission:
		c.handleSubmission(w, r.Context(), &callback)
	case slack.InteractionTypeBlockActions:
		c.handleDecision(w, r.Context(), &callback)
	default:
		// Неизвестные типы подтверждаем без обработки
		w.WriteHeader(http.StatusOK)
	}
}
