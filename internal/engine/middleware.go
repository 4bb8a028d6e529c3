package engine

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey string

const traceIDKey ctxKey = "trace_id"

// TracingMiddleware инициализирует Trace-ID для каждого вебхука
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Пытаемся достать ID из заголовка (если пришел от прокси)
		traceID := r.Header.Get("X-Trace-ID")

		// 2. Если его нет — генерируем новый
		if traceID == "" {
			traceID = uuid.New().String()
		}

		// 3. Кладем в контекст
		ctx := context.WithValue(r.Context(), traceIDKey, traceID)

		// 4. Добавляем в ответ, чтобы клиент тоже знал ID своего запроса
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractTraceID помогает безопасно достать ID в любом месте кода
func extractTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return "00000000-0000-0000-0000-000000000000" // Fallback
}

// VerifySlackSignature — ворота аутентичности. Стоят ПЕРЕД любым парсингом
// payload: подпись HMAC-SHA256 плюс свежесть таймстампа (окно 5 минут внутри
// slack-go, защита от replay). Выключателя нет намеренно.
func VerifySlackSignature(signingSecret string, logger *zap.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "failed to read body", http.StatusBadRequest)
				return
			}
			_ = r.Body.Close()

			// NewSecretsVerifier сам отклонит отсутствующие заголовки
			// и протухший X-Slack-Request-Timestamp
			verifier, err := slack.NewSecretsVerifier(r.Header, signingSecret)
			if err == nil {
				if _, werr := verifier.Write(body); werr == nil {
					err = verifier.Ensure()
				} else {
					err = werr
				}
			}
			if err != nil {
				metrics.AuthFailures.Inc()
				logger.Warn("webhook signature rejected",
					zap.Error(err),
					zap.String("trace_id", extractTraceID(r.Context())))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Тело уже вычитано — возвращаем его обработчикам
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
