package helpers

import (
	"encoding/json"
	"net/http"

	"sessionauth/internal/apperr"
	"sessionauth/internal/logger"

	"go.uber.org/zap"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

const genericMessage = "something went wrong"

type Response struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Log.Warn("не удалось записать ответ", zap.Error(err))
	}
}

func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Response{Status: StatusSuccess, Data: data})
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Response{Status: StatusSuccess, Message: msg})
}

// Error переводит ошибку в HTTP-ответ: вид ошибки задаёт код и безопасный текст.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()

	msg := genericMessage
	if ae, ok := apperr.As(err); ok && kind.Exposed() && ae.Message != "" {
		msg = ae.Message
	}

	log := logger.WithCtx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("ошибка обработки запроса",
			zap.String("kind", kind.String()),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	} else {
		log.Debug("запрос отклонён",
			zap.String("kind", kind.String()),
			zap.String("path", r.URL.Path),
			zap.String("reason", msg))
	}

	st := StatusFail
	if status >= http.StatusInternalServerError {
		st = StatusError
	}
	JSON(w, status, Response{Status: st, Message: msg})
}
