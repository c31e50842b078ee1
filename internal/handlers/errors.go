package handlers

import (
	"net/http"
	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

const serverErrorMessage = "Server Error"

// handleError отвечает клиенту по ошибке сервиса. Бизнес-ошибки
// отображаются в статус, всё остальное логируется и уходит как 500.
func handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, serverErrorMessage)
}

func handleBusinessError(w http.ResponseWriter, err error) bool {
	businessErr, ok := service.AsBusinessError(err)
	if !ok {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	if businessErr.Code == service.CodeValidation {
		field, _ := businessErr.Details["field"].(string)
		reason, _ := businessErr.Details["reason"].(string)
		responseWithValidation(w, []FieldError{{Field: field, Message: reason}})
		return true
	}

	responseWithError(w, statusCode, businessErr.Message)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation, service.CodeEmailTaken:
		return http.StatusBadRequest
	case service.CodeInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func responseWithValidation(w http.ResponseWriter, errs []FieldError) {
	responseWithError(w, http.StatusBadRequest, "Validation failed", toPayload("errors", errs))
}
