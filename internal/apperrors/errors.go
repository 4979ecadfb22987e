package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError - невалидные входные данные, запрос к внешнему API не выполняется
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError - ресурс отсутствует и во внешнем API, и локально
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ExternalAPIError - таймаут/5xx/сетевая ошибка внешнего API
type ExternalAPIError struct {
	API        string
	StatusCode int
	Message    string
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.API, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.API, e.Message)
}

func NewExternalAPI(api, message string, statusCode int) *ExternalAPIError {
	return &ExternalAPIError{API: api, Message: message, StatusCode: statusCode}
}

// RateLimitError - внешний API ограничил запросы, несет подсказку о времени сброса
type RateLimitError struct {
	API     string
	ResetAt *time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt != nil {
		return fmt.Sprintf("%s API rate limit exceeded, resets at %s", e.API, e.ResetAt.Format(time.RFC3339))
	}
	return e.API + " API rate limit exceeded"
}

// ConflictError - дубликат (например, повторное добавление в избранное)
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ConfigurationError - отсутствуют обязательные настройки (фатально при старте)
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + e.Key
}

// IsUnavailable сообщает, что ошибка ретрируемая и допускает выдачу устаревшего кэша
func IsUnavailable(err error) bool {
	var apiErr *ExternalAPIError
	var rateErr *RateLimitError
	return errors.As(err, &apiErr) || errors.As(err, &rateErr)
}

func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func IsConflict(err error) bool {
	var cErr *ConflictError
	return errors.As(err, &cErr)
}

func IsRateLimited(err error) bool {
	var rErr *RateLimitError
	return errors.As(err, &rErr)
}
