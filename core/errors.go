package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	LifecycleErrorBadInput         = "RESTMOD_BAD_INPUT"
	LifecycleErrorResourceNotFound = "RESTMOD_RESOURCE_NOT_FOUND"
	LifecycleErrorTransportFailed  = "RESTMOD_TRANSPORT_FAILED"
	LifecycleErrorHookFailed       = "RESTMOD_HOOK_FAILED"
	LifecycleErrorInternal         = "RESTMOD_INTERNAL_ERROR"
)

func lifecycleErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureLifecycleErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return newLifecycleError(err.Error(), goerrors.CategoryNotFound, LifecycleErrorResourceNotFound)
	case strings.Contains(msg, "transport:"):
		return newLifecycleError(err.Error(), goerrors.CategoryExternal, LifecycleErrorTransportFailed)
	case strings.Contains(msg, "hook"), strings.Contains(msg, "listener"):
		return newLifecycleError(err.Error(), goerrors.CategoryOperation, LifecycleErrorHookFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newLifecycleError(err.Error(), goerrors.CategoryBadInput, LifecycleErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureLifecycleErrorEnvelope(mapped)
}

func newLifecycleError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureLifecycleErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureLifecycleErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = lifecycleHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultLifecycleTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultLifecycleTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return LifecycleErrorBadInput
	case goerrors.CategoryNotFound:
		return LifecycleErrorResourceNotFound
	case goerrors.CategoryExternal:
		return LifecycleErrorTransportFailed
	case goerrors.CategoryOperation:
		return LifecycleErrorHookFailed
	default:
		return LifecycleErrorInternal
	}
}

func lifecycleHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
