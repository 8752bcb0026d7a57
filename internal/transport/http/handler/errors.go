package handler

import (
	"errors"
	"net/http"

	"github.com/ErlanBelekov/account-model/internal/domain"
)

const (
	errInternalServer     = "Internal server error"
	errForbidden          = "Forbidden"
	errProviderFailure    = "Provider rejected the request"
	errChannelUnavailable = "No provider configured for this contact or payment method"
)

// errorStatus maps domain errors to an HTTP status and client-safe message.
// ok is false for errors the handler should log and answer with fallback.
func errorStatus(err error) (status int, message string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, domain.ErrUserNotFound.Error(), true

	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrUserBusy):
		return http.StatusConflict, rootMessage(err), true

	case errors.Is(err, domain.ErrEmailNotVerified),
		errors.Is(err, domain.ErrNotAnEmailContact),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrEmptyUsername),
		errors.Is(err, domain.ErrMissingContactInfo),
		errors.Is(err, domain.ErrMissingPaymentMethod),
		errors.Is(err, domain.ErrUnknownPaymentMethod):
		return http.StatusUnprocessableEntity, rootMessage(err), true

	case errors.Is(err, domain.ErrChannelUnavailable),
		errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, errChannelUnavailable, true
	}
	return 0, "", false
}

var knownErrors = []error{
	domain.ErrUserExists,
	domain.ErrVersionConflict,
	domain.ErrUserBusy,
	domain.ErrEmailNotVerified,
	domain.ErrNotAnEmailContact,
	domain.ErrTokenInvalid,
	domain.ErrEmptyUsername,
	domain.ErrMissingContactInfo,
	domain.ErrMissingPaymentMethod,
	domain.ErrUnknownPaymentMethod,
}

// rootMessage returns the sentinel's text without the wrapping context,
// which may carry internal detail.
func rootMessage(err error) string {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
