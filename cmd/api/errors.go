package main

import (
	"net/http"

	"stash/internal/payments"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

// paymentErrorResponse maps the payments error taxonomy onto HTTP
// statuses: caller mistakes are 4xx, upstream provider failures are
// 502, everything else is a plain 500.
func (app *application) paymentErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch payments.ErrorCodeOf(err) {
	case payments.ErrCodeMissingRequiredField,
		payments.ErrCodeUnsupportedCurrency,
		payments.ErrCodeInvalidProviderData,
		payments.ErrCodeInvalidAmount:
		app.badRequestResponse(w, r, err)
	case payments.ErrCodeInvalidSignature:
		app.logger.Warnw("signature rejected", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case payments.ErrCodeUnsupportedCapability:
		app.logger.Warnw("unsupported capability", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case payments.ErrCodeProvider:
		app.logger.Errorw("provider error", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		app.internalServerError(w, r, err)
	}
}
