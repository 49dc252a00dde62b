// Package handlers provides HTTP handlers for the settings admin API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apierrors "github.com/nothingonline/nightscouter-settings/errors"
	"github.com/nothingonline/nightscouter-settings/settings"
	log "github.com/sirupsen/logrus"
)

// FlushHeader is set to "failed" when a mutation was applied but could not
// be made durable.
const FlushHeader = "X-Settings-Flush"

var (
	EmptyBodyError   = &apierrors.RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("empty body")}
	InvalidBodyError = &apierrors.RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid body")}
)

// handleError is a helper function for unified HTTP error handling.
func handleError(rw http.ResponseWriter, r *http.Request, err error) {
	fields := log.Fields{"error": err}
	if r != nil {
		fields["path"] = r.URL.Path
	}

	var reqErr *apierrors.RequestError
	switch {
	case errors.As(err, &reqErr):
		log.WithFields(fields).Debug("Bad request")
		http.Error(rw, reqErr.Error(), reqErr.StatusCode)
	case errors.Is(err, settings.ErrIndexOutOfRange):
		log.WithFields(fields).Debug("Bad request")
		http.Error(rw, err.Error(), http.StatusBadRequest)
	default:
		// Do not send data regarding the error
		log.WithFields(fields).Warn("Error while handling request")
		http.Error(rw, "Error", http.StatusInternalServerError)
	}
}

// handleJsonResponse is a helper function for unified JSON response handling.
func handleJsonResponse(rw http.ResponseWriter, status int, res interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if res == nil {
		return
	}
	if err := json.NewEncoder(rw).Encode(res); err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Error while encoding response")
	}
}

// handleMutationResult reports whether the request may continue after a
// settings mutation returned err. Flush failures only mark the response.
func handleMutationResult(rw http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, settings.ErrFlush) {
		rw.Header().Set(FlushHeader, "failed")
		return true
	}
	handleError(rw, r, err)
	return false
}

func checkNonEmptyBody(r *http.Request) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return EmptyBodyError
	}
	return nil
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := checkNonEmptyBody(r); err != nil {
		return err
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return InvalidBodyError
	}
	return nil
}
