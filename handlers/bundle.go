package handlers

import (
	"net/http"

	"github.com/nothingonline/nightscouter-settings/bundle"
)

type BundleJSON struct {
	BundleIdentifier *string  `json:"bundleIdentifier"`
	SupportedSchemes []string `json:"supportedSchemes"`
}

// Bundle reports the host application bundle metadata. Missing values are
// null.
func Bundle(info bundle.Info) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		res := BundleJSON{}

		if id, ok := info.BundleIdentifier(); ok {
			res.BundleIdentifier = &id
		}

		if schemes, ok := info.SupportedSchemes(); ok {
			res.SupportedSchemes = schemes
		}

		handleJsonResponse(rw, http.StatusOK, res)
	})
}
