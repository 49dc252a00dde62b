package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	apierrors "github.com/nothingonline/nightscouter-settings/errors"
	"github.com/nothingonline/nightscouter-settings/settings"
	"github.com/nothingonline/nightscouter-settings/sites"
)

// Sites is a HTTP server for the ordered site list.
// Every successful request responds with the resulting list.
type Sites struct {
	service *settings.Service
}

func NewSites(service *settings.Service) *Sites {
	return &Sites{service}
}

func (s *Sites) List() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		s.respondList(rw)
	})
}

// Replace replaces the whole list.
func (s *Sites) Replace() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var list []sites.Site
		if err := decodeBody(r, &list); err != nil {
			handleError(rw, r, err)
			return
		}

		for _, site := range list {
			if err := validateSite(site); err != nil {
				handleError(rw, r, err)
				return
			}
		}

		if !handleMutationResult(rw, r, s.service.SetSites(list)) {
			return
		}

		s.respondList(rw)
	})
}

// Add appends a site, or inserts it at the optional "index" query parameter.
// An index past the end of the list is ignored.
func (s *Sites) Add() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var index *int
		if raw := r.URL.Query().Get("index"); raw != "" {
			i, err := strconv.Atoi(raw)
			if err != nil {
				handleError(rw, r, apierrors.BadRequest("invalid index %q", raw))
				return
			}
			index = &i
		}

		var site sites.Site
		if err := decodeBody(r, &site); err != nil {
			handleError(rw, r, err)
			return
		}

		if err := validateSite(site); err != nil {
			handleError(rw, r, err)
			return
		}

		if !handleMutationResult(rw, r, s.service.AddSite(site, index)) {
			return
		}

		s.respondList(rw)
	})
}

// Update replaces the first site equal to the request body.
func (s *Sites) Update() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var site sites.Site
		if err := decodeBody(r, &site); err != nil {
			handleError(rw, r, err)
			return
		}

		updated, err := s.service.UpdateSite(site)
		if !handleMutationResult(rw, r, err) {
			return
		}

		if !updated {
			handleError(rw, r, apierrors.NotFound("site not found"))
			return
		}

		s.respondList(rw)
	})
}

// Delete removes the site at the "index" path variable.
func (s *Sites) Delete() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		raw := mux.Vars(r)["index"]
		index, err := strconv.Atoi(raw)
		if err != nil {
			handleError(rw, r, apierrors.BadRequest("invalid index %q", raw))
			return
		}

		if !handleMutationResult(rw, r, s.service.DeleteSiteAtIndex(index)) {
			return
		}

		s.respondList(rw)
	})
}

// LoadSample replaces the list with the demonstration site.
func (s *Sites) LoadSample() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !handleMutationResult(rw, r, s.service.LoadSampleSites()) {
			return
		}

		s.respondList(rw)
	})
}

func (s *Sites) respondList(rw http.ResponseWriter) {
	list := s.service.Sites()
	if list == nil {
		list = []sites.Site{}
	}
	handleJsonResponse(rw, http.StatusOK, list)
}

func validateSite(site sites.Site) error {
	if _, err := sites.New(site.URL); err != nil {
		return apierrors.BadRequest("%s", err)
	}
	return nil
}
