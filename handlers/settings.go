package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nothingonline/nightscouter-settings/settings"
	log "github.com/sirupsen/logrus"
)

// Settings is a HTTP server for the settings record.
type Settings struct {
	service *settings.Service
}

func NewSettings(service *settings.Service) *Settings {
	return &Settings{service}
}

type settingsUpdateJSON struct {
	CurrentSiteIndex  int  `json:"currentSiteIndex"`
	IdleTimerDisabled bool `json:"idleTimerDisabled"`
}

func (s *Settings) GetSettings() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		handleJsonResponse(rw, http.StatusOK, s.service.Settings().ToJSON())
	})
}

// SetSettings updates the current site index and the idle-timer preference.
// Fields missing from the request body keep their value.
func (s *Settings) SetSettings() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if err := checkNonEmptyBody(r); err != nil {
			handleError(rw, r, err)
			return
		}

		existing := s.service.Settings()
		update := settingsUpdateJSON{
			CurrentSiteIndex:  existing.CurrentSiteIndex,
			IdleTimerDisabled: existing.IdleTimerDisabled,
		}

		// Decode JSON over existing settings
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			handleError(rw, r, InvalidBodyError)
			return
		}

		if update.CurrentSiteIndex != existing.CurrentSiteIndex {
			err := s.service.SetCurrentSiteIndex(update.CurrentSiteIndex)
			if !handleMutationResult(rw, r, err) {
				return
			}
		}

		if update.IdleTimerDisabled != existing.IdleTimerDisabled {
			if update.IdleTimerDisabled {
				log.Debug("Idle timer disabled")
			} else {
				log.Debug("Idle timer enabled")
			}
			err := s.service.SetIdleTimerDisabled(update.IdleTimerDisabled)
			if !handleMutationResult(rw, r, err) {
				return
			}
		}

		handleJsonResponse(rw, http.StatusOK, s.service.Settings().ToJSON())
	})
}
