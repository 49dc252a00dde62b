// Package settings persists the application settings record: the ordered
// site list, the selected site index and the idle-timer preference.
package settings

import (
	"errors"
	"fmt"

	"github.com/nothingonline/nightscouter-settings/sites"
)

// Backend keys. These are shared with previously stored data and must not
// change.
const (
	SitesKey                  = "userSites"
	CurrentSiteIndexKey       = "currentSiteIndex"
	ShouldDisableIdleTimerKey = "shouldDisableIdleTimer"
)

var (
	// ErrIndexOutOfRange is returned when deleting at an index outside the
	// site list.
	ErrIndexOutOfRange = errors.New("site index out of range")
	// ErrFlush is returned when a mutation could not be made durable. The
	// mutation is kept in memory.
	ErrFlush = errors.New("failed to save settings")
)

// Record is a snapshot of all settings.
type Record struct {
	Sites             []sites.Site
	CurrentSiteIndex  int
	IdleTimerDisabled bool
}

func (r Record) String() string {
	return fmt.Sprintf("Sites: %d, CurrentSiteIndex: %d, IdleTimerDisabled: %t", len(r.Sites), r.CurrentSiteIndex, r.IdleTimerDisabled)
}

// Convert to JSON version
func (r Record) ToJSON() RecordJSON {
	list := r.Sites
	if list == nil {
		list = []sites.Site{}
	}
	return RecordJSON{
		Sites:             list,
		CurrentSiteIndex:  r.CurrentSiteIndex,
		IdleTimerDisabled: r.IdleTimerDisabled,
	}
}

type RecordJSON struct {
	Sites             []sites.Site `json:"sites"`
	CurrentSiteIndex  int          `json:"currentSiteIndex"`
	IdleTimerDisabled bool         `json:"idleTimerDisabled"`
}
