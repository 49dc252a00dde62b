package settings

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nothingonline/nightscouter-settings/datastore"
	"github.com/nothingonline/nightscouter-settings/sites"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Service owns the settings record and is the only writer of its keys.
//
// Every mutator persists the affected key and synchronizes the backend before
// returning. A failed synchronization is logged and returned wrapped in
// ErrFlush; the in-memory record keeps the change.
type Service struct {
	mu    sync.Mutex
	store datastore.KeyValueStore
	sites []sites.Site

	logger       *log.Logger
	flushLimiter ratelimit.Limiter
}

// NewService loads the stored site list from store. A missing or unreadable
// list yields an empty one; only a failing backend read is an error.
func NewService(store datastore.KeyValueStore, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("settings backend is nil")
	}

	svc := &Service{
		store:  store,
		logger: log.StandardLogger(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	bs, found, err := store.Get(SitesKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SitesKey, err)
	}

	if found {
		list, err := sites.Decode(bs)
		if err != nil {
			svc.logger.WithFields(log.Fields{"error": err}).Debug("Stored sites are unreadable, starting without sites")
		} else {
			svc.sites = list
		}
	}

	return svc, nil
}

// Sites returns a copy of the site list.
func (svc *Service) Sites() []sites.Site {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return copySites(svc.sites)
}

// SetSites replaces the whole site list.
func (svc *Service) SetSites(list []sites.Site) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.sites = copySites(list)
	return svc.saveSites()
}

// AddSite appends site when index is nil, otherwise inserts it at *index.
// An index outside [0, len] leaves the list untouched and is not an error.
func (svc *Service) AddSite(site sites.Site, index *int) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if index == nil {
		svc.sites = append(copySites(svc.sites), site)
		return svc.saveSites()
	}

	i := *index
	if i < 0 || i > len(svc.sites) {
		svc.logger.WithFields(log.Fields{"index": i, "count": len(svc.sites)}).Debug("Site index out of range, site not added")
		return nil
	}

	list := make([]sites.Site, 0, len(svc.sites)+1)
	list = append(list, svc.sites[:i]...)
	list = append(list, site)
	list = append(list, svc.sites[i:]...)
	svc.sites = list

	return svc.saveSites()
}

// UpdateSite replaces the first site equal to site with site. Lookup is by
// value, so a site whose fields were changed is never found.
func (svc *Service) UpdateSite(site sites.Site) (bool, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	i := sites.Index(svc.sites, site)
	if i < 0 {
		return false, nil
	}

	svc.sites[i] = site
	return true, svc.saveSites()
}

// DeleteSiteAtIndex removes the site at index. It returns an error wrapping
// ErrIndexOutOfRange, leaving the list untouched, when index is outside
// [0, len).
func (svc *Service) DeleteSiteAtIndex(index int) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if index < 0 || index >= len(svc.sites) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(svc.sites))
	}

	list := make([]sites.Site, 0, len(svc.sites)-1)
	list = append(list, svc.sites[:index]...)
	list = append(list, svc.sites[index+1:]...)
	svc.sites = list

	return svc.saveSites()
}

// LoadSampleSites replaces the site list with the demonstration site.
func (svc *Service) LoadSampleSites() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.sites = sites.Sample()
	return svc.saveSites()
}

// CurrentSiteIndex returns the last stored index, 0 if never set. The index
// is not validated against the site list.
func (svc *Service) CurrentSiteIndex() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.currentSiteIndex()
}

func (svc *Service) SetCurrentSiteIndex(index int) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.write(CurrentSiteIndexKey, index)
}

// IdleTimerDisabled returns the stored preference, false if never set.
func (svc *Service) IdleTimerDisabled() bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.idleTimerDisabled()
}

func (svc *Service) SetIdleTimerDisabled(disabled bool) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.logger.WithFields(log.Fields{
		"current": svc.idleTimerDisabled(),
		"new":     disabled,
	}).Debug("Change idle timer preference")

	return svc.write(ShouldDisableIdleTimerKey, disabled)
}

// Settings returns a snapshot of the whole record.
func (svc *Service) Settings() Record {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return Record{
		Sites:             copySites(svc.sites),
		CurrentSiteIndex:  svc.currentSiteIndex(),
		IdleTimerDisabled: svc.idleTimerDisabled(),
	}
}

// Save synchronizes the backend without changing anything.
func (svc *Service) Save() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.synchronize()
}

func (svc *Service) currentSiteIndex() int {
	var index int
	if !svc.read(CurrentSiteIndexKey, &index) {
		return 0
	}
	return index
}

func (svc *Service) idleTimerDisabled() bool {
	var disabled bool
	if !svc.read(ShouldDisableIdleTimerKey, &disabled) {
		return false
	}
	return disabled
}

func (svc *Service) read(key string, v interface{}) bool {
	bs, found, err := svc.store.Get(key)
	if err != nil {
		svc.logger.WithFields(log.Fields{"key": key, "error": err}).Warn("Failed to read setting")
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(bs, v); err != nil {
		svc.logger.WithFields(log.Fields{"key": key, "error": err}).Debug("Stored setting is unreadable")
		return false
	}
	return true
}

func (svc *Service) saveSites() error {
	bs, err := sites.Encode(svc.sites)
	if err != nil {
		return fmt.Errorf("encode %s: %w", SitesKey, err)
	}
	return svc.writeBytes(SitesKey, bs)
}

func (svc *Service) write(key string, v interface{}) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return svc.writeBytes(key, bs)
}

func (svc *Service) writeBytes(key string, bs []byte) error {
	svc.logger.WithFields(log.Fields{"key": key}).Trace("Save setting")

	if err := svc.store.Set(key, bs); err != nil {
		return svc.flushFailed(err)
	}

	return svc.synchronize()
}

func (svc *Service) synchronize() error {
	if svc.flushLimiter != nil {
		svc.flushLimiter.Take()
	}

	if err := svc.store.Synchronize(); err != nil {
		return svc.flushFailed(err)
	}

	svc.logger.Trace("Settings saved")
	return nil
}

func (svc *Service) flushFailed(err error) error {
	svc.logger.WithFields(log.Fields{"error": err}).Warn("Failed to save settings")
	return fmt.Errorf("%w: %v", ErrFlush, err)
}

func copySites(list []sites.Site) []sites.Site {
	if list == nil {
		return nil
	}
	out := make([]sites.Site, len(list))
	copy(out, list)
	return out
}
