// Package sites provides the site value type stored by the settings service.
package sites

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
)

// Site is one monitored remote endpoint. Sites compare by value.
type Site struct {
	URL       string
	APISecret sql.NullString
}

// New parses rawURL and returns a site without an API secret.
func New(rawURL string) (Site, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return Site{}, fmt.Errorf("invalid site url %q: %w", rawURL, err)
	}
	return Site{URL: u.String()}, nil
}

// WithAPISecret returns a copy of s carrying secret.
func (s Site) WithAPISecret(secret string) Site {
	s.APISecret = sql.NullString{String: secret, Valid: true}
	return s
}

func (s Site) String() string {
	return fmt.Sprintf("URL: %s, APISecret set: %t", s.URL, s.APISecret.Valid)
}

// Convert to JSON version
func (s Site) ToJSON() SiteJSON {
	j := SiteJSON{URL: s.URL}
	if s.APISecret.Valid {
		secret := s.APISecret.String
		j.APISecret = &secret
	}
	return j
}

// Update fields according to JSON version
func (s *Site) FromJSON(j SiteJSON) {
	s.URL = j.URL
	s.APISecret = sql.NullString{}
	if j.APISecret != nil {
		s.APISecret = sql.NullString{String: *j.APISecret, Valid: true}
	}
}

func (s Site) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToJSON())
}

// UnmarshalJSON accepts every object MarshalJSON writes, including one with
// an empty url. Validation is left to callers.
func (s *Site) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return ErrNullSite
	}
	var j SiteJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	s.FromJSON(j)
	return nil
}

type SiteJSON struct {
	URL       string  `json:"url"`
	APISecret *string `json:"apiSecret,omitempty"`
}
