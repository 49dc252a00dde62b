package sites

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNullSite = errors.New("site is null")

// SampleURL is the demonstration site used on first run.
const SampleURL = "https://nscgm.herokuapp.com"

// Sample returns the demonstration site list.
func Sample() []Site {
	return []Site{{URL: SampleURL}}
}

// Encode serializes an ordered site list.
func Encode(list []Site) ([]byte, error) {
	if list == nil {
		list = []Site{}
	}
	return json.Marshal(list)
}

// Decode parses a list written by Encode. Any malformed item fails the
// whole list.
func Decode(data []byte) ([]Site, error) {
	var list []Site
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode site list: %w", err)
	}
	return list, nil
}

// Index returns the position of the first site equal to s, or -1.
func Index(list []Site, s Site) int {
	for i, candidate := range list {
		if candidate == s {
			return i
		}
	}
	return -1
}
