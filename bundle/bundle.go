// Package bundle reads metadata describing the host application bundle.
package bundle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	identifierKey = "CFBundleIdentifier"
	urlTypesKey   = "CFBundleURLTypes"
	urlSchemesKey = "CFBundleURLSchemes"
)

// Info is the parsed info document. Lookups on a nil Info report absence.
type Info map[string]interface{}

// Load reads a YAML or JSON info document.
func Load(path string) (Info, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle info: %w", err)
	}
	return Parse(bs)
}

func Parse(bs []byte) (Info, error) {
	info := Info{}
	if err := yaml.Unmarshal(bs, &info); err != nil {
		return nil, fmt.Errorf("parse bundle info: %w", err)
	}
	return info, nil
}

func (i Info) BundleIdentifier() (string, bool) {
	id, ok := i[identifierKey].(string)
	return id, ok
}

// SupportedSchemes returns the URL schemes of the first URL type declaring
// any.
func (i Info) SupportedSchemes() ([]string, bool) {
	urlTypes, ok := i[urlTypesKey].([]interface{})
	if !ok {
		return nil, false
	}

	for _, t := range urlTypes {
		urlType, ok := t.(map[string]interface{})
		if !ok {
			continue
		}
		schemes, ok := stringSlice(urlType[urlSchemesKey])
		if ok {
			return schemes, true
		}
	}

	return nil, false
}

func stringSlice(v interface{}) ([]string, bool) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
