// Package datastore defines the key-value backend the settings service
// persists through.
package datastore

// DefaultNamespace groups all settings keys of the application.
const DefaultNamespace = "group.com.nothingonline.nightscouter"

// KeyValueStore is a namespaced preferences store. Values are JSON documents.
//
// Set may buffer writes; they become durable only once Synchronize returns
// nil. Get observes buffered writes.
type KeyValueStore interface {
	// Get returns the value stored under key and whether it was found.
	Get(key string) ([]byte, bool, error)
	// Set stores value under key.
	Set(key string, value []byte) error
	// Synchronize makes all buffered writes durable.
	Synchronize() error
}
