package db

import (
	"crypto/sha256"
	"encoding/hex"
)

// DefaultKeyPrefix namespaces every key written by crawlscope.
const DefaultKeyPrefix = "crawlscope:"

// Keyspace builds storage keys and index names under a common prefix.
// Layout:
//
//	{prefix}ds:{dataset}:{docType}:{sha256(id)}   crawled records
//	{prefix}ds:{dataset}:{docType}:idx            FT index per record type
//	{prefix}registry:{dataset}                    dataset registry entry
//	{prefix}session:{id}                          session state
type Keyspace struct {
	prefix string
}

// NewKeyspace returns a keyspace rooted at prefix (DefaultKeyPrefix when empty).
func NewKeyspace(prefix string) Keyspace {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keyspace{prefix: prefix}
}

// Prefix returns the root prefix.
func (k Keyspace) Prefix() string { return k.prefix }

// RecordPrefix is the key prefix indexed by the dataset's docType index.
func (k Keyspace) RecordPrefix(dataset, docType string) string {
	return k.prefix + "ds:" + dataset + ":" + docType + ":"
}

// Record returns the key of a single record. IDs are hashed: URLs are
// unbounded and full of characters that collide with SCAN patterns.
func (k Keyspace) Record(dataset, docType, id string) string {
	h := sha256.Sum256([]byte(id))
	return k.RecordPrefix(dataset, docType) + hex.EncodeToString(h[:])
}

// Index returns the FT index name for a dataset's docType.
func (k Keyspace) Index(dataset, docType string) string {
	return k.prefix + "ds:" + dataset + ":" + docType + ":idx"
}

// Registry returns the registry key of a dataset.
func (k Keyspace) Registry(dataset string) string {
	return k.prefix + "registry:" + dataset
}

// RegistryPattern matches every registry key.
func (k Keyspace) RegistryPattern() string {
	return k.prefix + "registry:*"
}

// Session returns the key holding a session's state.
func (k Keyspace) Session(id string) string {
	return k.prefix + "session:" + id
}
