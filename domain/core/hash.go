package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for logs and ETags
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Domain-specific hash types
type (
	NarrativeKey Hash
	DatasetHash  Hash
)

func (h NarrativeKey) String() string { return Hash(h).String() }
func (h DatasetHash) String() string  { return Hash(h).String() }

// ComputeNarrativeKey identifies one narrative for memoisation: the section,
// the active filters in canonical order, the dataset version and the policy
// version. Filter fields are compared case-sensitively, values are not.
func ComputeNarrativeKey(sectionID string, filters map[string]string, dataset DatasetHash, policyVersion string) NarrativeKey {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	data.WriteString(sectionID)
	data.WriteByte(0)
	for _, key := range keys {
		data.WriteString(key)
		data.WriteByte('=')
		data.WriteString(strings.ToLower(strings.TrimSpace(filters[key])))
		data.WriteByte(0)
	}
	data.WriteString(dataset.String())
	data.WriteByte(0)
	data.WriteString(policyVersion)

	return NarrativeKey(NewHash([]byte(data.String())))
}

// ComputeDatasetHash fingerprints a table given as rows of field→text, in
// row order with fields sorted
func ComputeDatasetHash(rows []map[string]string) DatasetHash {
	h := sha256.New()
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "%s=%s\x00", k, row[k])
		}
		h.Write([]byte{'\n'})
	}
	return DatasetHash(hex.EncodeToString(h.Sum(nil)))
}
