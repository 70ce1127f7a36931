// Package models defines data structures shared across the ragdex client.
package models

import (
	"encoding/json"
	"strings"
)

// DocumentState is the indexing state of a document as reported by the
// file search store.
type DocumentState string

const (
	StateReady      DocumentState = "READY"
	StateProcessing DocumentState = "PROCESSING"
	StateFailed     DocumentState = "FAILED"
	StateUnknown    DocumentState = "UNKNOWN"
)

// ParseDocumentState normalizes a raw state string from the service.
// Input is case-insensitive and may carry the upstream "STATE_" prefix.
// Anything unrecognized maps to StateUnknown.
func ParseDocumentState(raw string) DocumentState {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "STATE_")
	switch s {
	case "READY", "ACTIVE":
		// Gemini reports ready documents as ACTIVE
		return StateReady
	case "PROCESSING", "PENDING":
		return StateProcessing
	case "FAILED":
		return StateFailed
	default:
		return StateUnknown
	}
}

// UnmarshalJSON normalizes the wire representation through ParseDocumentState.
func (s *DocumentState) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = ParseDocumentState(raw)
	return nil
}

// Document is one entry of the authoritative store listing. It is never
// mutated locally; the whole listing is replaced on every successful fetch.
type Document struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	State       DocumentState `json:"state"`
	SizeBytes   int64         `json:"size_bytes"`
	ChunkCount  int64         `json:"chunk_count"`
	CreateTime  string        `json:"create_time"`
	UpdateTime  string        `json:"update_time"`
}

// Label returns the preferred human-readable name of the document.
func (d Document) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

// Store represents a file search store.
type Store struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	CreateTime  string `json:"create_time"`
	UpdateTime  string `json:"update_time"`
}
