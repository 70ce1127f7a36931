package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/ragdex/internal/models"
)

func TestParseDocumentState(t *testing.T) {
	tests := []struct {
		raw  string
		want models.DocumentState
	}{
		{"READY", models.StateReady},
		{"ACTIVE", models.StateReady},
		{"STATE_ACTIVE", models.StateReady},
		{"state_active", models.StateReady},
		{"PROCESSING", models.StateProcessing},
		{"STATE_PENDING", models.StateProcessing},
		{"pending", models.StateProcessing},
		{"FAILED", models.StateFailed},
		{"STATE_FAILED", models.StateFailed},
		{"  ready  ", models.StateReady},
		{"", models.StateUnknown},
		{"SOMETHING_ELSE", models.StateUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, models.ParseDocumentState(tt.raw))
		})
	}
}

func TestDocumentStateUnmarshal(t *testing.T) {
	var doc models.Document
	err := json.Unmarshal([]byte(`{"name":"documents/a","state":"STATE_ACTIVE"}`), &doc)
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, doc.State)

	err = json.Unmarshal([]byte(`{"state":42}`), &doc)
	assert.Error(t, err, "non-string states are rejected")
}

func TestDocumentLabel(t *testing.T) {
	doc := models.Document{Name: "documents/a", DisplayName: "notes.md"}
	assert.Equal(t, "notes.md", doc.Label())

	doc.DisplayName = ""
	assert.Equal(t, "documents/a", doc.Label())
}
