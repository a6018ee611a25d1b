package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventTypeForIssue(t *testing.T) {
	tests := []struct {
		issueType string
		want      string
	}{
		{"leak", TypeMaintenanceRequest},
		{"hvac", TypeMaintenanceRequest},
		{"appliance", TypeMaintenanceRequest},
		{"electrical", TypeMaintenanceRequest},
		{"plumbing", TypeMaintenanceRequest},
		{"Plumbing", TypeMaintenanceRequest},
		{" leak ", TypeMaintenanceRequest},
		{"inquiry", TypeInquiry},
		{"complaint", TypeComplaint},
		{"general", TypeDocumentAdded},
		{"", TypeDocumentAdded},
		{"something else", TypeDocumentAdded},
	}

	for _, tt := range tests {
		t.Run(tt.issueType, func(t *testing.T) {
			assert.Equal(t, tt.want, EventTypeForIssue(tt.issueType))
		})
	}
}

func TestSubscribedTo(t *testing.T) {
	ev := Event{SubscribedAgents: []string{"agent_a", "agent_b"}}

	assert.True(t, ev.SubscribedTo("agent_a"))
	assert.True(t, ev.SubscribedTo("agent_b"))
	assert.False(t, ev.SubscribedTo("agent_c"))
	assert.False(t, Event{}.SubscribedTo("agent_a"))
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Source
	}{
		{
			name: "mail with message id",
			raw:  "mail:tenant@example.com:msg123",
			want: Source{Type: "mail", ID: "msg123", Email: "tenant@example.com"},
		},
		{
			name: "mail without message id",
			raw:  "mail:tenant@example.com",
			want: Source{Type: "mail", ID: "tenant@example.com", Email: "tenant@example.com"},
		},
		{
			name: "drive file id",
			raw:  "drive:abc123",
			want: Source{
				Type:     "drive",
				ID:       "abc123",
				URL:      "https://drive.google.com/file/d/abc123",
				Filename: "drive:abc123",
			},
		},
		{
			name: "drive url",
			raw:  "https://drive.google.com/file/d/xyz789/view",
			want: Source{
				Type:     "drive",
				ID:       "xyz789",
				URL:      "https://drive.google.com/file/d/xyz789",
				Filename: "view",
			},
		},
		{
			name: "plain filename",
			raw:  "inbox/complaint.txt",
			want: Source{Type: "file", ID: "inbox/complaint.txt", Filename: "complaint.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSource(tt.raw))
		})
	}
}
