// Package extract turns raw unstructured content into the small structured
// summary the rest of the pipeline runs on.
//
// The extractor makes one completion call and degrades to documented
// defaults on any failure: it never returns an error past its own boundary,
// so intake always gets a usable metadata tuple.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/parkrow-labs/triaged/internal/completion"
	"github.com/parkrow-labs/triaged/internal/event"
)

// Metadata is the extracted tuple. All four fields are always populated.
type Metadata struct {
	Urgency   string `json:"urgency"`
	Location  string `json:"location"`
	IssueType string `json:"issue_type"`
	Summary   string `json:"summary"`
}

const (
	defaultLocation  = "unknown"
	defaultIssueType = "general"
	maxContentChars  = 2000
	maxSummaryChars  = 100
)

const extractSystem = "You are a metadata extraction assistant. Extract only essential fields for fast decision-making. Always respond with valid JSON. Be concise."

const extractPromptTemplate = `Extract ONLY essential metadata from this property management document/email for fast decision-making.

Extract:
1. urgency: "urgent" or "routine" (urgent = needs immediate attention, routine = can wait)
2. location: Unit/apartment number or location (e.g., "Unit 4B", "Building A", "Main Office"). If not mentioned, extract the sender's name or email address instead of "unknown"
3. issue_type: Type of issue (e.g., "leak", "hvac", "appliance", "electrical", "plumbing", "general", "inquiry", "complaint") or "general" if unclear
4. summary: ONE sentence summary (max 50 words) - just enough to understand the issue

Content:
%s

Return JSON with keys: urgency, location, issue_type, summary.
For location: If no unit/location is mentioned, use the sender's name or email address.
Be concise - agents need this for fast decisions, not full analysis.`

// Extractor derives metadata via the completion service.
type Extractor struct {
	completer completion.Completer
	logger    *zap.Logger
}

// New creates an extractor.
func New(completer completion.Completer, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{completer: completer, logger: logger}
}

// Extract returns metadata for content. On any completion failure it
// returns the default tuple, augmented with a location derived from a
// From: header when one is present.
func (e *Extractor) Extract(ctx context.Context, content string) Metadata {
	truncated := content
	if len(truncated) > maxContentChars {
		truncated = truncated[:maxContentChars]
	}

	raw, err := e.completer.Complete(ctx, completion.Request{
		System:      extractSystem,
		Prompt:      fmt.Sprintf(extractPromptTemplate, truncated),
		Temperature: 0.2,
	})
	if err != nil {
		e.logger.Warn("metadata extraction failed, using defaults", zap.Error(err))
		return defaults(content)
	}

	var md Metadata
	if err := json.Unmarshal([]byte(completion.StripFence(raw)), &md); err != nil {
		e.logger.Warn("metadata response unparseable, using defaults", zap.Error(err))
		return defaults(content)
	}

	if md.Urgency == "" {
		md.Urgency = event.UrgencyRoutine
	}
	if md.Location == "" {
		md.Location = defaultLocation
	}
	if md.IssueType == "" {
		md.IssueType = defaultIssueType
	}
	if md.Summary == "" {
		md.Summary = truncate(content, maxSummaryChars)
	}

	// Normalize urgency into exactly {urgent, routine}.
	if u := strings.ToLower(md.Urgency); u == event.UrgencyUrgent {
		md.Urgency = event.UrgencyUrgent
	} else {
		md.Urgency = event.UrgencyRoutine
	}

	// The model sometimes answers with the sender's address or gives up
	// entirely; a From: header display name is a better location than
	// either.
	if isUnusableLocation(md.Location) {
		if sender := senderFromContent(content); sender != "" {
			md.Location = sender
		}
	}

	return md
}

func defaults(content string) Metadata {
	md := Metadata{
		Urgency:   event.UrgencyRoutine,
		Location:  defaultLocation,
		IssueType: defaultIssueType,
		Summary:   truncate(content, maxSummaryChars),
	}
	if sender := senderFromContent(content); sender != "" {
		md.Location = sender
	}
	return md
}

func isUnusableLocation(location string) bool {
	l := strings.ToLower(strings.TrimSpace(location))
	return l == "" || l == defaultLocation || strings.Contains(l, "@")
}

// senderFromContent parses the first From: header line out of raw content.
// A display name is preferred over a bare email's local-part.
func senderFromContent(content string) string {
	var fromLine string
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "From:") {
			fromLine = line
			break
		}
	}
	if fromLine == "" {
		return ""
	}

	from := strings.TrimSpace(fromLine[strings.Index(fromLine, "From:")+len("From:"):])
	if from == "" {
		return ""
	}

	// "Name <email@host>" form: take the display name, falling back to the
	// local-part when the name is empty.
	if open := strings.Index(from, "<"); open >= 0 {
		if name := strings.TrimSpace(from[:open]); name != "" {
			return name
		}
		addr := from[open+1:]
		if end := strings.Index(addr, ">"); end >= 0 {
			addr = addr[:end]
		}
		return localPart(strings.TrimSpace(addr))
	}

	// Bare address form.
	if strings.Contains(from, "@") {
		return localPart(from)
	}
	return from
}

func localPart(addr string) string {
	if at := strings.Index(addr, "@"); at >= 0 {
		return addr[:at]
	}
	return addr
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
