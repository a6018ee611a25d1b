package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parkrow-labs/triaged/internal/casefile"
	"github.com/parkrow-labs/triaged/internal/completion"
)

const draftSystem = "You are a professional property management assistant. Write clear, professional emails."

// draftFallback is recorded when a drafting call fails; the case record is
// completed with a degraded entry rather than aborted.
const draftFallback = "Email drafting unavailable; please follow up manually."

const managerPromptTemplate = `Write a professional email to a property manager summarizing a maintenance request.

Event Type: %s
Property/Unit: %s
Repair Type: %s
Urgency: %s
Description: %s

Write a concise summary email that the property manager can quickly review.`

const vendorPromptTemplate = `Write a professional email to a maintenance vendor requesting availability for a repair.

Vendor: %s
Property/Unit: %s
Repair Type: %s
Urgency: %s
Description: %s

Request that they provide available times to come inspect the issue and provide a consultation.`

const tenantPromptTemplate = `Write a professional email to a tenant notifying them about an upcoming maintenance visit.

Property/Unit: %s
Repair Type: %s
Description: %s

Inform them that a maintenance vendor will be contacting them shortly to schedule a time to visit and assess the issue.`

// draftEmail generates one notification for the given recipient role.
func (e *Engine) draftEmail(ctx context.Context, recipient string, data casefile.Snapshot) string {
	var prompt string
	switch recipient {
	case RecipientPropertyManager:
		prompt = fmt.Sprintf(managerPromptTemplate,
			data.EventType, data.Location, data.RepairType, data.Urgency, data.Description)
	case RecipientVendor:
		prompt = fmt.Sprintf(vendorPromptTemplate,
			data.Vendor, data.Location, data.RepairType, data.Urgency, data.Description)
	case RecipientTenant:
		prompt = fmt.Sprintf(tenantPromptTemplate,
			data.Location, data.RepairType, data.Description)
	default:
		return ""
	}

	content, err := e.completer.Complete(ctx, completion.Request{
		System:      draftSystem,
		Prompt:      prompt,
		Temperature: 0.7,
	})
	if err != nil {
		e.logger.Warn("email drafting failed",
			zap.String("recipient", recipient), zap.Error(err))
		return draftFallback
	}
	return content
}
