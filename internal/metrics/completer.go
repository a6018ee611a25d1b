package metrics

import (
	"context"

	"github.com/parkrow-labs/triaged/internal/completion"
)

type instrumentedCompleter struct {
	next completion.Completer
	m    *Metrics
}

// WrapCompleter counts calls and failures on every completion request.
func (m *Metrics) WrapCompleter(next completion.Completer) completion.Completer {
	return &instrumentedCompleter{next: next, m: m}
}

func (c *instrumentedCompleter) Complete(ctx context.Context, req completion.Request) (string, error) {
	c.m.CompletionCalls.Inc()
	out, err := c.next.Complete(ctx, req)
	if err != nil {
		c.m.CompletionErrors.Inc()
	}
	return out, err
}
