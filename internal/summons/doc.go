// Package summons turns the text of a court summons into a structured case record,
// optionally enriches it with weather, transport and nearby-place advice, and
// composes a readable summary.
package summons

import "context"

// JSONCompleter is the slice of the LLM client the generators need.
type JSONCompleter interface {
	CompleteInto(ctx context.Context, prompt, model string, v interface{}) error
}
