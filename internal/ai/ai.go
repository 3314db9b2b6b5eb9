package ai

import "context"

// Completer is the reasoning collaborator. Every call may be slow, rate
// limited or failing; callers wrap invocations with the retry helper.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}
