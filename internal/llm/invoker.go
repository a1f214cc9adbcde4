// internal/llm/invoker.go
package llm

import (
	"context"
	"time"
)

// DefaultInvokeTimeout is the wall-clock bound for a single model call.
const DefaultInvokeTimeout = 60 * time.Second

type invokeResult struct {
	resp *ProviderResponse
	err  error
}

// invokeWithTimeout runs one provider call with a hard wall-clock bound.
// The deadline is propagated through the context so providers that honor
// cancellation stop early; a provider that ignores it is abandoned at the
// deadline and its late result discarded. The result channel is buffered
// so an abandoned worker can still deliver and exit instead of leaking.
func invokeWithTimeout(ctx context.Context, client Client, messages []ChatMessage, timeout time.Duration) (*ProviderResponse, error) {
	if timeout <= 0 {
		timeout = DefaultInvokeTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan invokeResult, 1)
	go func() {
		resp, err := client.Generate(callCtx, messages)
		done <- invokeResult{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		return res.resp, res.err
	case <-callCtx.Done():
		return nil, callCtx.Err()
	}
}
