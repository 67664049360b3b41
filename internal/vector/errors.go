package vector

import "fmt"

// StoreError wraps vector store failures. Quota flags capacity or plan-limit
// rejections, which get their own user-facing message (the hosted free tier
// runs out well before anything else does); everything else is treated as a
// connectivity or service failure.
type StoreError struct {
	Op    string
	Quota bool
	Err   error
}

func (e *StoreError) Error() string {
	if e.Quota {
		return fmt.Sprintf("vector store %s rejected, capacity or quota reached: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
