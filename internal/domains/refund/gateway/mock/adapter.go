package mock

import (
	"context"
	"sync"

	"refund-backend/internal/domains/refund/gateway"
)

// Adapter is a scriptable gateway adapter for tests.
type Adapter struct {
	mu sync.Mutex

	AdapterName string
	Outcome     *gateway.Outcome
	Err         error

	// Calls records every request for assertion.
	Calls []gateway.Request
}

func New(name string) *Adapter {
	return &Adapter{
		AdapterName: name,
		Outcome:     gateway.SuccessOutcome("mock-ref", map[string]interface{}{"mock": true}),
	}
}

var _ gateway.Adapter = (*Adapter)(nil)

func (a *Adapter) Name() string {
	if a.AdapterName != "" {
		return a.AdapterName
	}
	return "mock"
}

func (a *Adapter) Process(ctx context.Context, req gateway.Request) (*gateway.Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Calls = append(a.Calls, req)
	if a.Err != nil {
		return nil, a.Err
	}
	return a.Outcome, nil
}

// Fail scripts a failed outcome with the given normalized code.
func (a *Adapter) Fail(code, message string) {
	a.Outcome = gateway.FailureOutcome(code, message, map[string]interface{}{"mock": true})
}

// CallCount returns how many times Process ran.
func (a *Adapter) CallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Calls)
}
