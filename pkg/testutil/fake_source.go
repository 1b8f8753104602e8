package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
)

// FakeSource is a scriptable SourceAdapter. Each Fetch consumes the next
// scripted response; the last one repeats once the script runs out.
type FakeSource struct {
	id      models.SourceID
	markets map[models.MarketType]bool

	mu       sync.Mutex
	script   []FakeResponse
	calls    int
	requests []models.OddsRequest
}

// FakeResponse is one scripted Fetch outcome
type FakeResponse struct {
	Quotes []models.RawQuote
	Err    error
	Delay  time.Duration // honoured against ctx cancellation
}

var _ contracts.SourceAdapter = (*FakeSource)(nil)

// NewFakeSource creates a fake supporting every featured market
func NewFakeSource(id models.SourceID, script ...FakeResponse) *FakeSource {
	markets := make(map[models.MarketType]bool)
	for _, m := range models.FeaturedMarkets() {
		markets[m] = true
	}
	return &FakeSource{id: id, markets: markets, script: script}
}

// Quotes scripts a successful response
func Quotes(quotes ...models.RawQuote) FakeResponse {
	return FakeResponse{Quotes: quotes}
}

// Fails scripts a failed response
func Fails(err error) FakeResponse {
	return FakeResponse{Err: err}
}

func (f *FakeSource) ID() models.SourceID {
	return f.id
}

func (f *FakeSource) SupportsMarket(market models.MarketType) bool {
	return f.markets[market]
}

// Fetch returns the next scripted response
func (f *FakeSource) Fetch(ctx context.Context, req models.OddsRequest) ([]models.RawQuote, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	var resp FakeResponse
	if len(f.script) > 0 {
		idx := f.calls - 1
		if idx >= len(f.script) {
			idx = len(f.script) - 1
		}
		resp = f.script[idx]
	}
	f.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			return nil, contracts.NewFailure(contracts.Transport, ctx.Err())
		}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}
	out := make([]models.RawQuote, len(resp.Quotes))
	for i, q := range resp.Quotes {
		q.Source = f.id
		out[i] = q
	}
	return out, nil
}

// Calls returns how many times Fetch was invoked
func (f *FakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Requests returns the requests Fetch received
func (f *FakeSource) Requests() []models.OddsRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OddsRequest(nil), f.requests...)
}
