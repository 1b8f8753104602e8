package contracts

import (
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   FailureKind
	}{
		{http.StatusUnauthorized, AuthExhausted},
		{http.StatusPaymentRequired, AuthExhausted},
		{http.StatusForbidden, AuthExhausted},
		{http.StatusTooManyRequests, RateLimited},
		{http.StatusNotFound, NotFound},
		{http.StatusBadGateway, ServerError},
		{http.StatusTeapot, Transport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			f := ClassifyStatus(tt.status, http.Header{}, nil)
			assert.Equal(t, tt.want, f.Kind)
			assert.Equal(t, tt.status, f.StatusCode)
		})
	}
}

func TestClassifyStatus_RetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "120")

	f := ClassifyStatus(http.StatusTooManyRequests, h, nil)
	assert.Equal(t, 2*time.Minute, f.RetryAfter)
}

func TestClassifyStatus_TruncatesBodyOnRuneBoundary(t *testing.T) {
	// 199 ASCII bytes then a 3-byte rune straddling the cap
	body := strings.Repeat("a", maxBodyDetail-1) + "€" + strings.Repeat("b", 50)

	f := ClassifyStatus(http.StatusServiceUnavailable, http.Header{}, []byte(body))
	require.NotNil(t, f.Err)

	msg := f.Err.Error()
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, strings.Repeat("a", maxBodyDetail-1), msg)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", maxBodyDetail))
	assert.Equal(t, "ab", truncate("ab€", 4))
	assert.Equal(t, "ab€", truncate("ab€c", 5))
	assert.Equal(t, "", truncate("€", 2))
}
