package collector

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedTransport(t *testing.T) {
	t.Parallel()

	mock := httpmock.NewMockTransport()
	mock.RegisterResponder("GET", "http://a.test/", httpmock.NewStringResponder(200, "ok"))
	mock.RegisterResponder("GET", "http://b.test/", httpmock.NewStringResponder(200, "ok"))

	rt := NewRateLimitedTransport(mock, 0, 0)
	client := &http.Client{Transport: rt}

	for _, u := range []string{"http://a.test/", "http://b.test/", "http://a.test/"} {
		resp, err := client.Get(u)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, int64(3), rt.Requests())
	assert.Len(t, rt.limiters, 2)
}

func TestRateLimitedTransport_CanceledWait(t *testing.T) {
	t.Parallel()

	mock := httpmock.NewMockTransport()
	mock.RegisterResponder("GET", "http://a.test/", httpmock.NewStringResponder(200, "ok"))

	// One token per hour: the first request drains the bucket.
	rt := NewRateLimitedTransport(mock, 1.0/3600, 1)

	req, err := http.NewRequest(http.MethodGet, "http://a.test/", nil)
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, "http://a.test/", nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	require.Error(t, err)
	assert.Equal(t, int64(1), rt.Requests())
}

func TestUserAgents(t *testing.T) {
	t.Parallel()

	u := NewUserAgents([]string{"a", "b", "c"})
	u.pick = func(n int) int { return n - 1 }
	assert.Equal(t, "c", u.Next())

	def := NewUserAgents(nil)
	assert.Contains(t, defaultUserAgents, def.Next())
}
