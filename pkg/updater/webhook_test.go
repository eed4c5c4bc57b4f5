package updater

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libsync/libsync/pkg/config"
	"github.com/libsync/libsync/pkg/jobs"
)

func TestNotifyWebhooksWaitsForTheGraph(t *testing.T) {
	tc := newTestContext(t)

	err := tc.svc.NotifyWebhooks(tc.ctx, "70")
	var deferral *jobs.Deferral
	require.ErrorAs(t, err, &deferral)
	assert.Equal(t, len(WebhookDependencies()), deferral.Incomplete)
}

func TestNotifyWebhooks(t *testing.T) {
	tc := newTestContext(t)
	tc.completeJobs(t, "71", WebhookDependencies()...)

	calls := 0
	var method, header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		method = r.Method
		header = r.Header.Get("X-Token")
	}))
	defer srv.Close()

	tc.cfg.Webhooks = []config.Webhook{{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{"X-Token": "abc"},
	}}

	require.NoError(t, tc.svc.NotifyWebhooks(tc.ctx, "71"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "abc", header)
}

func TestNotifyWebhooksSucceedsEvenWhenAnEndpointFails(t *testing.T) {
	tc := newTestContext(t)
	tc.completeJobs(t, "72", WebhookDependencies()...)

	okCalls := 0
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		okCalls++
	}))
	defer okSrv.Close()

	failingCalls := 0
	failingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		failingCalls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failingSrv.Close()

	tc.cfg.Webhooks = []config.Webhook{
		{Method: http.MethodGet, URL: failingSrv.URL},
		{Method: http.MethodGet, URL: okSrv.URL},
	}

	// The failing endpoint does not fail the job and does not stop the
	// second endpoint from being called.
	require.NoError(t, tc.svc.NotifyWebhooks(tc.ctx, "72"))
	assert.Equal(t, 1, failingCalls)
	assert.Equal(t, 1, okCalls)
}
