package m4

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcompdata/fcompdata/internal/errors"
)

const mockBaseURL = "https://m4.example.test/Dataset"

// newMockTransport answers the yearly train and test requests with the fixtures.
func newMockTransport(t *testing.T) (*httpmock.MockTransport, string, string) {
	t.Helper()
	train, err := os.ReadFile(filepath.Join("testdata", "Yearly-train.csv"))
	require.NoError(t, err)
	test, err := os.ReadFile(filepath.Join("testdata", "Yearly-test.csv"))
	require.NoError(t, err)

	transport := httpmock.NewMockTransport()
	return transport, string(train), string(test)
}

func TestDownload_RetriesTransportErrors(t *testing.T) {
	transport, train, test := newMockTransport(t)
	transport.RegisterResponder(http.MethodGet, mockBaseURL+"/Train/Yearly-train.csv",
		httpmock.NewErrorResponder(errors.NewStd("connection reset by peer")).
			Then(httpmock.NewStringResponder(http.StatusOK, train)))
	transport.RegisterResponder(http.MethodGet, mockBaseURL+"/Test/Yearly-test.csv",
		httpmock.NewStringResponder(http.StatusOK, test))

	c := newTestClient(t, mockBaseURL, WithTransport(transport))

	_, err := c.Download(t.Context(), "yearly")
	require.NoError(t, err)

	calls := transport.GetCallCountInfo()
	assert.Equal(t, 2, calls["GET "+mockBaseURL+"/Train/Yearly-train.csv"])
	assert.Equal(t, 1, calls["GET "+mockBaseURL+"/Test/Yearly-test.csv"])

	d, err := c.Load("yearly")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
}

func TestDownload_TransportErrorCategory(t *testing.T) {
	transport, _, _ := newMockTransport(t)
	transport.RegisterResponder(http.MethodGet, mockBaseURL+"/Train/Yearly-train.csv",
		httpmock.NewErrorResponder(errors.NewStd("no route to host")))

	c := newTestClient(t, mockBaseURL, WithTransport(transport), WithRetries(1))

	_, err := c.Download(t.Context(), "yearly")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
	assert.Contains(t, err.Error(), "no route to host")
	assert.Contains(t, err.Error(), "2 attempt(s)")
	assert.Equal(t, 2, transport.GetTotalCallCount())
}

func TestDownload_TestFileFailureKeepsCacheEmpty(t *testing.T) {
	transport, train, _ := newMockTransport(t)
	transport.RegisterResponder(http.MethodGet, mockBaseURL+"/Train/Yearly-train.csv",
		httpmock.NewStringResponder(http.StatusOK, train))
	transport.RegisterResponder(http.MethodGet, mockBaseURL+"/Test/Yearly-test.csv",
		httpmock.NewStringResponder(http.StatusForbidden, "denied"))

	c := newTestClient(t, mockBaseURL, WithTransport(transport))

	_, err := c.Download(context.Background(), "yearly")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryHTTP))

	_, ok, err := c.Path("yearly")
	require.NoError(t, err)
	assert.False(t, ok)
	assertOnlyCorpusFiles(t, c.Dir())
}

func TestDownload_SendsUserAgent(t *testing.T) {
	transport, train, test := newMockTransport(t)
	var agents []string
	record := func(body string) httpmock.Responder {
		return func(r *http.Request) (*http.Response, error) {
			agents = append(agents, r.Header.Get("User-Agent"))
			return httpmock.NewStringResponse(http.StatusOK, body), nil
		}
	}
	transport.RegisterResponder(http.MethodGet, mockBaseURL+"/Train/Yearly-train.csv", record(train))
	transport.RegisterResponder(http.MethodGet, mockBaseURL+"/Test/Yearly-test.csv", record(test))

	c := newTestClient(t, mockBaseURL, WithTransport(transport))
	_, err := c.Download(t.Context(), "yearly")
	require.NoError(t, err)

	require.Len(t, agents, 2)
	for _, ua := range agents {
		assert.Regexp(t, `^fcompdata/`, ua)
	}
}
