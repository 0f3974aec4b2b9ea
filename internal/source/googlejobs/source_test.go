package googlejobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"job_fetcher/internal/source"
	"job_fetcher/testdata/utils"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newTestSource(baseURL string, maxPages int) *Source {
	src := New(Config{
		APIKey:   "secret",
		BaseURL:  baseURL,
		Num:      50,
		MaxPages: maxPages,
		Timeout:  time.Second,
		Retry:    source.RetryConfig{MaxAttempts: 1},
	}, zap.NewNop())
	src.now = func() time.Time { return testNow }
	return src
}

func TestSearch_MapsJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "google_jobs", q.Get("engine"))
		assert.Equal(t, "Senior Engineer remote", q.Get("q"))
		assert.Equal(t, "Denver, CO", q.Get("location"))
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "50", q.Get("num"))

		_, _ = w.Write([]byte(`{
		  "jobs_results": [
		    {
		      "job_id": "abc==",
		      "title": "Senior Engineer",
		      "company_name": "Initech",
		      "location": "Denver, CO",
		      "description": "Hybrid team.",
		      "share_link": "https://www.google.com/search?jobs",
		      "detected_extensions": {"posted_at": "3 days ago", "salary": "150K–180K a year"},
		      "apply_options": [
		        {"title": "Apply on LinkedIn", "link": "https://linkedin.com/jobs/1"},
		        {"title": "Broken"},
		        {"title": "Apply on Indeed", "link": "https://indeed.com/jobs/1"}
		      ]
		    },
		    {
		      "title": "Platform Engineer",
		      "company_name": "Hooli",
		      "location": "Anywhere",
		      "share_link": "https://www.google.com/search?jobs2",
		      "detected_extensions": {"posted_at": "5 hours ago", "work_from_home": true}
		    }
		  ]
		}`))
	}))
	defer srv.Close()

	listings, err := newTestSource(srv.URL, 1).Search(context.Background(), "Senior Engineer", "Denver, CO", true)

	require.NoError(t, err)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "abc==", first.ExternalID)
	assert.Equal(t, SourceName, first.Source)
	assert.Equal(t, "https://www.google.com/search?jobs", first.URL)
	require.Len(t, first.ApplyLinks, 2)
	assert.Equal(t, "Apply on Indeed", first.ApplyLinks[1].Title)
	assert.Equal(t, utils.Ptr("150K–180K a year"), first.Salary)
	assert.Equal(t, testNow.AddDate(0, 0, -3), first.PostedAt)
	assert.False(t, first.IsRemote)

	second := listings[1]
	assert.Equal(t, source.FallbackID("https://www.google.com/search?jobs2", "Platform Engineer", "Hooli"), second.ExternalID)
	assert.Equal(t, "https://www.google.com/search?jobs2", second.URL)
	assert.Empty(t, second.ApplyLinks)
	assert.Nil(t, second.Salary)
	assert.True(t, second.IsRemote)
	assert.Equal(t, testNow, second.PostedAt)
}

func TestSearch_URLFallsBackToFirstApplyLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
		  "jobs_results": [
		    {
		      "job_id": "x1",
		      "title": "Backend Engineer",
		      "apply_options": [
		        {"title": "Apply directly", "link": "https://acme.example/careers/1"},
		        {"title": "Apply on Indeed", "link": "https://indeed.com/jobs/9"}
		      ]
		    }
		  ]
		}`))
	}))
	defer srv.Close()

	listings, err := newTestSource(srv.URL, 1).Search(context.Background(), "Engineer", "", false)

	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "https://acme.example/careers/1", listings[0].URL)
	assert.Len(t, listings[0].ApplyLinks, 2)
}

func TestSearch_FollowsPagination(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("next_page_token") {
		case "":
			_, _ = w.Write([]byte(`{"jobs_results":[{"job_id":"1","title":"A"}],"serpapi_pagination":{"next_page_token":"p2"}}`))
		case "p2":
			_, _ = w.Write([]byte(`{"jobs_results":[{"job_id":"1","title":"A"},{"job_id":"2","title":"B"}],"serpapi_pagination":{"next_page_token":"p3"}}`))
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("next_page_token"))
		}
	}))
	defer srv.Close()

	listings, err := newTestSource(srv.URL, 2).Search(context.Background(), "Engineer", "", false)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, listings, 2)
	assert.Equal(t, "1", listings[0].ExternalID)
	assert.Equal(t, "2", listings[1].ExternalID)
}

func TestSearch_LaterPageFailureKeepsEarlierResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("next_page_token") != "" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"jobs_results":[{"job_id":"1","title":"A"}],"serpapi_pagination":{"next_page_token":"p2"}}`))
	}))
	defer srv.Close()

	listings, err := newTestSource(srv.URL, 3).Search(context.Background(), "Engineer", "", false)

	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestSearch_NoResultsErrorStringIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Google hasn't returned any results for this query."}`))
	}))
	defer srv.Close()

	listings, err := newTestSource(srv.URL, 1).Search(context.Background(), "Engineer", "", false)

	assert.NoError(t, err)
	assert.Empty(t, listings)
}

func TestSearch_APIErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Invalid API key."}`))
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL, 1).Search(context.Background(), "Engineer", "", false)

	assert.ErrorContains(t, err, "Invalid API key.")
}

func TestSearch_MissingKey(t *testing.T) {
	listings, err := New(Config{}, zap.NewNop()).Search(context.Background(), "Engineer", "", false)

	assert.NoError(t, err)
	assert.Empty(t, listings)
}

func TestParseRelativeDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{input: "", want: testNow},
		{input: "just posted", want: testNow},
		{input: "an hour ago", want: testNow},
		{input: "12 hours ago", want: testNow},
		{input: "yesterday", want: testNow.AddDate(0, 0, -1)},
		{input: "a day ago", want: testNow.AddDate(0, 0, -1)},
		{input: "4 days ago", want: testNow.AddDate(0, 0, -4)},
		{input: "30+ days ago", want: testNow.AddDate(0, 0, -30)},
		{input: "2 weeks ago", want: testNow.AddDate(0, 0, -14)},
		{input: "1 month ago", want: testNow.AddDate(0, 0, -30)},
		{input: "sometime", want: testNow},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRelativeDate(tt.input, testNow))
		})
	}
}
