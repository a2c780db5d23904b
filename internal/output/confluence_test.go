package output

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynoinc/incidentreport/internal/apierr"
	"github.com/dynoinc/incidentreport/internal/report"
)

func newTestConfluence(t *testing.T, handler http.HandlerFunc) *Confluence {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewConfluence(ConfluenceConfig{
		URL:      srv.URL + "/",
		User:     "ops@example.com",
		APIToken: "tok",
		SpaceKey: "OPS",
		Title:    "Incidents 2024-05-01",
	}, srv.Client(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return c
}

func TestConfluenceWrite(t *testing.T) {
	var got createPageRequest
	c := newTestConfluence(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wiki/rest/api/content/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("ops@example.com:tok"))
		assert.Equal(t, want, r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))

		_, _ = w.Write([]byte(`{"id": "98765", "type": "page"}`))
	})

	require.NoError(t, c.Write(context.Background(), groupedReport()))

	assert.Equal(t, "page", got.Type)
	assert.Equal(t, "Incidents 2024-05-01", got.Title)
	assert.Equal(t, "OPS", got.Space.Key)
	assert.Equal(t, "wiki", got.Body.Storage.Representation)
	assert.Equal(t, "h2. Incidents by Ack\n||Ack||Count||\n|alice|2|\n|bob|1|\n", got.Body.Storage.Value)
}

func TestCreatePageReturnsID(t *testing.T) {
	c := newTestConfluence(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "42"}`))
	})

	id, err := c.CreatePage(context.Background(), "OPS", "title", "body")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestCreatePageErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr any
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"message": "A page with this title already exists"}`, wantErr: &apierr.StatusError{}},
		{name: "not json", status: http.StatusOK, body: `<html/>`, wantErr: &apierr.DecodeError{}},
		{name: "no id", status: http.StatusOK, body: `{}`, wantErr: &apierr.DecodeError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConfluence(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.CreatePage(context.Background(), "OPS", "title", "body")
			require.Error(t, err)

			switch tt.wantErr.(type) {
			case *apierr.StatusError:
				var statusErr *apierr.StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.status, statusErr.StatusCode)
				assert.Contains(t, statusErr.Body, "already exists")
			case *apierr.DecodeError:
				var decodeErr *apierr.DecodeError
				require.True(t, errors.As(err, &decodeErr))
			}
		})
	}
}

func TestNewConfluenceRequiresConfig(t *testing.T) {
	_, err := NewConfluence(ConfluenceConfig{URL: "https://example.atlassian.net"}, nil, nil)
	assert.Error(t, err)

	_, err = NewConfluence(ConfluenceConfig{URL: "https://example.atlassian.net", User: "u", APIToken: "t"}, nil, nil)
	assert.Error(t, err)
}

func TestWikiMarkup(t *testing.T) {
	flat := report.Report{
		Header: []string{"Incident", "Description"},
		Rows:   [][]string{{"1", "a|b [link] {code}\nnext"}, {"2", ""}},
	}

	assert.Equal(t,
		"h2. Incidents\n||Incident||Description||\n|1|a\\|b \\[link\\] \\{code\\} next|\n|2| |\n"+
			"\n"+
			"h2. Incidents by Ack\n||Ack||Count||\n|alice|2|\n|bob|1|\n",
		WikiMarkup(flat, groupedReport()))
}
