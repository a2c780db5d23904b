package output

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynoinc/incidentreport/internal/report"
)

func TestSlackWrite(t *testing.T) {
	var (
		mu    sync.Mutex
		posts []map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())

		mu.Lock()
		posts = append(posts, map[string]string{
			"channel": r.Form.Get("channel"),
			"text":    r.Form.Get("text"),
			"blocks":  r.Form.Get("blocks"),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "channel": "C123", "ts": "1715000000.000100"}`))
	}))
	t.Cleanup(srv.Close)

	s, err := NewSlack(SlackConfig{BotToken: "xoxb-test", ChannelID: "C123", APIURL: srv.URL + "/"})
	require.NoError(t, err)

	flat := report.Report{Header: []string{"Incident", "Ack"}, Rows: [][]string{{"1", "alice"}}}
	require.NoError(t, s.Write(context.Background(), flat, groupedReport()))

	require.Len(t, posts, 2)
	assert.Equal(t, "C123", posts[0]["channel"])
	assert.Equal(t, "Incidents", posts[0]["text"])
	assert.Equal(t, "Incidents by Ack", posts[1]["text"])
	assert.Contains(t, posts[1]["blocks"], "alice")
	assert.Contains(t, posts[1]["blocks"], "2 rows")
}

func TestSlackWriteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	}))
	t.Cleanup(srv.Close)

	s, err := NewSlack(SlackConfig{BotToken: "xoxb-test", ChannelID: "C404", APIURL: srv.URL + "/"})
	require.NoError(t, err)

	err = s.Write(context.Background(), groupedReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestSlackBlocksTruncateLongTables(t *testing.T) {
	r := report.Report{Header: []string{"Description", "Count"}}
	for range 200 {
		r.Rows = append(r.Rows, []string{strings.Repeat("x", 40), "1"})
	}

	blocks := slackBlocks("Incidents by Description", r)
	require.Len(t, blocks, 3)

	section := blocks[1].(*slack.SectionBlock)
	assert.LessOrEqual(t, len(section.Text.Text), maxSectionText)
	assert.True(t, strings.HasSuffix(section.Text.Text, "...\n```"))
}

func TestNewSlackRequiresConfig(t *testing.T) {
	_, err := NewSlack(SlackConfig{BotToken: "xoxb"})
	assert.Error(t, err)
}
