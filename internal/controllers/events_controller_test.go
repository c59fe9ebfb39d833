package controllers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aftras/crm/internal/events"
	"github.com/aftras/crm/internal/models"
)

func openStream(t *testing.T, s *testServer, query string) (*bufio.Reader, context.CancelFunc) {
	t.Helper()
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events"+query, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token("agent-1", models.RoleAgent))

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "retry: 3000\n", line)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)
	return reader, cancel
}

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if name != "" {
				return name, data
			}
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventStreamDeliversSubscribedTopics(t *testing.T) {
	s := newTestServer(t)
	reader, cancel := openStream(t, s, "?topics=logo-changed")
	defer cancel()

	require.Eventually(t, func() bool { return s.bus.Count(events.TopicLogoChanged) == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, s.bus.Count(events.TopicSettingsChanged))

	s.bus.Publish(events.TopicSettingsChanged)
	s.bus.Publish(events.TopicLogoChanged)

	name, data := readEvent(t, reader)
	assert.Equal(t, "logo-changed", name)
	assert.JSONEq(t, `{"topic":"logo-changed"}`, data)
}

func TestEventStreamUnsubscribesOnDisconnect(t *testing.T) {
	s := newTestServer(t)
	_, cancel := openStream(t, s, "")
	for _, topic := range events.Topics {
		assert.Equal(t, 1, s.bus.Count(topic), topic)
	}

	cancel()
	require.Eventually(t, func() bool { return s.bus.Count(events.TopicRemoteLeadsChanged) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEventStreamRejectsUnknownTopic(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/events?topics=weather", nil, s.token("agent-1", models.RoleAgent))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseTopics(t *testing.T) {
	all, err := parseTopics("")
	require.NoError(t, err)
	assert.Equal(t, events.Topics, all)

	got, err := parseTopics(" logo-changed , settings-changed,logo-changed")
	require.NoError(t, err)
	assert.ElementsMatch(t, []events.Topic{events.TopicLogoChanged, events.TopicSettingsChanged}, got)
}
