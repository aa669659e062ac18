package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/immxrtalbeast/huddle/internal/repository"
	"github.com/immxrtalbeast/huddle/internal/service"
	"github.com/immxrtalbeast/huddle/lib/logger/handlers/slogdiscard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	srv      *httptest.Server
	svc      *service.Services
	registry *live.Registry
	client   *http.Client
}

func newTestAPI(t *testing.T, heartbeat time.Duration) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slogdiscard.NewDiscardLogger()
	store := repository.NewInMemoryStore()
	registry := live.NewRegistry()
	dispatcher := live.NewDispatcher(log, registry, store.Spaces)
	hub := live.NewHub(log, registry, live.HubOptions{HeartbeatInterval: heartbeat, ClientBuffer: 32})
	svc := service.New(log, store, dispatcher, nil)

	origins := []string{"http://localhost:3000"}
	router := SetupRouter(origins, Controllers{
		Auth:          NewAuthenticator(svc.Users, log),
		Users:         NewUserController(svc.Users, log),
		Spaces:        NewSpaceController(svc.Spaces, log),
		Proposals:     NewProposalController(svc.Proposals, log),
		Events:        NewEventController(svc.Events, log),
		Notifications: NewNotificationController(svc.Notifications, log),
		Comments:      NewCommentController(svc.Comments, log),
		Stream:        NewStreamController(hub, svc.Users, log, StreamOptions{AllowedOrigins: origins}),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		svc.Wait()
	})

	return &testAPI{
		srv:      srv,
		svc:      svc,
		registry: registry,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

// register creates a user and returns its id and bearer token.
func (a *testAPI) register(t *testing.T, name string) (string, string) {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/api/users", "", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, status)
	user := body["user"].(map[string]any)
	return user["id"].(string), body["token"].(string)
}

func (a *testAPI) createSpace(t *testing.T, token string) (string, string) {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/api/spaces", token, map[string]string{"name": "Friends"})
	require.Equal(t, http.StatusCreated, status)
	space := body["space"].(map[string]any)
	return space["id"].(string), space["invite_code"].(string)
}

// mediaType strips parameters such as charset from the Content-Type header.
func mediaType(t *testing.T, resp *http.Response) string {
	t.Helper()
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	return mt
}

type sseFrame struct {
	event string
	data  map[string]any
}

type sseStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
}

func (a *testAPI) openStream(t *testing.T, token string) (*http.Response, *sseStream) {
	t.Helper()
	resp, err := a.client.Get(a.srv.URL + "/api/live/stream?token=" + token)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp, &sseStream{body: resp.Body, reader: bufio.NewReader(resp.Body)}
}

func (s *sseStream) line(t *testing.T) string {
	t.Helper()
	line, err := s.reader.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\n")
}

// next returns the next frame that carries an event, skipping comments.
func (s *sseStream) next(t *testing.T) sseFrame {
	t.Helper()
	var (
		frame sseFrame
		data  strings.Builder
	)
	for {
		line := s.line(t)
		switch {
		case line == "":
			if frame.event == "" {
				continue
			}
			frame.data = map[string]any{}
			require.NoError(t, json.Unmarshal([]byte(data.String()), &frame.data))
			return frame
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			frame.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
}

func (s *sseStream) nextOfType(t *testing.T, event string) sseFrame {
	t.Helper()
	for {
		if f := s.next(t); f.event == event {
			return f
		}
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrUnauthorized, http.StatusUnauthorized, codeUnauthorized},
		{service.ErrNotMember, http.StatusForbidden, codeForbidden},
		{service.ErrGuestsNotAllowed, http.StatusForbidden, codeForbidden},
		{fmt.Errorf("lookup: %w", service.ErrNotFound), http.StatusNotFound, codeNotFound},
		{service.ErrNameRequired, http.StatusBadRequest, codeValidation},
		{service.ErrProposalClosed, http.StatusConflict, codeInvalidState},
		{service.ErrAlreadyConfirmed, http.StatusConflict, codeInvalidState},
		{errors.New("disk on fire"), http.StatusInternalServerError, codeInternal},
	}
	for _, tc := range cases {
		status, code := statusOf(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	api := newTestAPI(t, time.Hour)
	_, token := api.register(t, "alice")

	status, body := api.do(t, http.MethodGet, "/api/spaces", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, codeUnauthorized, body["code"])

	status, _ = api.do(t, http.MethodGet, "/api/spaces", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["user"].(map[string]any)["name"])
	assert.NotContains(t, body["user"], "token")
}

func TestErrorEnvelope(t *testing.T) {
	api := newTestAPI(t, time.Hour)
	_, alice := api.register(t, "alice")
	_, mallory := api.register(t, "mallory")
	spaceID, _ := api.createSpace(t, alice)

	status, body := api.do(t, http.MethodGet, "/api/spaces/"+spaceID+"/members", mallory, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, codeForbidden, body["code"])
	assert.NotEmpty(t, body["msg"])

	status, body = api.do(t, http.MethodPost, "/api/spaces/"+spaceID+"/proposals", alice, map[string]any{
		"title": "Dinner",
		"dates": []string{"tomorrow"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, codeValidation, body["code"])

	status, body = api.do(t, http.MethodGet, "/api/proposals/not-a-uuid", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, codeValidation, body["code"])

	status, body = api.do(t, http.MethodPost, "/api/spaces/join", alice, map[string]string{"invite_code": "ZZZZZZZZ"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, codeNotFound, body["code"])
}

func TestStreamRejectsBadTokenBeforeOpening(t *testing.T) {
	api := newTestAPI(t, time.Hour)

	for _, path := range []string{"/api/live/stream", "/api/live/stream?token=nope", "/api/live/ws?token=nope"} {
		resp, err := api.client.Get(api.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "application/json", mediaType(t, resp), path)
	}
	assert.Zero(t, api.registry.Count())
}

func TestStreamDeliversProposalLifecycle(t *testing.T) {
	api := newTestAPI(t, time.Hour)
	aliceID, alice := api.register(t, "alice")
	bobID, bob := api.register(t, "bob")
	spaceID, code := api.createSpace(t, alice)

	status, _ := api.do(t, http.MethodPost, "/api/spaces/join", bob, map[string]string{"invite_code": code})
	require.Equal(t, http.StatusOK, status)
	api.svc.Wait()

	resp, stream := api.openStream(t, bob)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", mediaType(t, resp))

	connected := stream.next(t)
	require.Equal(t, live.EventConnected, connected.event)
	assert.Equal(t, bobID, connected.data["userId"])

	status, body := api.do(t, http.MethodPost, "/api/spaces/"+spaceID+"/proposals", alice, map[string]any{
		"title": "Dinner",
		"dates": []string{"2026-02-10", "2026-02-11"},
	})
	require.Equal(t, http.StatusCreated, status)
	proposalID := body["proposal"].(map[string]any)["id"].(string)

	created := stream.nextOfType(t, live.EventProposalCreated)
	assert.Equal(t, proposalID, created.data["proposalId"])
	assert.Equal(t, "Dinner", created.data["title"])
	api.svc.Wait()

	status, _ = api.do(t, http.MethodPost, "/api/proposals/"+proposalID+"/votes", alice, map[string]string{
		"date":   "2026-02-11",
		"choice": "available",
	})
	require.Equal(t, http.StatusOK, status)

	voted := stream.nextOfType(t, live.EventProposalVoted)
	assert.Equal(t, aliceID, voted.data["userId"])
	assert.Equal(t, "alice", voted.data["nickname"])
	api.svc.Wait()

	status, body = api.do(t, http.MethodPost, "/api/proposals/"+proposalID+"/votes", bob, map[string]string{
		"date":   "2026-02-11",
		"choice": "available",
	})
	require.Equal(t, http.StatusOK, status)
	proposal := body["proposal"].(map[string]any)
	assert.Equal(t, "confirmed", proposal["status"])
	assert.Equal(t, "2026-02-11", proposal["final_date"])

	confirmed := stream.nextOfType(t, live.EventProposalConfirmed)
	assert.Equal(t, proposalID, confirmed.data["proposalId"])
	assert.Equal(t, "2026-02-11", confirmed.data["confirmed_date"])
	assert.Equal(t, true, confirmed.data["auto"])
	assert.Equal(t, proposal["event_id"], confirmed.data["eventId"])

	status, body = api.do(t, http.MethodGet, "/api/events/"+confirmed.data["eventId"].(string), bob, nil)
	require.Equal(t, http.StatusOK, status)
	event := body["event"].(map[string]any)
	assert.Equal(t, "Dinner", event["title"])
	assert.Equal(t, aliceID, event["owner_id"])
}

func TestStreamHeartbeatIsACommentLine(t *testing.T) {
	api := newTestAPI(t, 20*time.Millisecond)
	_, token := api.register(t, "alice")

	_, stream := api.openStream(t, token)
	require.Equal(t, live.EventConnected, stream.next(t).event)

	for {
		line := stream.line(t)
		if line == ": heartbeat" {
			break
		}
		require.Empty(t, line)
	}
	assert.Equal(t, 1, api.registry.Count())
}

func TestStreamUnregistersWhenClientLeaves(t *testing.T) {
	api := newTestAPI(t, time.Hour)
	_, token := api.register(t, "alice")

	_, stream := api.openStream(t, token)
	require.Equal(t, live.EventConnected, stream.next(t).event)
	require.Equal(t, 1, api.registry.Count())

	require.NoError(t, stream.body.Close())
	require.Eventually(t, func() bool { return api.registry.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCalendarExportEndpoint(t *testing.T) {
	api := newTestAPI(t, time.Hour)
	_, alice := api.register(t, "alice")
	spaceID, _ := api.createSpace(t, alice)

	status, _ := api.do(t, http.MethodPost, "/api/spaces/"+spaceID+"/events", alice, map[string]any{
		"title":      "Offsite",
		"start_date": "2026-03-01",
		"end_date":   "2026-03-02",
	})
	require.Equal(t, http.StatusCreated, status)

	req, err := http.NewRequest(http.MethodGet, api.srv.URL+"/api/spaces/"+spaceID+"/calendar.ics", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+alice)
	resp, err := api.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/calendar", mediaType(t, resp))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Offsite")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20260303")
}

func TestGuestVotingEndpoints(t *testing.T) {
	api := newTestAPI(t, time.Hour)
	_, alice := api.register(t, "alice")
	spaceID, _ := api.createSpace(t, alice)

	status, body := api.do(t, http.MethodPost, "/api/spaces/"+spaceID+"/proposals", alice, map[string]any{
		"title":        "Picnic",
		"dates":        []string{"2026-05-01"},
		"allow_guests": true,
	})
	require.Equal(t, http.StatusCreated, status)
	proposalID := body["proposal"].(map[string]any)["id"].(string)

	status, body = api.do(t, http.MethodGet, "/api/public/proposals/"+proposalID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Picnic", body["proposal"].(map[string]any)["title"])

	status, body = api.do(t, http.MethodPost, "/api/public/proposals/"+proposalID+"/votes", "", map[string]string{
		"name":   "Dana",
		"date":   "2026-05-01",
		"choice": "maybe",
	})
	require.Equal(t, http.StatusOK, status)
	candidates := body["proposal"].(map[string]any)["candidates"].([]any)
	counts := candidates[0].(map[string]any)["counts"].(map[string]any)
	assert.Equal(t, float64(1), counts["maybe"])
}

func TestSocketTransportSharesTheRegistry(t *testing.T) {
	api := newTestAPI(t, time.Hour)
	aliceID, alice := api.register(t, "alice")
	_, bob := api.register(t, "bob")
	spaceID, code := api.createSpace(t, alice)

	url := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/api/live/ws?token=" + alice
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, live.EventConnected, msg.Type)
	assert.Equal(t, aliceID, msg.Data["userId"])

	status, _ := api.do(t, http.MethodPost, "/api/spaces/join", bob, map[string]string{"invite_code": code})
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, live.EventMemberJoined, msg.Type)
	assert.Equal(t, spaceID, msg.Data["spaceId"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return api.registry.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
