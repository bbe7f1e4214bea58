package httpapi_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdesk/bookdesk/library/app"
	"github.com/bookdesk/bookdesk/library/httpapi"
	"github.com/bookdesk/bookdesk/testutil/helper"
	"github.com/bookdesk/bookdesk/testutil/helper/storewrapper"
)

const testTokenTTL = time.Hour

type apiClient struct {
	t         *testing.T
	server    *httptest.Server
	tokens    *httpapi.Tokens
	passwords map[string]string
}

func givenAPI(t *testing.T) *apiClient {
	t.Helper()

	es := storewrapper.CreateWrapperWithTestConfig(t).GetEventStore()
	library := app.New(es, app.WithClock(helper.FakeClock))

	_, err := library.EnsureAdmin(context.Background(), "admin", "secret", "Ada Librarian")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	tokens := httpapi.NewTokens([]byte("test-secret"), testTokenTTL)
	server := httptest.NewServer(httpapi.Router(library, logger, metrics, tokens))
	t.Cleanup(server.Close)

	return &apiClient{t: t, server: server, tokens: tokens, passwords: map[string]string{"admin": "secret"}}
}

func (c *apiClient) givenMember(username, password string) {
	c.t.Helper()

	status, _ := c.do(http.MethodPost, "/api/members", "", app.NewMember{Username: username, Password: password, FullName: username})
	require.Equal(c.t, http.StatusCreated, status)
	c.passwords[username] = password
}

// token logs actor in with the password it was registered with.
func (c *apiClient) token(actor string) string {
	c.t.Helper()

	status, body := c.send(http.MethodPost, "/api/login", nil, map[string]string{"username": actor, "password": c.passwords[actor]})
	require.Equal(c.t, http.StatusOK, status)

	return body["token"].(string)
}

// do sends a request as actor, anonymously when actor is empty.
func (c *apiClient) do(method, path, actor string, body any) (int, map[string]any) {
	c.t.Helper()

	header := http.Header{}
	if actor != "" {
		header.Set("Authorization", "Bearer "+c.token(actor))
	}

	return c.send(method, path, header, body)
}

func (c *apiClient) send(method, path string, header http.Header, body any) (int, map[string]any) {
	c.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		encoded, err := jsoniter.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	for name, values := range header {
		req.Header[name] = values
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	decoded := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(c.t, jsoniter.Unmarshal(raw, &decoded))
	} else if len(raw) > 0 && raw[0] == '[' {
		var items []any
		require.NoError(c.t, jsoniter.Unmarshal(raw, &items))
		decoded["items"] = items
	}

	return resp.StatusCode, decoded
}

func errorType(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	errType, _ := errBody["type"].(string)

	return errType
}

func Test_API_LoanLifecycle(t *testing.T) {
	// arrange
	api := givenAPI(t)
	api.givenMember("alice", "pw")

	status, added := api.do(http.MethodPost, "/api/books", "admin", app.NewBook{Title: "Dune", Author: "Herbert"})
	require.Equal(t, http.StatusCreated, status)
	bookID := added["id"].(string)

	// act
	status, requested := api.do(http.MethodPost, "/api/loans", "alice", map[string]string{"bookId": bookID})
	require.Equal(t, http.StatusCreated, status)
	recordID := requested["id"].(string)

	approveStatus, _ := api.do(http.MethodPost, "/api/loans/"+recordID+"/approve", "admin", nil)
	_, book := api.do(http.MethodGet, "/api/books/"+bookID, "", nil)
	_, loans := api.do(http.MethodGet, "/api/members/alice/loans", "alice", nil)
	repeatStatus, repeated := api.do(http.MethodPost, "/api/loans/"+recordID+"/approve", "admin", nil)

	// assert
	assert.Equal(t, http.StatusOK, approveStatus)
	assert.Equal(t, false, book["available"])
	require.Len(t, loans["items"], 1)
	assert.Equal(t, recordID, loans["items"].([]any)[0].(map[string]any)["recordId"])
	assert.Equal(t, http.StatusOK, repeatStatus)
	assert.Equal(t, true, repeated["idempotent"])
}

func Test_API_ErrorMapping(t *testing.T) {
	api := givenAPI(t)
	api.givenMember("alice", "pw")

	testCases := []struct {
		name       string
		method     string
		path       string
		actor      string
		body       any
		wantStatus int
		wantType   string
	}{
		{"missing book", http.MethodGet, "/api/books/nope", "", nil, http.StatusNotFound, "NOT_FOUND"},
		{"member adds book", http.MethodPost, "/api/books", "alice", app.NewBook{Title: "T", Author: "A"}, http.StatusForbidden, "FORBIDDEN"},
		{"wrong password", http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "x"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"duplicate member", http.MethodPost, "/api/members", "", app.NewMember{Username: "alice", Password: "pw", FullName: "A"}, http.StatusConflict, "CONFLICT"},
		{"malformed body", http.MethodPost, "/api/books", "admin", "{not json", http.StatusBadRequest, "INVALID_INPUT"},
		{"missing title", http.MethodPost, "/api/books", "admin", app.NewBook{Author: "A"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown search field", http.MethodGet, "/api/books?q=x&field=isbn", "", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown transition", http.MethodPost, "/api/loans/r-1/teleport", "admin", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"anonymous dashboard", http.MethodGet, "/api/dashboard", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"oversized body", http.MethodPost, "/api/members", "", `{"username":"` + strings.Repeat("a", 1<<20) + `"}`, http.StatusRequestEntityTooLarge, "INVALID_INPUT"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			status, body := api.do(tc.method, tc.path, tc.actor, tc.body)

			// assert
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantType, errorType(body))
		})
	}
}

func Test_API_Login(t *testing.T) {
	// arrange
	api := givenAPI(t)

	// act
	status, body := api.do(http.MethodPost, "/api/login", "", map[string]string{"username": "Admin", "password": "secret"})

	// assert
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body["memberId"])
	assert.Equal(t, "admin", body["role"])
	require.IsType(t, "", body["token"])
	memberID, err := api.tokens.Verify(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "admin", memberID)
}

func Test_API_BareMemberHeader_IsUnauthorized(t *testing.T) {
	// arrange
	api := givenAPI(t)
	header := http.Header{}
	header.Set("X-Member-ID", "admin")

	// act
	addStatus, added := api.send(http.MethodPost, "/api/books", header, app.NewBook{Title: "Dune", Author: "Herbert"})
	membersStatus, _ := api.send(http.MethodGet, "/api/members", header, nil)
	_, catalog := api.send(http.MethodGet, "/api/books", nil, nil)

	// assert
	assert.Equal(t, http.StatusUnauthorized, addStatus)
	assert.Equal(t, "UNAUTHORIZED", errorType(added))
	assert.Equal(t, http.StatusUnauthorized, membersStatus)
	assert.Empty(t, catalog["items"])
}

func Test_API_RejectsBadTokens(t *testing.T) {
	api := givenAPI(t)
	valid := api.token("admin")
	claims, _, _ := strings.Cut(valid, ".")
	forged, _, err := httpapi.NewTokens([]byte("other-secret"), testTokenTTL).Issue("admin")
	require.NoError(t, err)
	expired, _, err := httpapi.NewTokens([]byte("test-secret"), testTokenTTL,
		httpapi.WithTokenClock(func() time.Time { return time.Now().Add(-2 * testTokenTTL) })).Issue("admin")
	require.NoError(t, err)

	testCases := []struct {
		name          string
		authorization string
	}{
		{"no bearer scheme", valid},
		{"missing signature", "Bearer " + claims},
		{"tampered signature", "Bearer " + claims + ".AAAA"},
		{"signed with another secret", "Bearer " + forged},
		{"expired", "Bearer " + expired},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			header := http.Header{}
			header.Set("Authorization", tc.authorization)

			// act
			status, body := api.send(http.MethodGet, "/api/books", header, nil)

			// assert
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "UNAUTHORIZED", errorType(body))
		})
	}
}

func Test_API_Dashboard(t *testing.T) {
	// arrange
	api := givenAPI(t)
	status, _ := api.do(http.MethodPost, "/api/books", "admin", app.NewBook{Title: "Dune", Author: "Herbert"})
	require.Equal(t, http.StatusCreated, status)

	// act
	status, stats := api.do(http.MethodGet, "/api/dashboard", "admin", nil)

	// assert
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, stats["totalBooks"])
	assert.EqualValues(t, 1, stats["availableBooks"])
	assert.EqualValues(t, 1, stats["members"])
}

func Test_API_HealthAndMetrics(t *testing.T) {
	api := givenAPI(t)

	healthStatus, health := api.do(http.MethodGet, "/healthz", "", nil)
	metricsStatus, _ := api.do(http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, healthStatus)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, http.StatusOK, metricsStatus)
}
