package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azureanc-hub/filevault/internal/metrics"
	"github.com/azureanc-hub/filevault/pkg/config"
	"github.com/azureanc-hub/filevault/pkg/engine"
	"github.com/azureanc-hub/filevault/pkg/registry"
	"github.com/azureanc-hub/filevault/pkg/registry/memory"
)

const (
	aliceID = "0xaaaa00000000000000000000000000000000a11c"
	bobID   = "0xbbbb0000000000000000000000000000000000b0"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })

	srv := New(engine.New(store), metrics.New(), config.ServerConfig{ListenAddr: ":0"})
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

// do issues a request with the given identity and decodes the JSON response
// into out (when out is non-nil).
func do(t *testing.T, ts *httptest.Server, method, path, identity string, body, out any) int {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	require.NoError(t, err)
	if identity != "" {
		req.Header.Set("X-Identity", identity)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// errorCode extracts the machine-readable code from an error envelope.
func errorCode(t *testing.T, ts *httptest.Server, method, path, identity string, body any) (int, string) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	status := do(t, ts, method, path, identity, body, &envelope)
	return status, envelope.Error.Code
}

func uploadFile(t *testing.T, ts *httptest.Server, owner, name string, public bool) registry.FileRecord {
	t.Helper()
	var record registry.FileRecord
	status := do(t, ts, http.MethodPost, "/v1/files", owner, map[string]any{
		"file_name":    name,
		"file_type":    "document",
		"content_hash": "Qm" + name,
		"file_size":    4096,
		"is_public":    public,
	}, &record)
	require.Equal(t, http.StatusCreated, status)
	require.NotZero(t, record.ID)
	return record
}

func TestAPI_UploadAndFetch(t *testing.T) {
	ts := newTestServer(t)

	record := uploadFile(t, ts, aliceID, "hello.txt", false)

	var fetched registry.FileRecord
	status := do(t, ts, http.MethodGet, fmt.Sprintf("/v1/files/%d", record.ID), aliceID, nil, &fetched)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hello.txt", fetched.FileName)
	assert.Equal(t, registry.Identity(aliceID), fetched.Owner)
}

func TestAPI_MissingIdentityRejected(t *testing.T) {
	ts := newTestServer(t)

	status, code := errorCode(t, ts, http.MethodGet, "/v1/files/mine", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_IDENTITY", code)
}

func TestAPI_PrivateFileHiddenFromStranger(t *testing.T) {
	ts := newTestServer(t)

	record := uploadFile(t, ts, aliceID, "secret.txt", false)

	status, code := errorCode(t, ts, http.MethodGet, fmt.Sprintf("/v1/files/%d", record.ID), bobID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", code)
}

func TestAPI_AccountGrantFlow(t *testing.T) {
	ts := newTestServer(t)

	record := uploadFile(t, ts, aliceID, "shared.txt", false)

	// Bob is denied before the grant.
	status, code := errorCode(t, ts, http.MethodGet, "/v1/users/"+aliceID+"/files", bobID, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ACCESS_DENIED", code)

	status = do(t, ts, http.MethodPost, "/v1/access/account", aliceID,
		map[string]string{"grantee": bobID}, nil)
	require.Equal(t, http.StatusOK, status)

	var records []registry.FileRecord
	status = do(t, ts, http.MethodGet, "/v1/users/"+aliceID+"/files", bobID, nil, &records)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)

	// Revoke closes the path again.
	status = do(t, ts, http.MethodDelete, "/v1/access/account/"+bobID, aliceID, nil, nil)
	require.Equal(t, http.StatusOK, status)

	status, code = errorCode(t, ts, http.MethodGet, "/v1/users/"+aliceID+"/files", bobID, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ACCESS_DENIED", code)
}

func TestAPI_SelfGrantRejected(t *testing.T) {
	ts := newTestServer(t)

	status, code := errorCode(t, ts, http.MethodPost, "/v1/access/account", aliceID,
		map[string]string{"grantee": aliceID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "SELF_GRANT", code)
}

func TestAPI_FileGrantAndSummary(t *testing.T) {
	ts := newTestServer(t)

	record := uploadFile(t, ts, aliceID, "single.txt", false)
	uploadFile(t, ts, aliceID, "rest.txt", false)

	status := do(t, ts, http.MethodPost, "/v1/access/files", aliceID,
		map[string]any{"file_id": record.ID, "grantee": bobID}, nil)
	require.Equal(t, http.StatusOK, status)

	var summary registry.AccessSummary
	status = do(t, ts, http.MethodGet, "/v1/users/"+aliceID+"/access", bobID, nil, &summary)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, summary.HasGeneralAccess)
	assert.Equal(t, []uint64{record.ID}, summary.AccessibleFileIDs)
	assert.Equal(t, 1, summary.TotalAccessibleFiles)
}

func TestAPI_DeleteUnauthorized(t *testing.T) {
	ts := newTestServer(t)

	record := uploadFile(t, ts, aliceID, "protected.txt", false)

	status, code := errorCode(t, ts, http.MethodDelete, fmt.Sprintf("/v1/files/%d", record.ID), bobID, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "UNAUTHORIZED", code)
}

func TestAPI_PublicListing(t *testing.T) {
	ts := newTestServer(t)

	uploadFile(t, ts, aliceID, "private.txt", false)
	public := uploadFile(t, ts, aliceID, "open.txt", true)

	var records []registry.FileRecord
	status := do(t, ts, http.MethodGet, "/v1/files/public", bobID, nil, &records)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, records, 1)
	assert.Equal(t, public.ID, records[0].ID)
}

func TestAPI_EventsFeed(t *testing.T) {
	ts := newTestServer(t)

	uploadFile(t, ts, aliceID, "one.txt", false)
	uploadFile(t, ts, aliceID, "two.txt", false)

	var events []registry.AuditEvent
	status := do(t, ts, http.MethodGet, "/v1/events?after=0&limit=1", aliceID, nil, &events)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, registry.EventFileUploaded, events[0].Kind)

	status, code := errorCode(t, ts, http.MethodGet, "/v1/events?limit=nope", aliceID, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ARGUMENT", code)
}

func TestAPI_MalformedFileID(t *testing.T) {
	ts := newTestServer(t)

	status, code := errorCode(t, ts, http.MethodGet, "/v1/files/notanumber", aliceID, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ARGUMENT", code)
}

func TestAPI_RateLimited(t *testing.T) {
	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })

	srv := New(engine.New(store), nil, config.ServerConfig{
		ListenAddr: ":0",
		RateLimit:  1,
		RateBurst:  2,
	})
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)

	// The burst admits two requests, the third is rejected.
	for i := 0; i < 2; i++ {
		status := do(t, ts, http.MethodGet, "/healthz", aliceID, nil, nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, code := errorCode(t, ts, http.MethodGet, "/healthz", aliceID, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", code)

	// A different caller still gets through.
	status = do(t, ts, http.MethodGet, "/healthz", bobID, nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_Health(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	status := do(t, ts, http.MethodGet, "/healthz", "", nil, &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}
