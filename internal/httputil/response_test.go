package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusBadGateway, "fetch rows: timeout", map[string]interface{}{"request_id": "abc"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bad Gateway", body["title"])
	assert.Equal(t, "fetch rows: timeout", body["detail"])
	assert.Equal(t, "abc", body["request_id"])
	assert.Contains(t, body["type"], "section-6.6.3")
}

func TestRespondAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondAttachment(rec, "text/csv; charset=utf-8", "DP_Tracker_16.10.2026.csv", []byte("1,1,P-1\r\n"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=DP_Tracker_16.10.2026.csv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "9", rec.Header().Get("Content-Length"))
	assert.Equal(t, "1,1,P-1\r\n", rec.Body.String())
}

func TestParseJSON(t *testing.T) {
	var dest struct {
		IDs []int64 `json:"ids"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":[1,2]}`))
	require.NoError(t, ParseJSON(httptest.NewRecorder(), r, &dest))
	assert.Equal(t, []int64{1, 2}, dest.IDs)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, ParseJSON(httptest.NewRecorder(), r, &dest), ErrEmptyBody)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	assert.Error(t, ParseJSON(httptest.NewRecorder(), r, &dest))
}
