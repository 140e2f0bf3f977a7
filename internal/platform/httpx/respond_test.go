package httpx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemUsesProblemJSONMediaType(t *testing.T) {
	res := httptest.NewRecorder()
	Problem(res, 403, "Forbidden", "missing permission: edit_building")

	assert.Equal(t, 403, res.Code)
	assert.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Body.String(), `"title":"Forbidden"`)
	assert.Contains(t, res.Body.String(), `"status":403`)
}

func TestJSONSetsContentType(t *testing.T) {
	res := httptest.NewRecorder()
	JSON(res, 200, map[string]string{"status": "ok"})

	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Body.String(), `"status":"ok"`)
}

func TestDecodeJSONBoundsBody(t *testing.T) {
	small := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"North Tower"}`))
	var payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, DecodeJSON(small, &payload))
	assert.Equal(t, "North Tower", payload.Name)

	oversized := httptest.NewRequest("POST", "/", strings.NewReader(
		`{"name":"`+strings.Repeat("a", maxBodyBytes)+`"}`))
	assert.Error(t, DecodeJSON(oversized, &payload))
}
