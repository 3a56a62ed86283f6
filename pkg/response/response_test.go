package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

func doRequest(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/t", handler)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	r.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestJSONMarksSuccess(t *testing.T) {
	rec, body := doRequest(t, func(c *gin.Context) {
		JSON(c, http.StatusOK, gin.H{"id": "f1"}, nil)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	require.NotNil(t, body["data"])
	assert.Nil(t, body["error"])
}

func TestMessageIsSuccessfulWithoutData(t *testing.T) {
	rec, body := doRequest(t, func(c *gin.Context) {
		Message(c, "filiere deleted")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "filiere deleted", body["message"])
	assert.Nil(t, body["data"])
}

func TestErrorMarksFailure(t *testing.T) {
	rec, body := doRequest(t, func(c *gin.Context) {
		Error(c, appErrors.Clone(appErrors.ErrNotFound, "note not found"))
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
}

func TestErrorSanitizesInProduction(t *testing.T) {
	SetSanitize(true)
	defer SetSanitize(false)

	_, body := doRequest(t, func(c *gin.Context) {
		Error(c, appErrors.Clone(appErrors.ErrInternal, "pq: relation notes does not exist"))
	})

	assert.Equal(t, false, body["success"])
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "an unexpected error occurred", errObj["message"])
	assert.Nil(t, errObj["details"])
}
