package respond

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	log, hook := test.NewNullLogger()
	rec := httptest.NewRecorder()
	JSON(rec, log, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
	assert.Empty(t, hook.AllEntries())
}

func TestUnauthorized(t *testing.T) {
	log, _ := test.NewNullLogger()
	rec := httptest.NewRecorder()
	Unauthorized(rec, log, "nope")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"error":"nope"}`, rec.Body.String())
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestJSON_EncodeFailureUsesInjectedLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	w := failingWriter{httptest.NewRecorder()}

	JSON(w, log, http.StatusOK, map[string]string{"status": "ok"})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusOK, entry.Data["status_code"])
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "connection reset")
}
