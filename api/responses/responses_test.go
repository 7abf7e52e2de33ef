package responses

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

func testResponsesLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{
		ServiceName: "clipdeck-test",
		Level:       logger.ParseLevel("error"),
		Output:      io.Discard,
	})
}

func decode(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	return payload
}

func TestWriteSuccessWrapsData(t *testing.T) {
	res := httptest.NewRecorder()
	WriteSuccess(res, map[string]string{"id": "pb_1_abcd1234"})

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
	payload := decode(t, res)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "pb_1_abcd1234", data["id"])
}

func TestWriteErrorSafeCodesExposeMessage(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", pkgerrors.New(pkgerrors.CodeValidation, "title is required"), http.StatusBadRequest, "title is required"},
		{"not found", pkgerrors.New(pkgerrors.CodeNotFound, "Clip x not found"), http.StatusNotFound, "Clip x not found"},
		{"conflict", pkgerrors.New(pkgerrors.CodeConflict, "clip document is contended, retry the request"), http.StatusConflict, "clip document is contended, retry the request"},
		{"upstream", pkgerrors.New(pkgerrors.CodeUpstream, "scheduled time must be in the future"), http.StatusUnprocessableEntity, "scheduled time must be in the future"},
		{"configuration", pkgerrors.New(pkgerrors.CodeConfiguration, "no Post Bridge API key on file"), http.StatusBadRequest, "no Post Bridge API key on file"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			WriteError(context.Background(), testResponsesLogger(t), res, tc.err)

			assert.Equal(t, tc.status, res.Code)
			payload := decode(t, res)
			errBody := payload["error"].(map[string]any)
			assert.Equal(t, tc.msg, errBody["message"])
		})
	}
}

func TestWriteErrorInternalHidesMessage(t *testing.T) {
	res := httptest.NewRecorder()
	WriteError(context.Background(), testResponsesLogger(t), res,
		pkgerrors.New(pkgerrors.CodeInternal, "pq: duplicate key value violates unique constraint"))

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	payload := decode(t, res)
	errBody := payload["error"].(map[string]any)
	assert.NotContains(t, errBody["message"], "pq:")
}

func TestWriteErrorUntypedBecomesInternal(t *testing.T) {
	res := httptest.NewRecorder()
	WriteError(context.Background(), testResponsesLogger(t), res, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	payload := decode(t, res)
	errBody := payload["error"].(map[string]any)
	assert.Equal(t, string(pkgerrors.CodeInternal), errBody["code"])
}

func TestWriteErrorDetailsOnlyWhenAllowed(t *testing.T) {
	allowed := pkgerrors.New(pkgerrors.CodeUpstream, "upstream rejected the request").
		WithDetails(map[string]any{"status": 422})
	res := httptest.NewRecorder()
	WriteError(context.Background(), testResponsesLogger(t), res, allowed)

	payload := decode(t, res)
	errBody := payload["error"].(map[string]any)
	require.Contains(t, errBody, "details")

	hidden := pkgerrors.New(pkgerrors.CodeInternal, "boom").
		WithDetails(map[string]any{"secret": true})
	res = httptest.NewRecorder()
	WriteError(context.Background(), testResponsesLogger(t), res, hidden)

	payload = decode(t, res)
	errBody = payload["error"].(map[string]any)
	assert.NotContains(t, errBody, "details")
}

func TestWriteErrorNilLoggerStillWrites(t *testing.T) {
	res := httptest.NewRecorder()
	WriteError(context.Background(), nil, res, pkgerrors.New(pkgerrors.CodeNotFound, "Clip y not found"))

	assert.Equal(t, http.StatusNotFound, res.Code)
}
