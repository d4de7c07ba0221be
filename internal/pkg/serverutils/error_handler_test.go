package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"policylens-be/pkg/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Question string `validate:"required,max=5"`
	Level    string `validate:"omitempty,oneof=INFO WARN"`
}

func TestErrorHandlerMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"course not found", fmt.Errorf("%w: %q", policy.ErrCourseNotFound, "math100"), http.StatusNotFound, `course not found: "math100"`},
		{"facts unavailable", &policy.LookupError{Course: "cpsc110", Err: errors.New("eof")}, http.StatusServiceUnavailable, ""},
		{"fiber error", fiber.NewError(fiber.StatusTeapot, "short and stout"), http.StatusTeapot, "short and stout"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "boom"},
		{"validation", ValidateRequest(sampleRequest{Question: "too long"}), http.StatusBadRequest, "Invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var body Response[json.RawMessage]
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantStatus, body.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Message)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sampleRequest{Question: "hi"}))

	err := ValidateRequest(sampleRequest{Level: "DEBUG"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{
		"question": "is required",
		"level":    "must be one of [INFO WARN]",
	}, ve.Fields)
}

func TestSuccessResponse(t *testing.T) {
	res := SuccessResponse("ok", []string{"a"})
	assert.True(t, res.Success)
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, []string{"a"}, res.Data)
}
