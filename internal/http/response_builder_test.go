package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"networth/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("X-Test"); got != "1" {
		t.Errorf("X-Test = %q", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"n":1}` {
		t.Errorf("Body = %q", got)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		builder  *JSONResponseBuilder
		wantCode int
		wantBody string
	}{
		{"not found", NotFoundError(), http.StatusNotFound, `{"message":"Net worth calculation not found"}`},
		{"internal", InternalError(), http.StatusInternalServerError, `{"message":"Internal server error"}`},
		{
			"validation",
			ValidationErrorResponse(core.ValidationErrors{{Path: []string{"assets", "checking"}, Message: "bad", Code: core.CodeTooSmall}}),
			http.StatusBadRequest,
			`{"message":"Invalid data","errors":[{"path":["assets","checking"],"message":"bad","code":"too_small"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("Body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}
