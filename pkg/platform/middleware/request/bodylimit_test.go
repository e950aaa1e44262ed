package request

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "under limit", size: 10},
		{name: "at limit", size: 100},
		{name: "empty", size: 0},
		{name: "over limit", size: 101, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				n       int
				readErr error
			)
			handler := BodyLimit(100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, err := io.ReadAll(r.Body)
				n, readErr = len(data), err
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/system/kill-switch", strings.NewReader(strings.Repeat("x", tt.size)))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantErr {
				require.Error(t, readErr)
				assert.Contains(t, readErr.Error(), "request body too large")
				return
			}
			require.NoError(t, readErr)
			assert.Equal(t, tt.size, n)
		})
	}
}
