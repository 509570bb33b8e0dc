package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(remoteAddr string, headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{
			name:       "forwarded-for takes the leftmost entry",
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2, 10.0.0.3"},
			expected:   "203.0.113.9",
		},
		{
			name:       "invalid forwarded-for falls through to real-ip",
			remoteAddr: "10.0.0.1:443",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip", "X-Real-IP": "198.51.100.7"},
			expected:   "198.51.100.7",
		},
		{
			name:       "direct connection strips the port",
			remoteAddr: "192.0.2.44:51234",
			headers:    nil,
			expected:   "192.0.2.44",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.44",
			headers:    nil,
			expected:   "192.0.2.44",
		},
		{
			name:       "garbage everywhere falls back to loopback",
			remoteAddr: "garbage",
			headers:    nil,
			expected:   "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testContext(tt.remoteAddr, tt.headers)
			assert.Equal(t, tt.expected, ExtractClientIP(c))
		})
	}
}
