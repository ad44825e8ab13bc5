package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func whitelistCode(ips []string, clientIP string) int {
	r := gin.New()
	r.Use(IPWhitelist(ips))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if clientIP != "" {
		req.Header.Set("X-Real-IP", clientIP)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestIPWhitelist(t *testing.T) {
	cases := []struct {
		name string
		ips  []string
		from string
		want int
	}{
		{"empty list allows anyone", nil, "1.2.3.4", http.StatusOK},
		{"listed ip allowed", []string{"192.168.1.1"}, "192.168.1.1", http.StatusOK},
		{"unlisted ip blocked", []string{"10.0.0.1"}, "1.2.3.4", http.StatusForbidden},
		{"second entry allowed", []string{"10.0.0.1", "10.0.0.2"}, "10.0.0.2", http.StatusOK},
		{"near miss blocked", []string{"10.0.0.1", "10.0.0.2"}, "10.0.0.3", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, whitelistCode(tc.ips, tc.from))
		})
	}
}
