package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecured(t *testing.T, opt SecurityOptions, pre gin.HandlerFunc, mut func(*http.Request)) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/posts", func(c *gin.Context) { c.String(http.StatusOK, "[]") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	if mut != nil {
		mut(req)
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /posts -> %d", w.Code)
	}
	return w.Header()
}

func TestSecurityHeaders_BaselineOnly(t *testing.T) {
	setRID := func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-123")
		c.Next()
	}
	h := serveSecured(t, SecurityOptions{}, setRID, nil)

	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	if h.Get("Permissions-Policy") != "" || h.Get("X-Permitted-Cross-Domain-Policies") != "" {
		t.Fatalf("unexpected policy headers: %#v", h)
	}
	if h.Get("Cache-Control") != "" || h.Get("Pragma") != "" || h.Get("Expires") != "" {
		t.Fatalf("unexpected cache headers: %#v", h)
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected HSTS: %#v", h)
	}
	if h.Get("Access-Control-Expose-Headers") != "X-Request-ID" {
		t.Fatalf("expected Access-Control-Expose-Headers=X-Request-ID, got %q",
			h.Get("Access-Control-Expose-Headers"))
	}
}

func TestSecurityHeaders_ExposeHeaderAppendAndDedupe(t *testing.T) {
	h := serveSecured(t, SecurityOptions{}, func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-abc")
		c.Header("Access-Control-Expose-Headers", "Retry-After")
		c.Next()
	}, nil)
	if got := h.Get("Access-Control-Expose-Headers"); got != "Retry-After, X-Request-ID" {
		t.Fatalf("expected 'Retry-After, X-Request-ID', got %q", got)
	}

	h = serveSecured(t, SecurityOptions{}, func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-xyz")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
		c.Next()
	}, nil)
	if got := h.Get("Access-Control-Expose-Headers"); got != "X-Request-ID, Retry-After" {
		t.Fatalf("expected unchanged expose header, got %q", got)
	}
}

func TestSecurityHeaders_PolicyNoStoreAndHSTSOverTLS(t *testing.T) {
	h := serveSecured(t, SecurityOptions{
		EnableHSTS:   true,
		HSTSMaxAge:   24 * time.Hour,
		NoStore:      true,
		EnablePolicy: true,
	}, nil, func(req *http.Request) {
		req.TLS = &tls.ConnectionState{}
	})

	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("missing policy headers: %#v", h)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("missing cache headers: %#v", h)
	}
	want := "max-age=86400; includeSubDomains; preload"
	if h.Get("Strict-Transport-Security") != want {
		t.Fatalf("expected HSTS %q, got %q", want, h.Get("Strict-Transport-Security"))
	}
}

func TestSecurityHeaders_HSTSBehindProxy(t *testing.T) {
	h := serveSecured(t, SecurityOptions{
		EnableHSTS: true,
		HSTSMaxAge: time.Hour,
	}, nil, func(req *http.Request) {
		req.Header.Set("X-Forwarded-Proto", "https")
	})
	if got := h.Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=") {
		t.Fatalf("expected HSTS header, got %q", got)
	}
}

func TestSecurityHeaders_NoHSTSOnPlainHTTP(t *testing.T) {
	h := serveSecured(t, SecurityOptions{
		EnableHSTS: true,
		HSTSMaxAge: time.Hour,
	}, nil, nil)
	if got := h.Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS must not be sent over plain HTTP, got %q", got)
	}
}

func Test_isHTTPS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(req) {
		t.Fatalf("plain HTTP should not be https")
	}
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.TLS = &tls.ConnectionState{}
	if !isHTTPS(req2) {
		t.Fatalf("TLS request should be https")
	}
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !isHTTPS(req3) {
		t.Fatalf("X-Forwarded-Proto=https should be https")
	}
}

func Test_itoa_and_strconvItoa(t *testing.T) {
	if itoa(0) != "0" {
		t.Fatalf("itoa(0) != '0'")
	}
	for _, v := range []int{1, 9, 10, 3600, 1234567890, -1, -42} {
		if itoa(v) != strconv.Itoa(v) {
			t.Fatalf("itoa(%d) mismatch: got %q want %q", v, itoa(v), strconv.Itoa(v))
		}
	}
}
