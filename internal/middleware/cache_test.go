package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dangoo/shop-backend/internal/config"
)

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{
		"Content-Type": []string{"application/json; charset=UTF-8"},
		"X-Custom":     []string{"a", "b"},
	}
	body := []byte(`{"success":true,"products":[]}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsTruncatedData(t *testing.T) {
	for _, bs := range [][]byte{nil, {1, 2, 3}, {0, 0, 0, 200, 0, 0, 1, 0}} {
		_, _, _, ok := decodePayload(bs)
		assert.False(t, ok)
	}
}

func cacheCtx(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/products")
	return c
}

func TestCacheKeyDependsOnQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "catalog", KeyStrategy: "route_query"}

	a := cacheKeyFrom(cfg, cacheCtx("/api/products?categoryId=1"))
	b := cacheKeyFrom(cfg, cacheCtx("/api/products?categoryId=2"))
	again := cacheKeyFrom(cfg, cacheCtx("/api/products?categoryId=1"))

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
	assert.Contains(t, a, "catalog:")
}

func TestCacheKeyRouteStrategyIgnoresQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "catalog", KeyStrategy: "route"}

	a := cacheKeyFrom(cfg, cacheCtx("/api/products?categoryId=1"))
	b := cacheKeyFrom(cfg, cacheCtx("/api/products?categoryId=2"))
	assert.Equal(t, a, b)
}

func TestCaptureWriterHonorsLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}

	n, err := cw.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	// Client gets everything, the capture buffer stops at the limit.
	assert.Equal(t, "abcdef", rec.Body.String())
	assert.Equal(t, "abcd", cw.buf.String())
	assert.Equal(t, int64(6), cw.size)
}

func TestCaptureWriterCountsWritesPastLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}

	// First write lands exactly on the limit, later writes must still
	// grow size so the truncated capture is never mistaken for complete.
	_, err := cw.Write([]byte("abcd"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("ef"))
	require.NoError(t, err)

	assert.Equal(t, "abcdef", rec.Body.String())
	assert.Equal(t, "abcd", cw.buf.String())
	assert.Equal(t, int64(6), cw.size)
	assert.Greater(t, cw.size, cw.limit)
}

func TestDisabledCacheIsPassThrough(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: false}, nil)
	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	c := cacheCtx("/api/products")
	require.NoError(t, h(c))
	assert.True(t, called)
}
