package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/portfolio-api/internal/config"
	"github.com/iliyamo/portfolio-api/internal/logging"
)

// captureWriter copies the response body while forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// truncated reports whether the body outgrew the capture limit.
func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

// ResponseCache keeps successful public GET responses in Redis, grouped by
// resource so one write can drop every cached list and detail of it. A nil
// *ResponseCache is valid and caches nothing.
type ResponseCache struct {
	rdb *redis.Client
	cfg config.CacheConfig
	log logging.Logger
}

// NewResponseCache returns nil when caching is disabled or Redis is absent.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log logging.Logger) *ResponseCache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return &ResponseCache{rdb: rdb, cfg: cfg, log: log}
}

// cacheKey is <prefix>:<resource>:<sha1(path?query)>.
func cacheKey(prefix, resource string, r *http.Request) string {
	sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%s:%x", prefix, resource, sum[:])
}

// Middleware caches GET responses for resource.
func (rc *ResponseCache) Middleware(resource string) echo.MiddlewareFunc {
	if rc == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(rc.cfg.Prefix, resource, c.Request())

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if !cacheableHeader(k) {
							continue
						}
						c.Response().Header()[http.CanonicalHeaderKey(k)] = append([]string(nil), vals...)
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated() {
				return nil
			}

			hdr := make(http.Header)
			for k, vals := range c.Response().Header() {
				if cacheableHeader(k) {
					hdr[k] = append([]string(nil), vals...)
				}
			}
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := rc.rdb.Set(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
				rc.log.Warn(ctx, "cache: store failed", "key", key, "err", err)
			}
			return nil
		}
	}
}

// perRequestHeaders are written by the global middleware or the limiter on
// every request, so a cached copy would duplicate or contradict them.
var perRequestHeaders = canonicalSet(
	echo.HeaderContentLength,
	echo.HeaderXRequestID,
	echo.HeaderVary,
	echo.HeaderXXSSProtection,
	echo.HeaderXContentTypeOptions,
	echo.HeaderXFrameOptions,
	echo.HeaderStrictTransportSecurity,
	echo.HeaderContentSecurityPolicy,
	echo.HeaderContentSecurityPolicyReportOnly,
	echo.HeaderReferrerPolicy,
	echo.HeaderRetryAfter,
	"X-Cache",
)

func canonicalSet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[http.CanonicalHeaderKey(k)] = true
	}
	return m
}

// cacheableHeader reports whether k belongs to the handler's response rather
// than to the request it happened to answer.
func cacheableHeader(k string) bool {
	k = http.CanonicalHeaderKey(k)
	if perRequestHeaders[k] {
		return false
	}
	return !strings.HasPrefix(k, "Access-Control-") && !strings.HasPrefix(k, "X-Ratelimit-")
}

// Invalidate deletes every cached response of resource.
func (rc *ResponseCache) Invalidate(ctx context.Context, resource string) error {
	if rc == nil {
		return nil
	}
	pattern := fmt.Sprintf("%s:%s:*", rc.cfg.Prefix, resource)
	iter := rc.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rc.rdb.Del(ctx, keys...).Err()
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}
