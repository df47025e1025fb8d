package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/filepicker/internal/auth"
	"github.com/dmitrijs2005/filepicker/internal/common"
	"github.com/dmitrijs2005/filepicker/internal/logging"
	"github.com/labstack/echo/v4"
)

const fileIDKey = "file_id"

const (
	sigV4Algorithm = "AWS4-HMAC-SHA256"
	amzDateLayout  = "20060102T150405Z"
	// maxPresignExpiry is the longest lifetime S3 accepts for a presigned URL.
	maxPresignExpiry = 7 * 24 * time.Hour
	// signedClockSkew bounds how far X-Amz-Date may be from the server clock.
	signedClockSkew = 15 * time.Minute
)

// RequireUploadToken rejects requests without a valid bearer upload token
// and stores the token subject under fileIDKey.
func RequireUploadToken(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(common.AuthorizationHeaderName)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
			}

			fileID, err := auth.GetFileIDFromToken(token, secret)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, common.ErrTokenExpired) {
					msg = "token expired"
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
			}

			c.Set(fileIDKey, fileID)
			return next(c)
		}
	}
}

// RequireSignedRequest admits requests that carry AWS SigV4 credentials,
// either as a presigned query or as an Authorization header, and rejects
// expired, not yet valid or malformed ones. The signature itself is not
// checked against any secret: the object routes are an unauthenticated
// development endpoint and must not be exposed beyond a trusted network.
func RequireSignedRequest(now func() time.Time) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			var err error
			if req.URL.Query().Has("X-Amz-Signature") {
				err = checkPresignedQuery(req.URL.Query(), now())
			} else {
				err = checkSignedHeader(req.Header, now())
			}
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
			}
			return next(c)
		}
	}
}

func checkPresignedQuery(q url.Values, now time.Time) error {
	if q.Get("X-Amz-Algorithm") != sigV4Algorithm || q.Get("X-Amz-Signature") == "" {
		return errors.New("unsupported signature")
	}
	signedAt, err := time.Parse(amzDateLayout, q.Get("X-Amz-Date"))
	if err != nil {
		return errors.New("invalid X-Amz-Date")
	}
	secs, err := strconv.Atoi(q.Get("X-Amz-Expires"))
	if err != nil || secs <= 0 || time.Duration(secs)*time.Second > maxPresignExpiry {
		return errors.New("invalid X-Amz-Expires")
	}

	if now.Before(signedAt.Add(-signedClockSkew)) {
		return errors.New("request is not yet valid")
	}
	if now.After(signedAt.Add(time.Duration(secs) * time.Second)) {
		return errors.New("request has expired")
	}
	return nil
}

func checkSignedHeader(h http.Header, now time.Time) error {
	if !strings.HasPrefix(h.Get(common.AuthorizationHeaderName), sigV4Algorithm+" ") {
		return errors.New("missing signature")
	}
	signedAt, err := time.Parse(amzDateLayout, h.Get("X-Amz-Date"))
	if err != nil {
		return errors.New("invalid X-Amz-Date")
	}
	if d := now.Sub(signedAt); d > signedClockSkew || d < -signedClockSkew {
		return fmt.Errorf("request time too skewed: %s", d.Round(time.Second))
	}
	return nil
}

// RequestLogger returns an echo middleware that logs every request.
func RequestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			logger.Info(req.Context(), "request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
				"bytes_in", req.ContentLength,
				"bytes_out", res.Size,
			)

			return err
		}
	}
}
