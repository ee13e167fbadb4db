package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/xsphere-io/cardlegends-client/internal/assetclient"
)

func normalizeOrigin(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	u, err := url.Parse(in)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	return fmt.Sprintf("%s://%s", scheme, strings.ToLower(u.Host))
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, o := range in {
		o = normalizeOrigin(o)
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

// statusFor maps the client failure taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, assetclient.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, assetclient.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, assetclient.ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, assetclient.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, assetclient.ErrSubmissionFailed), errors.Is(err, assetclient.ErrQueryFailed):
		return http.StatusBadGateway
	case errors.Is(err, assetclient.ErrMintFailed), errors.Is(err, assetclient.ErrIndeterminateOperation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes {ok:false,error} merged with extra fields.
func writeError(c *gin.Context, err error, extra gin.H) {
	body := gin.H{JSONKeyOK: false, JSONKeyError: err.Error()}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(statusFor(err), body)
}

func writeBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{JSONKeyOK: false, JSONKeyError: msg})
}
