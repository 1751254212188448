package request

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// NewHTTPClient returns the http.Client behind a resty client configured with the given timeout and proxy.
// An empty proxy falls back to HTTP(S)_PROXY from the environment. No retries are configured.
// Responses report their status to a StatusRecorder carried by the request context.
func NewHTTPClient(timeout time.Duration, proxy string) *http.Client {
	r := resty.New().SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment, // 通用适配环境变量
	}).SetTimeout(timeout)

	if proxy != "" {
		r.SetProxy(proxy)
	}

	client := r.GetClient()
	client.Transport = &statusTransport{base: client.Transport}
	return client
}

type statusKey struct{}

// StatusRecorder holds the HTTP status of the last response received under its context
type StatusRecorder struct {
	Code int
}

// WithStatusRecorder attaches a fresh StatusRecorder to ctx
func WithStatusRecorder(ctx context.Context) (context.Context, *StatusRecorder) {
	rec := &StatusRecorder{}
	return context.WithValue(ctx, statusKey{}, rec), rec
}

// statusTransport 记录响应状态码，调用方拿不到 *http.Response 时使用
type statusTransport struct {
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		if rec, ok := req.Context().Value(statusKey{}).(*StatusRecorder); ok {
			rec.Code = resp.StatusCode
		}
	}
	return resp, err
}
