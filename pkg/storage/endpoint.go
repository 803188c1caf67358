package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/keboola/kbcstorage-go/pkg/jobs"
	"github.com/keboola/kbcstorage-go/pkg/transport"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// endpoint is the request plumbing shared by every resource client: one
// executor, one poller and the authentication headers.
type endpoint struct {
	rootURL   string
	token     string
	userAgent string
	runID     string
	exec      *transport.Executor
	poller    *jobs.Poller
	logger    hclog.Logger
}

// withMaxRetries returns a copy whose requests use a different attempt bound.
// Jobs awaited through the copy are polled with the same bound.
func (e *endpoint) withMaxRetries(n int) *endpoint {
	cp := &endpoint{}
	*cp = *e
	cp.exec = e.exec.WithMaxRetries(n)
	if e.poller != nil {
		cp.poller = e.poller.WithFetcher(&Jobs{endpoint: cp})
	}
	return cp
}

// url builds {root}/v2/storage/{parts...}, escaping every part.
func (e *endpoint) url(parts ...string) string {
	var b strings.Builder
	b.WriteString(e.rootURL)
	b.WriteString("/v2/storage")
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func (e *endpoint) header(contentType string) http.Header {
	h := http.Header{}
	h.Set("X-StorageApi-Token", e.token)
	h.Set("User-Agent", e.userAgent)
	h.Set("Accept", contentTypeJSON)
	if e.runID != "" {
		h.Set("X-KBC-RunId", e.runID)
	}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

// send executes the request and fails on any non-2xx final status.
func (e *endpoint) send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	resp, err := e.exec.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := transport.CheckStatus(req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// do sends the request and decodes a JSON response body into out when out
// is not nil and the body is not empty.
func (e *endpoint) do(ctx context.Context, req *transport.Request, out any) error {
	resp, err := e.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", req.Method, req.URL, err)
	}
	return nil
}

func (e *endpoint) get(ctx context.Context, u string, query url.Values, out any) error {
	return e.do(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    u,
		Query:  query,
		Header: e.header(""),
	}, out)
}

// getRaw returns the response body without decoding it.
func (e *endpoint) getRaw(ctx context.Context, u string, query url.Values) ([]byte, error) {
	resp, err := e.send(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    u,
		Query:  query,
		Header: e.header(""),
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (e *endpoint) postForm(ctx context.Context, u string, form url.Values, out any) error {
	return e.sendForm(ctx, http.MethodPost, u, form, out)
}

func (e *endpoint) putForm(ctx context.Context, u string, form url.Values, out any) error {
	return e.sendForm(ctx, http.MethodPut, u, form, out)
}

func (e *endpoint) sendForm(ctx context.Context, method, u string, form url.Values, out any) error {
	var body []byte
	if form != nil {
		body = []byte(form.Encode())
	}
	return e.do(ctx, &transport.Request{
		Method: method,
		URL:    u,
		Header: e.header(contentTypeForm),
		Body:   body,
	}, out)
}

func (e *endpoint) postJSON(ctx context.Context, u string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return e.do(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    u,
		Header: e.header(contentTypeJSON),
		Body:   body,
	}, out)
}

func (e *endpoint) delete(ctx context.Context, u string, query url.Values, out any) error {
	return e.do(ctx, &transport.Request{
		Method: http.MethodDelete,
		URL:    u,
		Query:  query,
		Header: e.header(""),
	}, out)
}

// postJob submits an asynchronous operation and returns its job handle.
func (e *endpoint) postJob(ctx context.Context, u string, form url.Values) (*jobs.Job, error) {
	var handle jobs.Job
	if err := e.postForm(ctx, u, form, &handle); err != nil {
		return nil, err
	}
	return &handle, nil
}

// await blocks on the job behind handle; see jobs.Await.
func (e *endpoint) await(ctx context.Context, operation string, handle *jobs.Job) (*jobs.Job, error) {
	if handle != nil {
		e.logger.Debug("waiting for job", "operation", operation, "job_id", handle.ID)
	}
	return jobs.Await(ctx, e.poller, operation, handle)
}
