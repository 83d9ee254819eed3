package supervisely

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"

	"github.com/datasetninja/modes-cattle/logging"
)

const (
	apiPath      = "/public/api/v3/"
	apiKeyHeader = "x-api-key"
	userAgent    = "modes-cattle"
)

// APIError is a non 2xx answer of the API.
type APIError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supervisely %s returned %d %s: %s",
		e.Method, e.StatusCode, fasthttp.StatusMessage(e.StatusCode), e.Body)
}

// client speaks to the public REST API of a Supervisely instance.
type client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *fasthttp.Client
	logger  logging.Logger
}

func newClient(serverAddress, token string, timeout time.Duration, logger logging.Logger) *client {
	return &client{
		baseURL: strings.TrimSuffix(serverAddress, "/") + apiPath,
		token:   token,
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                userAgent,
			MaxResponseBodySize: 64 << 20,
		},
		logger: logger,
	}
}

// post sends payload as json to method and decodes the answer into out, when out is not nil.
func (c *client) post(ctx context.Context, method string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "cannot encode %s request", method)
	}
	return c.do(ctx, method, "application/json", body, out)
}

// multipartFile is one part of a multipart upload.
type multipartFile struct {
	field    string
	filename string
	data     []byte
}

// postMultipart sends files as a multipart form to method.
func (c *client) postMultipart(ctx context.Context, method string, files []multipartFile, out interface{}) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			`form-data; name="`+file.field+`"; filename="`+file.filename+`"`)
		header.Set("Content-Type", "application/octet-stream")
		part, err := form.CreatePart(header)
		if err != nil {
			return errors.Wrapf(err, "cannot build %s request", method)
		}
		if _, err := part.Write(file.data); err != nil {
			return errors.Wrapf(err, "cannot build %s request", method)
		}
	}
	if err := form.Close(); err != nil {
		return errors.Wrapf(err, "cannot build %s request", method)
	}
	return c.do(ctx, method, form.FormDataContentType(), buf.Bytes(), out)
}

func (c *client) do(ctx context.Context, method, contentType string, body []byte, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + method)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(contentType)
	req.Header.Set(apiKeyHeader, c.token)
	req.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return errors.Wrapf(err, "supervisely %s request failed", method)
	}
	c.logger.CDebugw(ctx, "api call", "method", method, "status", resp.StatusCode(),
		"request_bytes", len(body), "took", time.Since(start).String())

	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return &APIError{Method: method, StatusCode: status, Body: string(resp.Body())}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "cannot decode %s response", method)
	}
	return nil
}
