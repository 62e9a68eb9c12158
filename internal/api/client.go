package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"wizdraft/internal/models"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "WIZDRAFT_HTTP_TIMEOUT"
)

// Client is a simple HTTP client for the wizdraft API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, nil, &resp)
	return resp, err
}

func (c *Client) GetDraft(ctx context.Context) (DraftResponse, error) {
	var resp DraftResponse
	err := c.do(ctx, http.MethodGet, "/v1/draft", nil, nil, &resp)
	return resp, err
}

func (c *Client) PatchDraft(ctx context.Context, req DraftPatchRequest) (DraftResponse, error) {
	var resp DraftResponse
	err := c.do(ctx, http.MethodPatch, "/v1/draft", nil, req, &resp)
	return resp, err
}

func (c *Client) ResetDraft(ctx context.Context) (ResetResponse, error) {
	var resp ResetResponse
	err := c.do(ctx, http.MethodPost, "/v1/draft/reset", nil, nil, &resp)
	return resp, err
}

func (c *Client) Submission(ctx context.Context) (SubmissionResponse, error) {
	var resp SubmissionResponse
	err := c.do(ctx, http.MethodGet, "/v1/draft/submission", nil, nil, &resp)
	return resp, err
}

// UploadAttachment sends content as the multipart "content" part for sel.
// An empty mediaType lets the server sniff it.
func (c *Client) UploadAttachment(ctx context.Context, sel models.Selector, filename, mediaType string, content io.Reader) (AttachmentResponse, error) {
	var resp AttachmentResponse
	body, contentType, err := multipartBody(filename, mediaType, content)
	if err != nil {
		return resp, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+attachmentPath(sel), body)
	if err != nil {
		return resp, err
	}
	req.Header.Set("Content-Type", contentType)

	httpResp, err := c.send(req)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	return resp, err
}

func multipartBody(filename, mediaType string, content io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if mediaType != "" {
		if err := mw.WriteField("media_type", mediaType); err != nil {
			return nil, "", err
		}
	}
	part, err := mw.CreateFormFile("content", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) DeleteAttachment(ctx context.Context, sel models.Selector) error {
	return c.do(ctx, http.MethodDelete, attachmentPath(sel), nil, nil, nil)
}

// AttachmentContent copies the bytes of the attachment at sel to w and
// returns the served media type.
func (c *Client) AttachmentContent(ctx context.Context, sel models.Selector, w io.Writer) (string, error) {
	return c.stream(ctx, attachmentPath(sel), w)
}

func (c *Client) ListBlobs(ctx context.Context) ([]models.BlobInfo, error) {
	var resp []models.BlobInfo
	err := c.do(ctx, http.MethodGet, "/v1/blobs", nil, nil, &resp)
	return resp, err
}

// DumpBlobs streams the human readable blob table to w.
func (c *Client) DumpBlobs(ctx context.Context, w io.Writer) error {
	_, err := c.stream(ctx, "/v1/blobs/dump", w)
	return err
}

func (c *Client) SweepBlobs(ctx context.Context, maxAge string, force bool) (SweepResponse, error) {
	var resp SweepResponse
	query := url.Values{}
	if maxAge != "" {
		query.Set("max_age", maxAge)
	}
	if force {
		query.Set("force", "true")
	}
	err := c.do(ctx, http.MethodPost, "/v1/blobs/sweep", query, nil, &resp)
	return resp, err
}

func (c *Client) Orphans(ctx context.Context) (OrphansResponse, error) {
	var resp OrphansResponse
	err := c.do(ctx, http.MethodGet, "/v1/blobs/orphans", nil, nil, &resp)
	return resp, err
}

func attachmentPath(sel models.Selector) string {
	return "/v1/draft/attachments/" + sel.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// stream copies a raw GET response body to w and returns its Content-Type.
func (c *Client) stream(ctx context.Context, path string, w io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.send(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	return resp.Header.Get("Content-Type"), err
}

// send performs req and turns error statuses into *APIError. The caller
// closes the body of a successful response.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("api error: %s", resp.Status)}
	}
	return &APIError{
		Status:    resp.StatusCode,
		Code:      body.Code,
		ErrorCode: body.ErrorCode,
		Reason:    body.Reason,
		Message:   body.Error,
	}
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
