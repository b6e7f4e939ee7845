package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "DOCINDEX_HTTP_TIMEOUT"
	secretEnvKey       = "DOCINDEX_SECRET"
)

// Client is a simple HTTP client for the docindex API.
type Client struct {
	baseURL string
	http    *http.Client
	secret  string
}

// NewClient creates a new API client. The bearer secret is read from
// DOCINDEX_SECRET.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
		secret:  strings.TrimSpace(os.Getenv(secretEnvKey)),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) Me(ctx context.Context) (MeResponse, error) {
	var resp MeResponse
	err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, &resp)
	return resp, err
}

func (c *Client) Info(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/api/info", nil, nil, &resp)
	return resp, err
}

func (c *Client) Search(ctx context.Context, query string) ([]FileResponse, error) {
	var resp []FileResponse
	err := c.do(ctx, http.MethodGet, "/api/search", url.Values{"q": {query}}, nil, &resp)
	return resp, err
}

func (c *Client) ReplaceTags(ctx context.Context, id string, tags []string) (TagsResponse, error) {
	if tags == nil {
		tags = []string{}
	}
	var resp TagsResponse
	err := c.do(ctx, http.MethodPatch, "/api/file/"+url.PathEscape(id)+"/tags", nil, TagsRequest{Tags: tags}, &resp)
	return resp, err
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	var resp SuccessResponse
	return c.do(ctx, http.MethodDelete, "/api/file/"+url.PathEscape(id), nil, nil, &resp)
}

// Upload sends one file as multipart form data with whitespace-separated tags.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader, tags []string) (UploadResponse, error) {
	var resp UploadResponse

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		err := writeUploadForm(form, filename, content, tags)
		if err == nil {
			err = form.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		_ = pr.Close()
		return resp, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.setAuthHeader(req)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		return resp, decodeError(httpResp)
	}
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	return resp, err
}

func writeUploadForm(form *multipart.Writer, filename string, content io.Reader, tags []string) error {
	if len(tags) > 0 {
		if err := form.WriteField("tags", strings.Join(tags, " ")); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, content)
	return err
}

// DownloadedFile describes the headers of a fetched file.
type DownloadedFile struct {
	ContentType        string
	ContentDisposition string
	Size               int64
}

// Download streams one file's bytes to w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (DownloadedFile, error) {
	var out DownloadedFile
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/file/"+url.PathEscape(id), nil)
	if err != nil {
		return out, err
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return out, decodeError(resp)
	}

	out.ContentType = resp.Header.Get("Content-Type")
	out.ContentDisposition = resp.Header.Get("Content-Disposition")
	out.Size, err = io.Copy(w, resp.Body)
	return out, err
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
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Code
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.Message = errResp.Error
		return apiErr
	}
	apiErr.Message = fmt.Sprintf("api error: %s", resp.Status)
	return apiErr
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.secret == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
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
