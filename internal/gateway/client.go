// Package gateway is the HTTP client for the table-extraction backend.
// It wraps the six endpoints the service exposes and builds the export
// URLs; it never interprets result bodies beyond handing them to the
// result package.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tablescope/tablescope/internal/result"
)

// ErrSelectionRequired is returned when a CSV export is requested without
// an exact (page, table_index) pair. The backend's CSV endpoint has
// single-table semantics only; there is no export-all shorthand.
var ErrSelectionRequired = errors.New("csv export requires an exact page and table selection")

// ErrNoResult is returned when an export URL is requested before any
// result is loaded.
var ErrNoResult = errors.New("no result loaded")

// Client communicates with the extraction backend HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// BaseURL returns the backend base the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// UploadResponse is the body returned by POST /api/upload.
type UploadResponse struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	CreatedAt  string `json:"created_at"`
	TableCount int    `json:"table_count"`
}

// HistoryItem is one entry from GET /api/history, newest first.
type HistoryItem struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	CreatedAt  string `json:"created_at"`
	TableCount int    `json:"table_count"`
	UseLLM     bool   `json:"use_llm"`
}

// Upload sends a PDF as multipart form data. The response carries only a
// result id; callers fetch the full result separately.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader, useLLM bool) (*UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read upload file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	u := c.baseURL + "/api/upload?use_llm=" + strconv.FormatBool(useLLM)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("upload "+filename, resp)
	}

	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("upload response carried no id")
	}
	return &out, nil
}

// History lists past uploads, newest first.
func (c *Client) History(ctx context.Context) ([]HistoryItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/history", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("fetch history", resp)
	}

	var items []HistoryItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return items, nil
}

// Result fetches and parses one extraction result. A body that is not a
// JSON object surfaces as result.ErrMalformed; callers decide whether to
// degrade to an empty document.
func (c *Client) Result(ctx context.Context, id string) (*result.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/result/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch result %s: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("fetch result "+id, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read result %s: %w", id, err)
	}
	return result.Parse(data)
}

// DownloadJSON streams the raw result file into w.
func (c *Client) DownloadJSON(ctx context.Context, id string, w io.Writer) error {
	return c.stream(ctx, c.baseURL+"/api/download/"+id+".json", "download "+id, w)
}

// DownloadCSV streams one table's CSV export into w. Selection rules
// match CSVExportURL.
func (c *Client) DownloadCSV(ctx context.Context, id string, page, tableIndex int, w io.Writer) error {
	u, err := c.CSVExportURL(id, page, tableIndex)
	if err != nil {
		return err
	}
	return c.stream(ctx, u, "export csv "+id, w)
}

// DownloadZip streams the export-everything archive into w. The ZIP
// export ignores the current filter state; filters are a view concern.
func (c *Client) DownloadZip(ctx context.Context, id string, w io.Writer) error {
	u, err := c.ZipExportURL(id)
	if err != nil {
		return err
	}
	return c.stream(ctx, u, "export zip "+id, w)
}

// CSVExportURL builds the single-table CSV export URL. It requires an
// exact selection: page != 0 and tableIndex != -1.
func (c *Client) CSVExportURL(id string, page, tableIndex int) (string, error) {
	if id == "" || page == 0 || tableIndex == -1 {
		return "", ErrSelectionRequired
	}
	return fmt.Sprintf("%s/api/export/%s/table.csv?page=%d&table_index=%d", c.baseURL, id, page, tableIndex), nil
}

// ZipExportURL builds the export-all URL for a loaded result. The ZIP
// endpoint takes no selection; only a result id is needed.
func (c *Client) ZipExportURL(id string) (string, error) {
	if id == "" {
		return "", ErrNoResult
	}
	return fmt.Sprintf("%s/api/export/%s/all.zip", c.baseURL, id), nil
}

func (c *Client) stream(ctx context.Context, url, op string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(body))
}
