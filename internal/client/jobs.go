package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	api "github.com/investai/radar/api/v1alpha1"
	"github.com/investai/radar/pkg/metrics"
	"github.com/investai/radar/pkg/requestid"
)

const (
	jobsPath = "/api/jobs"

	endpointCreateJob         = "create_job"
	endpointGetJob            = "get_job"
	endpointGetResults        = "get_results"
	endpointDownloadReport    = "download_report"
	endpointDownloadPortfolio = "download_portfolio"
	endpointHealth            = "health"
)

// Upload is one file attached to a job.
type Upload struct {
	Name    string
	Content io.Reader
}

// CreateJobRequest is everything sent to the job creation endpoint.
type CreateJobRequest struct {
	Files    []Upload
	SheetURL string
	Filters  api.Filters
}

// JobsClient is an HTTP client for the screening service jobs API.
type JobsClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewJobsClient(baseURL string, httpClient *http.Client) *JobsClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &JobsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreateJob uploads the files and filters and returns the id assigned by the service.
func (c *JobsClient) CreateJob(ctx context.Context, req CreateJobRequest) (*api.CreateJobResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, f := range req.Files {
		part, err := writer.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("creating form file: %w", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copying file content of %s: %w", f.Name, err)
		}
	}

	filters, err := json.Marshal(req.Filters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filters: %w", err)
	}
	if err := writer.WriteField("filters", string(filters)); err != nil {
		return nil, fmt.Errorf("writing filters field: %w", err)
	}
	if req.Filters.ContextText != "" {
		if err := writer.WriteField("context_text", req.Filters.ContextText); err != nil {
			return nil, fmt.Errorf("writing context_text field: %w", err)
		}
	}
	if req.SheetURL != "" {
		if err := writer.WriteField("google_sheet_link", req.SheetURL); err != nil {
			return nil, fmt.Errorf("writing google_sheet_link field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	var created api.CreateJobResponse
	if err := c.doJSON(ctx, endpointCreateJob, http.MethodPost, jobsPath, writer.FormDataContentType(), body, &created); err != nil {
		return nil, err
	}
	if created.JobID == "" {
		return nil, ErrMissingJobID
	}
	return &created, nil
}

// GetJob returns the current status of a job.
func (c *JobsClient) GetJob(ctx context.Context, jobID string) (*api.Job, error) {
	var job api.Job
	if err := c.doJSON(ctx, endpointGetJob, http.MethodGet, jobPath(jobID), "", nil, &job); err != nil {
		return nil, err
	}
	if job.JobID == "" {
		job.JobID = jobID
	}
	return &job, nil
}

// GetResults returns the raw results collection of a completed job.
func (c *JobsClient) GetResults(ctx context.Context, jobID string) (*api.ResultsResponse, error) {
	var results api.ResultsResponse
	if err := c.doJSON(ctx, endpointGetResults, http.MethodGet, jobPath(jobID, "results"), "", nil, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// DownloadReport streams the report document of one candidate into dst.
func (c *JobsClient) DownloadReport(ctx context.Context, jobID, candidateID string, dst io.Writer) (int64, error) {
	return c.download(ctx, endpointDownloadReport, jobPath(jobID, "download", candidateID), dst)
}

// DownloadPortfolio streams the report document covering every candidate of the job into dst.
func (c *JobsClient) DownloadPortfolio(ctx context.Context, jobID string, dst io.Writer) (int64, error) {
	return c.download(ctx, endpointDownloadPortfolio, jobPath(jobID, "download-all"), dst)
}

func (c *JobsClient) Health(ctx context.Context) error {
	resp, err := c.do(ctx, endpointHealth, http.MethodGet, "/health", "", nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Drain body to enable connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *JobsClient) download(ctx context.Context, endpoint, path string, dst io.Writer) (int64, error) {
	resp, err := c.do(ctx, endpoint, http.MethodGet, path, "", nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read document: %w", err)
	}
	return n, nil
}

func (c *JobsClient) doJSON(ctx context.Context, endpoint, method, path, contentType string, body io.Reader, out any) error {
	resp, err := c.do(ctx, endpoint, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do sends the request and returns the response when the status is 2xx.
// Any other status is returned as an *APIError and the body is closed.
func (c *JobsClient) do(ctx context.Context, endpoint, method, path, contentType string, body io.Reader) (*http.Response, error) {
	ctx, _ = requestid.Ensure(ctx)
	httpReq, err := http.NewRequestWithContext(metrics.WithEndpoint(ctx, endpoint), method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	requestid.SetHeader(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call screening service: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() {
			_ = resp.Body.Close()
		}()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	return resp, nil
}

func jobPath(jobID string, segments ...string) string {
	parts := []string{jobsPath, url.PathEscape(jobID)}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/")
}
