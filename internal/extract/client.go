// Package extract is the typed client for the remote document-processing
// service. Every call validates the response body against a declared JSON
// Schema before a typed value is returned, so a drifting remote contract
// fails loudly instead of leaking malformed data into the ledgers.
package extract

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// maxResponseBytes caps how much of a response body is read and retained
// for diagnostics.
const maxResponseBytes = 1 << 20

var (
	// ErrBadResponse means the remote service answered with something that
	// violates its declared contract (malformed JSON or schema mismatch).
	ErrBadResponse = errors.New("extract: response violates contract")

	// ErrRemote means the remote service reported a failure for the request.
	ErrRemote = errors.New("extract: remote operation failed")

	// ErrLibraryNotFound means the remote service has no record of the
	// library this system believes exists. The two sides have diverged.
	ErrLibraryNotFound = errors.New("extract: library not found remotely")

	// ErrJobNotActive means the remote service reports the job is not in a
	// cancellable state.
	ErrJobNotActive = errors.New("extract: job not active remotely")
)

// Options configures a Client. The token is injected per instance rather
// than read from shared mutable state.
type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Client issues requests against the remote extraction service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	schemas    map[string]*jsonschema.Schema
}

// New builds a Client and compiles the per-endpoint response schemas.
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("extract: base URL is required")
	}
	if opts.Token == "" {
		return nil, errors.New("extract: token is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	schemas, err := compileSchemas()
	if err != nil {
		return nil, fmt.Errorf("extract: compile schemas: %w", err)
	}

	return &Client{
		baseURL:    baseURL,
		token:      opts.Token,
		httpClient: httpClient,
		schemas:    schemas,
	}, nil
}

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	entries, err := fs.Glob(schemaFS, "schemas/*.json")
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	for _, name := range entries {
		data, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := compiler.AddResource(name, doc); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	schemas := make(map[string]*jsonschema.Schema, len(entries))
	for _, name := range entries {
		sch, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		key := strings.TrimSuffix(strings.TrimPrefix(name, "schemas/"), ".json")
		schemas[key] = sch
	}
	return schemas, nil
}

// remoteError converts a non-success envelope into a typed error.
func (e *envelope) remoteError() error {
	if e.Success {
		return nil
	}
	switch e.Code {
	case "library_not_found":
		return ErrLibraryNotFound
	case "job_not_active":
		return ErrJobNotActive
	}
	if e.Error != "" {
		return fmt.Errorf("%w: %s", ErrRemote, e.Error)
	}
	return ErrRemote
}

// call POSTs body to path and decodes the schema-validated response into out.
// out must embed envelope; call does not interpret the success flag.
func (c *Client) call(ctx context.Context, path, schemaName string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("extract: encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("extract: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("extract: %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("extract: read %s response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Debug("extract: non-200 response", "path", path, "status", resp.StatusCode, "body", string(raw))
		return fmt.Errorf("extract: %s: status %d: %w", path, resp.StatusCode, ErrRemote)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		slog.Debug("extract: unparseable response", "path", path, "body", string(raw))
		return fmt.Errorf("extract: %s: invalid JSON: %w", path, ErrBadResponse)
	}

	sch, ok := c.schemas[schemaName]
	if !ok {
		return fmt.Errorf("extract: no schema %q", schemaName)
	}
	if err := sch.Validate(inst); err != nil {
		slog.Debug("extract: schema violation", "path", path, "error", err, "body", string(raw))
		return fmt.Errorf("extract: %s: %w", path, ErrBadResponse)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("extract: decode %s response: %w", path, ErrBadResponse)
	}
	return nil
}

// CreateLibrary registers a library with the remote service under the id
// this system assigned to it.
func (c *Client) CreateLibrary(ctx context.Context, userID, libraryID, title string) error {
	var out struct{ envelope }
	req := createLibraryRequest{UserID: userID, LibraryID: libraryID, Title: title}
	if err := c.call(ctx, "libraries/create", "libraries_create", req, &out); err != nil {
		return err
	}
	return out.remoteError()
}

// RemoveLibrary deletes a library and its documents remotely.
func (c *Client) RemoveLibrary(ctx context.Context, userID, libraryID string) error {
	var out struct{ envelope }
	req := removeLibraryRequest{UserID: userID, LibraryID: libraryID}
	if err := c.call(ctx, "libraries/remove", "libraries_remove", req, &out); err != nil {
		return err
	}
	return out.remoteError()
}

// AddDocument registers a single document remotely and returns the id the
// remote service assigned to it.
func (c *Client) AddDocument(ctx context.Context, userID, libraryID string, doc DocumentMeta) (string, error) {
	var out addDocumentResponse
	req := addDocumentRequest{UserID: userID, LibraryID: libraryID, Document: doc}
	if err := c.call(ctx, "documents/add", "documents_add", req, &out); err != nil {
		return "", err
	}
	if err := out.remoteError(); err != nil {
		return "", err
	}
	return out.DocumentID, nil
}

// RemoveDocument deletes a document remotely.
func (c *Client) RemoveDocument(ctx context.Context, userID, libraryID, documentID string) error {
	var out struct{ envelope }
	req := removeDocumentRequest{UserID: userID, LibraryID: libraryID, DocumentID: documentID}
	if err := c.call(ctx, "documents/remove", "documents_remove", req, &out); err != nil {
		return err
	}
	return out.remoteError()
}

// ListDocuments returns the remote service's record of a library's documents.
func (c *Client) ListDocuments(ctx context.Context, userID, libraryID string) ([]RemoteDocument, error) {
	var out listDocumentsResponse
	req := listDocumentsRequest{UserID: userID, LibraryID: libraryID}
	if err := c.call(ctx, "documents/list", "documents_list", req, &out); err != nil {
		return nil, err
	}
	if err := out.remoteError(); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// SubmitJob submits a batch of files for processing and returns the
// remote-assigned job id.
func (c *Client) SubmitJob(ctx context.Context, userID, libraryID string, files []FileDescriptor, notifyEmail string) (string, error) {
	var out submitJobResponse
	req := submitJobRequest{UserID: userID, LibraryID: libraryID, Files: files, NotifyEmail: notifyEmail}
	if err := c.call(ctx, "jobs/add", "jobs_add", req, &out); err != nil {
		return "", err
	}
	if err := out.remoteError(); err != nil {
		return "", err
	}
	return out.JobID, nil
}

// CancelJob asks the remote service to cancel a job.
func (c *Client) CancelJob(ctx context.Context, userID, libraryID, jobID string) error {
	var out struct{ envelope }
	req := cancelJobRequest{UserID: userID, LibraryID: libraryID, JobID: jobID}
	if err := c.call(ctx, "jobs/cancel", "jobs_cancel", req, &out); err != nil {
		return err
	}
	return out.remoteError()
}

// ListJobs returns the remote service's record of a library's jobs.
func (c *Client) ListJobs(ctx context.Context, userID, libraryID string) ([]RemoteJob, error) {
	var out listJobsResponse
	req := listJobsRequest{UserID: userID, LibraryID: libraryID}
	if err := c.call(ctx, "jobs/list", "jobs_list", req, &out); err != nil {
		return nil, err
	}
	if err := out.remoteError(); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Query runs a reference query against a library's extracted content.
func (c *Client) Query(ctx context.Context, userID, libraryID, query string) ([]QueryResult, error) {
	var out queryResponse
	req := queryRequest{UserID: userID, LibraryID: libraryID, Query: query}
	if err := c.call(ctx, "query", "query", req, &out); err != nil {
		return nil, err
	}
	if err := out.remoteError(); err != nil {
		return nil, err
	}
	return out.Results, nil
}
