package extract

// envelope is the common response frame shared by every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FileDescriptor describes one file in a batch submission.
type FileDescriptor struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// DocumentMeta is the metadata sent when adding a single document.
type DocumentMeta struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors,omitempty"`
	Venue   string   `json:"venue,omitempty"`
	Year    int      `json:"year,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// RemoteDocument is one entry of the remote document listing.
type RemoteDocument struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors,omitempty"`
	Venue      string   `json:"venue,omitempty"`
	Year       int      `json:"year,omitempty"`
	URL        string   `json:"url,omitempty"`
}

// RemoteJob is one entry of the remote job listing.
type RemoteJob struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	DocumentCount int    `json:"document_count,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	StartedAt     string `json:"started_at,omitempty"`
	EndedAt       string `json:"ended_at,omitempty"`
}

// QueryResult is one hit of a library query.
type QueryResult struct {
	DocumentID string  `json:"document_id"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score,omitempty"`
}

type createLibraryRequest struct {
	UserID    string `json:"user_id"`
	LibraryID string `json:"library_id"`
	Title     string `json:"title"`
}

type removeLibraryRequest struct {
	UserID    string `json:"user_id"`
	LibraryID string `json:"library_id"`
}

type addDocumentRequest struct {
	UserID    string       `json:"user_id"`
	LibraryID string       `json:"library_id"`
	Document  DocumentMeta `json:"document"`
}

type removeDocumentRequest struct {
	UserID     string `json:"user_id"`
	LibraryID  string `json:"library_id"`
	DocumentID string `json:"document_id"`
}

type listDocumentsRequest struct {
	UserID    string `json:"user_id"`
	LibraryID string `json:"library_id"`
}

type submitJobRequest struct {
	UserID      string           `json:"user_id"`
	LibraryID   string           `json:"library_id"`
	Files       []FileDescriptor `json:"files"`
	NotifyEmail string           `json:"notify_email,omitempty"`
}

type cancelJobRequest struct {
	UserID    string `json:"user_id"`
	LibraryID string `json:"library_id"`
	JobID     string `json:"job_id"`
}

type listJobsRequest struct {
	UserID    string `json:"user_id"`
	LibraryID string `json:"library_id"`
}

type queryRequest struct {
	UserID    string `json:"user_id"`
	LibraryID string `json:"library_id"`
	Query     string `json:"query"`
}

type addDocumentResponse struct {
	envelope
	DocumentID string `json:"document_id"`
}

type listDocumentsResponse struct {
	envelope
	Documents []RemoteDocument `json:"documents"`
}

type submitJobResponse struct {
	envelope
	JobID string `json:"job_id"`
}

type listJobsResponse struct {
	envelope
	Jobs []RemoteJob `json:"jobs"`
}

type queryResponse struct {
	envelope
	Results []QueryResult `json:"results"`
}
