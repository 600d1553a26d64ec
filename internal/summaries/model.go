package summaries

import "time"

// Upload types.
const (
	UploadText = "text"
	UploadFile = "upload"
)

// Summary is a generated summary and the input it came from.
type Summary struct {
	ID          string
	UserID      string
	Type        string
	UploadType  string
	Title       string
	InitialData string
	File        *FileData
	OutputData  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FileData references the uploaded original in the blob store.
type FileData struct {
	FileName    string
	ContentType string
	BlobID      string
}

// BlobID returns the referenced blob id, if any.
func (s Summary) BlobID() string {
	if s.File == nil {
		return ""
	}
	return s.File.BlobID
}

// Share grants a recipient read access to a summary.
type Share struct {
	ID          string
	SummaryID   string
	SenderID    string
	RecipientID string
	SharedAt    time.Time
}

// SharedSummary is a share joined with its summary and sender.
type SharedSummary struct {
	Summary     Summary
	SenderEmail string
	SharedAt    time.Time
}

// FileUpload is an uploaded file held in memory.
type FileUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ShareOutcome reports whether Share created a record.
type ShareOutcome string

const (
	ShareCreated       ShareOutcome = "shared"
	ShareAlreadyShared ShareOutcome = "already_shared"
)
