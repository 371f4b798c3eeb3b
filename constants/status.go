package constants

// JobStatus is the lifecycle status of an asynchronous proposal job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions will happen.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Extraction methods recorded on a text extraction result.
const (
	MethodPlainText = "plain-text"
	MethodDOCX      = "docx"
	MethodPDFText   = "pdf-text"
	MethodPDFOCR    = "pdf-ocr"
	MethodImageOCR  = "image-ocr"
)
