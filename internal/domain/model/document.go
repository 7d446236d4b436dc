package model

import "fmt"

// DocumentType classifies the CI report a document was derived from.
type DocumentType string

const (
	DocumentTypeJUnit    DocumentType = "junit"
	DocumentTypeSecurity DocumentType = "security"
)

// Document is a normalized, human-readable summary of one CI report file,
// ready for upsert into the evidence index. Immutable once created.
type Document struct {
	ID     string // unique, derived from run id + source file + type
	Text   string // summary text, not the raw report
	Source string // filename inside the artifact archive
	RunID  int64  // run the document was derived from; retrieval filters on this
	Type   DocumentType
}

// JUnitDocumentID derives the index id for a test-suite report document.
func JUnitDocumentID(runID int64, filename string) string {
	return fmt.Sprintf("junit_%d_%s", runID, filename)
}

// SecurityDocumentID derives the index id for a vulnerability report document.
func SecurityDocumentID(runID int64, filename string) string {
	return fmt.Sprintf("security_%d_%s", runID, filename)
}
