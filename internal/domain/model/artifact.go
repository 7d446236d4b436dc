package model

// ArtifactBundle is a downloaded CI artifact archive. It exists only for the
// duration of a single pipeline invocation and is discarded after
// normalization.
type ArtifactBundle struct {
	Name    string
	ID      int64
	Archive []byte // zip archive contents
}
