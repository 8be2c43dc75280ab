package papergraph

import "errors"

var (
	// ErrSnapshotNotFound is returned when a snapshot id does not exist.
	ErrSnapshotNotFound = errors.New("papergraph: snapshot not found")

	// ErrSnapshotNotReady is returned when a snapshot is still consolidating
	// or failed consolidation.
	ErrSnapshotNotReady = errors.New("papergraph: snapshot not ready")

	// ErrUnsupportedFormat is returned for unrecognized record or export
	// file formats.
	ErrUnsupportedFormat = errors.New("papergraph: unsupported format")

	// ErrDecodeFailed is returned when an extraction record cannot be
	// decoded.
	ErrDecodeFailed = errors.New("papergraph: decoding record failed")

	// ErrPaperFileInvalid is returned when an uploaded paper cannot be read
	// as a PDF.
	ErrPaperFileInvalid = errors.New("papergraph: paper file not readable")
)
