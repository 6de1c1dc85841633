package delivery

import (
	"fmt"

	"github.com/mrlokans/csvexport/internal/charset"
)

const (
	MIMEType        = "text/csv"
	DefaultFilename = "download.csv"
	DefaultCharset  = "utf-8"
)

// Artifact is the file handed to a platform for download.
type Artifact struct {
	Data     []byte
	MIMEType string
	Charset  string
	Filename string
}

// NewArtifact encodes text in the named charset and tags it as CSV.
// Empty filename and charset fall back to the defaults.
func NewArtifact(text, filename, charsetName string) (Artifact, error) {
	if filename == "" {
		filename = DefaultFilename
	}
	if charsetName == "" {
		charsetName = DefaultCharset
	}

	data, err := charset.Encode(text, charsetName)
	if err != nil {
		return Artifact{}, fmt.Errorf("build artifact: %w", err)
	}

	return Artifact{
		Data:     data,
		MIMEType: MIMEType,
		Charset:  charsetName,
		Filename: filename,
	}, nil
}

// ContentType returns the MIME type with its charset parameter,
// e.g. "text/csv;charset=utf-8".
func (a Artifact) ContentType() string {
	return a.MIMEType + ";charset=" + a.Charset
}

// Size returns the artifact length in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}
