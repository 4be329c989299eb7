package soap

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultAttachmentType is used when the MIME type of a file cannot be probed.
const DefaultAttachmentType = "application/octet-stream"

// Attachment describes a file sent as a MIME part of a multipart/related
// request. The file is only read when its contents are first needed.
type Attachment struct {
	path      string
	contentID string

	typeOnce sync.Once
	mimeType string

	readOnce sync.Once
	data     []byte
	err      error
}

// NewAttachment creates an attachment for the file at path. Its content ID is
// the base name of the file, callers must keep those unique per request.
func NewAttachment(path string) *Attachment {
	return &Attachment{
		path:      path,
		contentID: filepath.Base(path),
	}
}

// FilePath returns the path the attachment was created from.
func (a *Attachment) FilePath() string {
	return a.path
}

// ContentID returns the identifier used to reference the part from the XML.
func (a *Attachment) ContentID() string {
	return a.contentID
}

// MimeType returns the type detected from the file contents.
func (a *Attachment) MimeType() string {
	a.typeOnce.Do(func() {
		a.mimeType = DefaultAttachmentType
		mt, err := mimetype.DetectFile(a.path)
		if err == nil && mt != nil {
			a.mimeType = mt.String()
		}
	})
	return a.mimeType
}

// Contents returns the file bytes. The file is read once; later calls return
// the cached bytes or the cached error.
func (a *Attachment) Contents() ([]byte, error) {
	a.readOnce.Do(func() {
		a.data, a.err = os.ReadFile(a.path)
		if a.err != nil {
			a.err = fmt.Errorf("read attachment %s: %w", a.contentID, a.err)
		}
	})
	return a.data, a.err
}
