package http

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/csvexport/internal/blobstore"
	"github.com/mrlokans/csvexport/internal/delivery"
)

// LoadingClassHeader carries the CSS class the UI toggles while exporting.
const LoadingClassHeader = "X-Export-Loading-Class"

var errHandleDetached = errors.New("download handle is not attached")

// responseDocument delivers a download as the body of the current response.
// The blob is registered in the store for the duration of the request only.
type responseDocument struct {
	c            *gin.Context
	store        *blobstore.Store
	loadingClass string

	mu       sync.Mutex
	attached map[*delivery.Handle]bool
}

func newResponseDocument(c *gin.Context, store *blobstore.Store, loadingClass string) *responseDocument {
	return &responseDocument{
		c:            c,
		store:        store,
		loadingClass: loadingClass,
		attached:     make(map[*delivery.Handle]bool),
	}
}

func (d *responseDocument) Name() string { return "http" }

func (d *responseDocument) CreateObjectURL(artifact delivery.Artifact) (string, error) {
	return d.store.Create(artifact.Data, artifact.ContentType(), artifact.Filename), nil
}

func (d *responseDocument) RevokeObjectURL(url string) { d.store.Revoke(url) }

func (d *responseDocument) Append(handle *delivery.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.attached[handle] {
		return fmt.Errorf("download handle already attached")
	}
	d.attached[handle] = true
	return nil
}

func (d *responseDocument) Remove(handle *delivery.Handle) {
	d.mu.Lock()
	delete(d.attached, handle)
	d.mu.Unlock()
}

// Click writes the blob behind handle.Href as an attachment.
func (d *responseDocument) Click(ctx context.Context, handle *delivery.Handle) error {
	d.mu.Lock()
	attached := d.attached[handle]
	d.mu.Unlock()
	if !attached {
		return errHandleDetached
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	blob, ok := d.store.Resolve(handle.Href)
	if !ok {
		return fmt.Errorf("object url %s was revoked", handle.Href)
	}
	writeAttachment(d.c, blob, handle.Download, d.loadingClass)
	return nil
}

// linkSaver keeps the blob in the store and answers with its URL. The blob
// is released when fetched or when the sweeper expires it.
type linkSaver struct {
	c            *gin.Context
	store        *blobstore.Store
	loadingClass string
}

func (s *linkSaver) Name() string { return "http-link" }

func (s *linkSaver) SaveBlob(ctx context.Context, artifact delivery.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	url := s.store.Create(artifact.Data, artifact.ContentType(), artifact.Filename)
	s.c.Header(LoadingClassHeader, s.loadingClass)
	s.c.JSON(http.StatusCreated, LinkResponse{
		URL:      url,
		Filename: artifact.Filename,
		Size:     artifact.Size(),
	})
	return nil
}

// LinkResponse is returned by link-mode exports.
type LinkResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

func writeAttachment(c *gin.Context, blob blobstore.Blob, filename, loadingClass string) {
	if filename == "" {
		filename = blob.Filename
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Header("Content-Length", strconv.Itoa(len(blob.Data)))
	if loadingClass != "" {
		c.Header(LoadingClassHeader, loadingClass)
	}
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}

var (
	_ delivery.Document    = (*responseDocument)(nil)
	_ delivery.NativeSaver = (*linkSaver)(nil)
)
