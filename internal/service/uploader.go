package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"

	"github.com/jroman/agencydir/internal/blob"
)

// UploadStats tracks the progress of an image upload
type UploadStats struct {
	Uploaded int
	Failed   int
}

// Uploader pushes the images from a dump directory into the blob store
// under the same keys the generated SQL references. Uploads are best
// effort per file, mirroring the dump side.
type Uploader struct {
	store  blob.Store
	logger *log.Logger
	errLog *log.Logger
}

// NewUploader creates an uploader targeting the given blob store.
func NewUploader(store blob.Store, logger, errLog *log.Logger) *Uploader {
	return &Uploader{store: store, logger: logger, errLog: errLog}
}

// UploadDir uploads every regular file in dir, keyed by file name, with
// a content type guessed from the extension.
func (u *Uploader) UploadDir(ctx context.Context, dir string) (*UploadStats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	stats := &UploadStats{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			u.errLog.Printf("Failed to read %s: %v", entry.Name(), err)
			stats.Failed++
			continue
		}

		contentType := mime.TypeByExtension(filepath.Ext(entry.Name()))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		_, err = u.store.Put(ctx, entry.Name(), bytes.NewReader(data), blob.PutOptions{ContentType: contentType})
		if err != nil {
			u.errLog.Printf("Failed to upload %s: %v", entry.Name(), err)
			stats.Failed++
			continue
		}

		u.logger.Printf("Uploaded %s (%d bytes)", entry.Name(), len(data))
		stats.Uploaded++
	}

	return stats, nil
}

// PrintSummary prints upload statistics
func (s *UploadStats) PrintSummary(logger *log.Logger) {
	logger.Println("=== Upload Summary ===")
	logger.Printf("Uploaded: %d", s.Uploaded)
	logger.Printf("Failed: %d", s.Failed)
}
