// services/storage.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/brahimcontact64-ctrl/E-vizza/workflow"
)

const (
	// Maximum upload size per document (10MB)
	maxFileSize = 10 * 1024 * 1024

	thumbnailWidth = 320
)

var allowedDocumentExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// BlobStorage stores and removes document blobs. Store returns the
// path the document record keeps; Delete is the rollback hook for
// failed submissions.
type BlobStorage interface {
	Store(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}

// ValidateDocumentFile checks size and extension before anything is
// written to storage.
func ValidateDocumentFile(filename string, size int64) error {
	if size > maxFileSize {
		return fmt.Errorf("%w: file %s exceeds %d bytes", workflow.ErrUploadFailure, filename, maxFileSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedDocumentExts[ext] {
		return fmt.Errorf("%w: unsupported file type %s, allowed: jpg, jpeg, png, pdf", workflow.ErrUploadFailure, ext)
	}
	return nil
}

// CleanFilename strips path components and unsafe characters.
func CleanFilename(filename string) string {
	return filenameCleaner.ReplaceAllString(filepath.Base(filename), "")
}

// DocumentPath builds the storage path for one uploaded document.
func DocumentPath(applicationNumber, requirementID, filename string) string {
	return fmt.Sprintf("applications/%s/%s-%s-%s",
		applicationNumber, requirementID, uuid.New().String()[:8], CleanFilename(filename))
}

// Thumbnail renders a JPEG preview for image uploads. PDFs and other
// types get no thumbnail.
func Thumbnail(data []byte, mimeType string) ([]byte, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image for thumbnail: %w", err)
	}
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// StoredBlob is one blob written during a batch, kept for rollback.
type StoredBlob struct {
	Path string
	URL  string
}

// StoreBatch writes blobs one by one and deletes everything already
// written when any of them fails, so a half-uploaded submission leaves
// nothing behind.
func StoreBatch(ctx context.Context, storage BlobStorage, blobs map[string][]byte, contentTypes map[string]string) (map[string]StoredBlob, error) {
	stored := make(map[string]StoredBlob, len(blobs))
	rollback := func() {
		for _, blob := range stored {
			if err := storage.Delete(ctx, blob.Path); err != nil {
				log.Printf("rollback: failed to delete blob %s: %v", blob.Path, err)
			}
		}
	}
	for path, data := range blobs {
		url, err := storage.Store(ctx, path, data, contentTypes[path])
		if err != nil {
			rollback()
			return nil, fmt.Errorf("%w: %v", workflow.ErrUploadFailure, err)
		}
		stored[path] = StoredBlob{Path: path, URL: url}
	}
	return stored, nil
}

// RollbackBlobs deletes already-stored blobs after a failure later in
// the submission, e.g. when the database transaction does not commit.
func RollbackBlobs(ctx context.Context, storage BlobStorage, blobs map[string]StoredBlob) {
	for _, blob := range blobs {
		if err := storage.Delete(ctx, blob.Path); err != nil {
			log.Printf("rollback: failed to delete blob %s: %v", blob.Path, err)
		}
	}
}

// FirebaseStorage stores blobs in the project's Firebase Storage
// bucket and returns public download URLs.
type FirebaseStorage struct {
	bucket *gcs.BucketHandle
	name   string
}

// NewFirebaseStorage resolves the default bucket from the initialized
// Firebase app.
func NewFirebaseStorage(ctx context.Context, app *firebase.App) (*FirebaseStorage, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting storage client: %w", err)
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("resolving default bucket: %w", err)
	}
	name := os.Getenv("FIREBASE_STORAGE_BUCKET")
	return &FirebaseStorage{bucket: bucket, name: name}, nil
}

func (s *FirebaseStorage) Store(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	obj := s.bucket.Object(path)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("writing object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing object %s: %w", path, err)
	}

	if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		// Bucket may use uniform access; the signed-URL path still works
		log.Printf("could not set public ACL on %s: %v", path, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.name, path), nil
}

func (s *FirebaseStorage) Delete(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return s.bucket.Object(path).Delete(ctx)
}

// LocalStorage keeps blobs on the local disk under uploads/. Used in
// development and as the fallback when Firebase is not configured.
type LocalStorage struct {
	baseDir string
	baseURL string
}

func NewLocalStorage() *LocalStorage {
	return &LocalStorage{baseDir: "uploads", baseURL: "/uploads"}
}

func (s *LocalStorage) Store(_ context.Context, path string, data []byte, _ string) (string, error) {
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", fullPath, err)
	}
	return s.baseURL + "/" + path, nil
}

func (s *LocalStorage) Delete(_ context.Context, path string) error {
	return os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(path)))
}
