// Package storage persists uploaded proof and listing images on local
// disk. Files are stored flat under one directory with generated names;
// the returned ref is the filename, served statically by the router.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotImage is returned when an upload is not a recognised image type.
var ErrNotImage = errors.New("file is not an image")

// MaxUploadBytes caps a single image upload.
const MaxUploadBytes = 10 << 20

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MediaStore writes uploads into a base directory created at startup.
type MediaStore struct {
	dir string
}

// NewMediaStore ensures the upload directory exists.
func NewMediaStore(dir string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &MediaStore{dir: dir}, nil
}

// Dir returns the base directory, for static file serving.
func (s *MediaStore) Dir() string { return s.dir }

// SaveImage stores one multipart image under the name
// <kind>_<relatedID>_<random>.<ext> and returns that name. kind tags what
// the image proves (item, delivery, return, damage, complaint).
func (s *MediaStore) SaveImage(fh *multipart.FileHeader, kind string, relatedID uint64) (string, error) {
	if fh.Size > MaxUploadBytes {
		return "", fmt.Errorf("image exceeds %d bytes", MaxUploadBytes)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExts[ext] {
		return "", ErrNotImage
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return "", ErrNotImage
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%s_%d_%s%s", kind, relatedID, randomSuffix(), ext)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, MaxUploadBytes)); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return name, nil
}

// SaveImages stores a batch and returns the refs in order. On any failure
// the already-written files of the batch are removed.
func (s *MediaStore) SaveImages(fhs []*multipart.FileHeader, kind string, relatedID uint64) ([]string, error) {
	refs := make([]string, 0, len(fhs))
	for _, fh := range fhs {
		ref, err := s.SaveImage(fh, kind, relatedID)
		if err != nil {
			for _, r := range refs {
				os.Remove(filepath.Join(s.dir, r))
			}
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func randomSuffix() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "000000000000"
	}
	return hex.EncodeToString(buf)
}
