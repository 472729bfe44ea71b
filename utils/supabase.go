package utils

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseImageStore keeps podcast cover images in a public Supabase bucket.
// Path: <bucket>/images/<podcastID><ext>
type SupabaseImageStore struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

func NewSupabaseImageStore(supabaseURL, supabaseKey, bucket string) *SupabaseImageStore {
	base := strings.TrimRight(supabaseURL, "/")
	return &SupabaseImageStore{
		client:  storage.NewClient(base+"/storage/v1", supabaseKey, nil),
		baseURL: base,
		bucket:  bucket,
	}
}

// UploadImage stores the image, overwriting a previous cover for the same
// podcast, and returns its public URL.
func (s *SupabaseImageStore) UploadImage(_ context.Context, podcastID, filename, contentType string, r io.Reader) (string, error) {
	objectPath := ImageObjectPath(podcastID, filename)

	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.client.UploadFile(s.bucket, objectPath, r, options); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return s.PublicURL(objectPath), nil
}

// DeleteImage removes an object previously returned by UploadImage. URLs that
// do not point into this bucket are ignored.
func (s *SupabaseImageStore) DeleteImage(_ context.Context, publicURL string) error {
	prefix := s.PublicURL("")
	if !strings.HasPrefix(publicURL, prefix) {
		return nil
	}
	object := strings.TrimPrefix(publicURL, prefix)
	if i := strings.Index(object, "?"); i != -1 {
		object = object[:i]
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{object}); err != nil {
		return fmt.Errorf("remove %s: %w", object, err)
	}
	return nil
}

func (s *SupabaseImageStore) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}

func ImageObjectPath(podcastID, filename string) string {
	return fmt.Sprintf("images/%s%s", podcastID, strings.ToLower(filepath.Ext(filename)))
}
