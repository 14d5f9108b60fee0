package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Service persists proof images and photos under a base URL. The
// default file:// scheme keeps everything on local disk; any scheme
// afs understands (s3://, gs://, mem://) works unchanged, which is why
// objects are addressed by full URL rather than by path.
type Service struct {
	fs   afs.Service
	base string
}

func New(baseURL string) *Service {
	return &Service{fs: afs.New(), base: baseURL}
}

// Save uploads data under the given object name and returns its full
// location URL, which callers persist on the record.
func (s *Service) Save(ctx context.Context, name string, data []byte) (string, error) {
	dest := url.Join(s.base, name)
	if err := s.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload %s: %w", dest, err)
	}
	return dest, nil
}

func (s *Service) Load(ctx context.Context, location string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", location, err)
	}
	return data, nil
}

func (s *Service) Exists(ctx context.Context, location string) (bool, error) {
	return s.fs.Exists(ctx, location)
}

func (s *Service) Delete(ctx context.Context, location string) error {
	ok, err := s.fs.Exists(ctx, location)
	if err != nil || !ok {
		return err
	}
	return s.fs.Delete(ctx, location)
}
