package menu

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MenuState abstracts where the raw menu document lives.
type MenuState interface {
	Load(ctx context.Context) ([]byte, error)
}

// FileMenuState reads a menu document from a directory of JSON files.
type FileMenuState struct {
	dir  string
	name string
}

// NewFileMenuState creates a file-backed menu source for <dir>/<name>.json.
func NewFileMenuState(dir, name string) *FileMenuState {
	return &FileMenuState{dir: dir, name: name}
}

func (f *FileMenuState) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, f.name+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}
	return data, nil
}

type s3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3MenuState reads a menu document from an S3 object.
type S3MenuState struct {
	client s3Client
	bucket string
	key    string
}

// NewS3MenuState creates an S3-backed menu source.
func NewS3MenuState(client s3Client, bucket, key string) *S3MenuState {
	return &S3MenuState{client: client, bucket: bucket, key: key}
}

func (s *S3MenuState) Load(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get menu object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu object body: %w", err)
	}
	return data, nil
}

// TestMenuState serves canned bytes, for tests.
type TestMenuState struct {
	Data []byte
	Err  error
}

func (t *TestMenuState) Load(ctx context.Context) ([]byte, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	return t.Data, nil
}

// Load fetches and parses a catalog from the given source. Read failures
// wrap ErrCatalogNotFound; parse failures carry ErrCatalogMalformed.
func Load(ctx context.Context, state MenuState) (*Catalog, error) {
	raw, err := state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogNotFound, err)
	}
	return New(raw)
}
