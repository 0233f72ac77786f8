package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
)

// Store abstracts where datasets live. The engine resolves by bare name
// so jobs never carry filesystem paths in their payloads.
type Store interface {
	// Resolve returns the on-disk path for a dataset name, preferring
	// uploads over processed outputs.
	Resolve(name string) (string, error)
	// Load resolves and parses a dataset.
	Load(name, separator string) (*Dataset, error)
	// SaveProcessed writes a transformed dataset and returns its path.
	SaveProcessed(name string, d *Dataset) (string, error)
	// ListUploads returns the uploaded dataset filenames.
	ListUploads() ([]string, error)
}

// FileStore keeps datasets under an uploads and a processed directory.
type FileStore struct {
	uploadsDir   string
	processedDir string
	logger       *zap.Logger
}

// NewFileStore creates a filesystem-backed store.
func NewFileStore(uploadsDir, processedDir string, logger *zap.Logger) *FileStore {
	return &FileStore{
		uploadsDir:   uploadsDir,
		processedDir: processedDir,
		logger:       logger.Named("dataset-store"),
	}
}

// Resolve rejects path traversal and then checks uploads first, falling
// back to processed outputs so downstream jobs can chain on them.
func (s *FileStore) Resolve(name string) (string, error) {
	clean := filepath.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean != name {
		return "", apperrors.Validation("invalid dataset name %q", name)
	}
	candidates := []string{
		filepath.Join(s.uploadsDir, clean),
		filepath.Join(s.processedDir, clean),
	}
	if !strings.Contains(clean, ".") {
		candidates = append(candidates,
			filepath.Join(s.uploadsDir, clean+".csv"),
			filepath.Join(s.processedDir, clean+".csv"),
		)
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", apperrors.Storage(apperrors.ErrNotFound, "dataset %q not found", name)
}

func (s *FileStore) Load(name, separator string) (*Dataset, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	ds, err := ReadCSVFile(path, separator)
	if err != nil {
		return nil, apperrors.Storage(err, "load dataset %q", name)
	}
	ds.Name = name
	s.logger.Debug("dataset loaded",
		zap.String("name", name),
		zap.Int("rows", ds.Rows()),
		zap.Int("columns", len(ds.Columns)))
	return ds, nil
}

func (s *FileStore) SaveProcessed(name string, d *Dataset) (string, error) {
	clean := filepath.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." {
		return "", apperrors.Validation("invalid output name %q", name)
	}
	path := filepath.Join(s.processedDir, clean)
	if err := WriteCSVFile(path, d); err != nil {
		return "", apperrors.Storage(err, "save dataset %q", clean)
	}
	s.logger.Info("processed dataset written",
		zap.String("path", path),
		zap.Int("rows", d.Rows()),
		zap.Int("columns", len(d.Columns)))
	return path, nil
}

func (s *FileStore) ListUploads() ([]string, error) {
	entries, err := os.ReadDir(s.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Storage(err, "list uploads")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := strings.ToLower(filepath.Ext(e.Name())); ext == ".csv" || ext == ".txt" {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// SaveUpload writes raw uploaded bytes into the uploads directory and is
// used by the upload handler.
func (s *FileStore) SaveUpload(name string, data []byte) (string, error) {
	clean := filepath.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean != name {
		return "", apperrors.Validation("invalid dataset name %q", name)
	}
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", apperrors.Storage(err, "create uploads dir")
	}
	path := filepath.Join(s.uploadsDir, clean)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.Storage(err, "save upload %q", clean)
	}
	return path, nil
}

var _ Store = (*FileStore)(nil)
