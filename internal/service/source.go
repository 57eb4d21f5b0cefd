package service

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/source"
)

// Source file types.
const (
	FileGeoJSON    = "GeoJSON"
	FileGeoParquet = "GeoParquet"
)

// parquetGeomColumn is the geometry column GeoParquet writers use.
const parquetGeomColumn = "geometry"

var extToType = map[string]string{
	".geojson":    FileGeoJSON,
	".json":       FileGeoJSON,
	".parquet":    FileGeoParquet,
	".geoparquet": FileGeoParquet,
}

// SourceService manages the source data files under <data-dir>/sources.
type SourceService struct {
	sourcesDir string
	db         *sql.DB
	bus        *EventBus
	logger     *slog.Logger
}

// NewSourceService creates a source service. GeoParquet files are read
// through db and cannot be opened when it is nil.
func NewSourceService(dataDir string, db *sql.DB, bus *EventBus, logger *slog.Logger) *SourceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceService{
		sourcesDir: filepath.Join(dataDir, "sources"),
		db:         db,
		bus:        bus,
		logger:     logger,
	}
}

// List returns the supported source files, ordered by name.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := os.ReadDir(s.sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SourceFile{}, nil
		}
		return nil, err
	}

	files := []SourceFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileType, ok := fileTypeOf(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			FileType: fileType,
		})
	}
	return files, nil
}

// Save writes an uploaded file, replacing any file of the same name.
func (s *SourceService) Save(name string, data []byte) (SourceFile, error) {
	path, fileType, err := s.path(name)
	if err != nil {
		return SourceFile{}, err
	}
	if fileType == FileGeoJSON {
		if _, err := geojson.UnmarshalFeatureCollection(data); err != nil {
			return SourceFile{}, fmt.Errorf("%w: %s is not a feature collection: %v", errdefs.ErrValidation, name, err)
		}
	}
	if err := os.MkdirAll(s.sourcesDir, 0o755); err != nil {
		return SourceFile{}, fmt.Errorf("creating sources dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return SourceFile{}, err
	}
	s.logger.Info("saved source", "name", name, "bytes", len(data))
	s.publish(ActionCreated, name)
	return SourceFile{Name: name, Size: formatSize(int64(len(data))), FileType: fileType}, nil
}

// Delete removes a source file.
func (s *SourceService) Delete(name string) error {
	path, _, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &errdefs.NotFoundError{Entity: "source", ID: name}
		}
		return err
	}
	s.publish(ActionDeleted, name)
	return nil
}

// Open returns the file as a layer source: GeoJSON files are decoded in
// memory, GeoParquet files become a read_parquet query.
func (s *SourceService) Open(name string, opts ...source.Option) (source.Source, error) {
	path, fileType, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &errdefs.NotFoundError{Entity: "source", ID: name}
		}
		return nil, err
	}

	switch fileType {
	case FileGeoParquet:
		if s.db == nil {
			return nil, errdefs.Unsupported("reading %s without a database", name)
		}
		query := fmt.Sprintf("SELECT * FROM read_parquet('%s')", strings.ReplaceAll(path, "'", "''"))
		opts = append([]source.Option{source.WithGeomColumn(parquetGeomColumn)}, opts...)
		return source.NewSQL(s.db, query, opts...), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding %s: %v", errdefs.ErrValidation, name, err)
		}
		return source.NewGeoJSON(fc, opts...), nil
	}
}

// SourcesDir returns the path to the sources directory.
func (s *SourceService) SourcesDir() string {
	return s.sourcesDir
}

// path resolves a bare file name inside the sources directory.
func (s *SourceService) path(name string) (string, string, error) {
	if name == "" || filepath.Base(name) != name || strings.Contains(name, "..") {
		return "", "", errdefs.Invalid("source file name", name)
	}
	fileType, ok := fileTypeOf(name)
	if !ok {
		return "", "", errdefs.Invalid("source file extension", filepath.Ext(name), ".geojson", ".json", ".parquet", ".geoparquet")
	}
	return filepath.Join(s.sourcesDir, name), fileType, nil
}

func (s *SourceService) publish(action, id string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(Event{Resource: ResourceSources, Action: action, ID: id})
}

func fileTypeOf(name string) (string, bool) {
	t, ok := extToType[strings.ToLower(filepath.Ext(name))]
	return t, ok
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
