package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"stb/internal/logging"
	"stb/internal/storage"
	"stb/internal/version"
)

// Exporter writes analysis archives from the history store
type Exporter struct {
	store  *storage.AnalysisStore
	logger *logging.Logger
}

// NewExporter creates a new exporter
func NewExporter(store *storage.AnalysisStore, logger *logging.Logger) *Exporter {
	return &Exporter{
		store:  store,
		logger: logger,
	}
}

// Export writes stored analyses to opts.Out as a zstd-compressed JSON
// archive and returns the written path with the archive metadata. Records
// are ordered oldest first, so exporting the same store twice produces
// archives with identical record order.
func (e *Exporter) Export(opts ExportOptions) (string, *Metadata, error) {
	out := opts.Out
	if out == "" {
		out = DefaultOutputPath
	}

	e.logger.Debug("Starting analysis export", map[string]interface{}{
		"out":           out,
		"includeSource": opts.IncludeSource,
	})

	analyses, err := e.store.All()
	if err != nil {
		return "", nil, fmt.Errorf("failed to load analyses: %w", err)
	}
	if opts.Limit > 0 && len(analyses) > opts.Limit {
		analyses = analyses[:opts.Limit]
	}

	archive := &Archive{
		Metadata: Metadata{
			Tool:      "stb",
			Version:   version.Version,
			Generated: time.Now().UTC().Format(time.RFC3339),
			Count:     len(analyses),
		},
		Analyses: make([]Record, 0, len(analyses)),
	}
	for _, a := range analyses {
		archive.Analyses = append(archive.Analyses, recordFromAnalysis(a, opts.IncludeSource))
	}
	archive.Metadata.Summary = Summarize(archive.Analyses)

	if err := writeArchive(out, archive); err != nil {
		return "", nil, err
	}

	e.logger.Info("Wrote analysis archive", map[string]interface{}{
		"path":  out,
		"count": archive.Metadata.Count,
	})

	return out, &archive.Metadata, nil
}

func recordFromAnalysis(a *storage.Analysis, includeSource bool) Record {
	r := Record{
		ID:          a.ID,
		CreatedAt:   a.CreatedAt,
		FileName:    a.FileName,
		SourceLines: a.SourceLines,
		TokenCount:  a.TokenCount,
		ErrorCount:  a.ErrorCount,
		Score:       a.Score,
		Priority:    a.Priority,
		Blueprint:   json.RawMessage(a.BlueprintJSON),
	}
	if includeSource {
		r.Source = a.Source
	}
	return r
}

func writeArchive(path string, archive *Archive) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(archive); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}

// ReadArchive loads and decodes an archive written by Export.
func ReadArchive(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer zr.Close()

	var archive Archive
	if err := json.NewDecoder(zr).Decode(&archive); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	return &archive, nil
}
