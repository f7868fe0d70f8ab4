// Package report provides export sinks for collected run reports.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/heapbench/heapbench/internal/errors"
	"github.com/heapbench/heapbench/internal/sampler"
	"github.com/heapbench/heapbench/internal/storage"
)

// Sink accepts a completed run report for display, persistence, or export.
type Sink interface {
	Write(ctx context.Context, report *sampler.Report) error
}

// Encode renders a report as indented JSON.
func Encode(report *sampler.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, errors.NewReportError(errors.CodeExportFailed, "report: encode failed", err)
	}
	return data, nil
}

// ArtifactName derives the export filename from the run: scenario plus the
// first 8 characters of the run ID, with .sz appended for compressed output.
func ArtifactName(report *sampler.Report, compressed bool) string {
	short := report.RunID
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("%s_%s.json", report.Scenario, short)
	if compressed {
		name += ".sz"
	}
	return name
}

// FileSink writes the report as a JSON file into a directory, optionally
// snappy-compressed.
type FileSink struct {
	dir      string
	compress bool
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string, compress bool) *FileSink {
	return &FileSink{dir: dir, compress: compress}
}

// Write exports the report to disk.
func (s *FileSink) Write(ctx context.Context, report *sampler.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(report)
	if err != nil {
		return err
	}
	if s.compress {
		data = snappy.Encode(nil, data)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.NewReportError(errors.CodeExportFailed, "report: cannot create output directory", err)
	}
	path := filepath.Join(s.dir, ArtifactName(report, s.compress))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewReportError(errors.CodeExportFailed, "report: cannot write artifact", err)
	}
	return nil
}

// DecodeArtifact parses an exported artifact back into a report,
// decompressing when the data is a snappy block.
func DecodeArtifact(data []byte, compressed bool) (*sampler.Report, error) {
	if compressed {
		raw, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, errors.NewReportError(errors.CodeExportFailed, "report: snappy decode failed", err)
		}
		data = raw
	}

	var report sampler.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.NewReportError(errors.CodeExportFailed, "report: decode failed", err)
	}
	return &report, nil
}

// StorageSink uploads the report artifact into object storage.
type StorageSink struct {
	store    storage.ObjectStorage
	prefix   string
	compress bool
}

// NewStorageSink creates a sink uploading under prefix.
func NewStorageSink(store storage.ObjectStorage, prefix string, compress bool) *StorageSink {
	return &StorageSink{store: store, prefix: prefix, compress: compress}
}

// Write uploads the report.
func (s *StorageSink) Write(ctx context.Context, report *sampler.Report) error {
	data, err := Encode(report)
	if err != nil {
		return err
	}
	if s.compress {
		data = snappy.Encode(nil, data)
	}

	objectPath := s.prefix + ArtifactName(report, s.compress)
	if err := s.store.Put(ctx, objectPath, data); err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed, "report: upload failed", err)
	}
	return nil
}

// MultiSink fans one report out to several sinks, returning the first error
// after attempting all of them.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Write delivers the report to every sink.
func (s *MultiSink) Write(ctx context.Context, report *sampler.Report) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, report); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
