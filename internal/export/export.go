// Package export writes and reads incident archives. An archive is a
// zstd-compressed stream of JSON lines with a header line first, so
// snapshots can be moved between installations without sharing the
// database file.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	ikberr "ikb/internal/errors"
	"ikb/internal/incident"
	"ikb/internal/logging"
	"ikb/internal/stats"
)

// ArchiveFormat identifies the header line of an archive.
const ArchiveFormat = "ikb-incidents/1"

// Header is the first JSON line of an archive.
type Header struct {
	Format     string `json:"format"`
	ExportedAt string `json:"exported_at"`
	Count      int64  `json:"count"`
}

// Exporter streams incidents out of a store.
type Exporter struct {
	store  *stats.Store
	logger *logging.Logger
}

// NewExporter creates an exporter over an open store.
func NewExporter(store *stats.Store, logger *logging.Logger) *Exporter {
	return &Exporter{store: store, logger: logger.WithComponent("export")}
}

// WriteArchive writes all incidents to w as a zstd-compressed JSON-lines
// archive. Returns the number of records written.
func (e *Exporter) WriteArchive(ctx context.Context, w io.Writer) (int64, error) {
	count, err := e.store.Count(ctx)
	if err != nil {
		return 0, err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, ikberr.New(ikberr.InternalError, "failed to create compressor", err)
	}

	enc := json.NewEncoder(zw)
	header := Header{
		Format:     ArchiveFormat,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      count,
	}
	if err := enc.Encode(header); err != nil {
		zw.Close()
		return 0, ikberr.New(ikberr.InternalError, "failed to write archive header", err)
	}

	var written int64
	err = e.store.Each(ctx, func(r incident.Record) error {
		if err := enc.Encode(r); err != nil {
			return ikberr.New(ikberr.InternalError,
				fmt.Sprintf("failed to write incident %s", r.IncidentID), err)
		}
		written++
		return nil
	})
	if err != nil {
		zw.Close()
		return written, err
	}

	if err := zw.Close(); err != nil {
		return written, ikberr.New(ikberr.InternalError, "failed to finish archive", err)
	}

	e.logger.Info("archive written", map[string]interface{}{"records": written})
	return written, nil
}

// WriteArchiveFile writes an archive to path, creating the file.
func (e *Exporter) WriteArchiveFile(ctx context.Context, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, ikberr.New(ikberr.InternalError, fmt.Sprintf("failed to create %s", path), err)
	}
	defer f.Close()

	n, err := e.WriteArchive(ctx, f)
	if err != nil {
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, ikberr.New(ikberr.InternalError, fmt.Sprintf("failed to close %s", path), err)
	}
	return n, nil
}

// ReadArchive reads an archive produced by WriteArchive and returns the
// header plus all records. The header count is advisory; the returned
// slice is authoritative.
func ReadArchive(r io.Reader) (*Header, []incident.Record, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, ikberr.New(ikberr.ImportFailed, "failed to open archive", err)
	}
	defer zr.Close()

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, nil, ikberr.New(ikberr.ImportFailed, "failed to read archive header", err)
		}
		return nil, nil, ikberr.New(ikberr.ImportFailed, "archive is empty", nil)
	}

	var header Header
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return nil, nil, ikberr.New(ikberr.ImportFailed, "malformed archive header", err)
	}
	if header.Format != ArchiveFormat {
		return nil, nil, ikberr.New(ikberr.ImportFailed,
			fmt.Sprintf("unsupported archive format: %s", header.Format), nil)
	}

	var records []incident.Record
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec incident.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, nil, ikberr.New(ikberr.ImportFailed,
				fmt.Sprintf("malformed record at line %d", len(records)+2), err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, ikberr.New(ikberr.ImportFailed, "failed to read archive", err)
	}

	return &header, records, nil
}

// ReadArchiveFile reads an archive from path.
func ReadArchiveFile(path string) (*Header, []incident.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, ikberr.New(ikberr.ImportFailed, fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()
	return ReadArchive(f)
}
