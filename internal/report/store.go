package report

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// compressedExt marks history files stored zstd-compressed
const compressedExt = ".zst"

// Load reads a summary written by Save
func Load(path string) (Summary, error) {
	var summary Summary

	data, err := os.ReadFile(path)
	if err != nil {
		return summary, errors.Wrapf(err, "read %s", path)
	}
	if strings.HasSuffix(path, compressedExt) {
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return summary, errors.Wrap(err, "zstd reader")
		}
		defer dec.Close()
		if data, err = io.ReadAll(dec); err != nil {
			return summary, errors.Wrapf(err, "decompress %s", path)
		}
	}

	if err := json.Unmarshal(data, &summary); err != nil {
		return summary, errors.Wrapf(err, "parse %s", path)
	}
	return summary, nil
}

// Save writes summary as indented JSON, creating parent directories
func Save(path string, summary Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal summary")
	}

	if strings.HasSuffix(path, compressedExt) {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			return errors.Wrap(err, "zstd writer")
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return errors.Wrap(err, "compress summary")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "compress summary")
		}
		data = buf.Bytes()
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// Append merges results into the summary stored at path, replacing results
// with the same name. The header (timestamp, commit, versions) comes from
// head. A missing file starts an empty history; a file that exists but
// cannot be read is left untouched and reported.
func Append(path string, head Summary, results ...Result) error {
	summary := head
	summary.Results = nil
	existing, err := Load(path)
	switch {
	case err == nil:
		summary.Results = existing.Results
	case errors.Is(err, os.ErrNotExist):
	default:
		return errors.Wrap(err, "refusing to overwrite history")
	}

	for _, r := range results {
		CleanMetrics(&r)
		replaced := false
		for i := range summary.Results {
			if summary.Results[i].Name == r.Name {
				summary.Results[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			summary.Results = append(summary.Results, r)
		}
	}
	return Save(path, summary)
}
