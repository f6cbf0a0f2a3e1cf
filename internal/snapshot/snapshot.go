// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snapshot wraps the aggregated paper list with metadata and
// persists it as the JSON file the display page reads.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-feed/pkg/types"
)

// ErrLocked is returned when another writer holds the snapshot lock.
var ErrLocked = errors.New("snapshot is locked by another writer")

// New builds a Snapshot stamped with now in the zone utcOffset away from UTC.
func New(papers []types.Paper, categories []string, now time.Time, utcOffset time.Duration) types.Snapshot {
	if papers == nil {
		papers = []types.Paper{}
	}
	zone := time.FixedZone("", int(utcOffset/time.Second))
	return types.Snapshot{
		LastUpdated: now.In(zone).Format(time.RFC3339),
		TotalPapers: len(papers),
		Categories:  append([]string(nil), categories...),
		Papers:      papers,
	}
}

// BackupPath returns the sibling path that holds the previous snapshot
// (e.g. "data/papers.json" -> "data/papers.backup.json").
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".backup" + ext
}

// Write persists snap at path. The sequence is: ensure the directory exists,
// take the advisory lock, write the new content to a temp file, move any
// existing snapshot to BackupPath (replacing an older backup), then rename
// the temp file into place.
func Write(path string, snap types.Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring snapshot lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer lock.Unlock()

	data, err := Marshal(snap)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("setting snapshot permissions: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, BackupPath(path)); err != nil {
			return fmt.Errorf("backing up previous snapshot: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking existing snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("moving snapshot into place: %w", err)
	}
	return nil
}

// Marshal renders snap as two-space indented JSON with a trailing newline.
// HTML characters are written literally.
func Marshal(snap types.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Read loads a snapshot written by Write.
func Read(path string) (types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return types.Snapshot{}, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return snap, nil
}

// ExportYAML writes snap to w as YAML.
func ExportYAML(snap types.Snapshot, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
