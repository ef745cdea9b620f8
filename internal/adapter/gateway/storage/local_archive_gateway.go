package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/auditjournal/internal/application/port/output"
	"github.com/YoshitsuguKoike/auditjournal/internal/infra/persistence/file"
)

// LocalArchiveGateway implements ArchiveGateway on a filesystem
// Directory structure: <baseDir>/journals/<record id>.json
type LocalArchiveGateway struct {
	fs      afero.Fs
	baseDir string
}

// NewLocalArchiveGateway creates a filesystem archive rooted at baseDir
func NewLocalArchiveGateway(fs afero.Fs, baseDir string) (*LocalArchiveGateway, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	if err := fs.MkdirAll(filepath.Join(baseDir, journalsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &LocalArchiveGateway{fs: fs, baseDir: baseDir}, nil
}

// SaveJournal writes one journal document atomically
func (g *LocalArchiveGateway) SaveJournal(ctx context.Context, req output.SaveJournalRequest) (*output.ArchiveMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(g.baseDir, journalsDir, archiveName(req.RecordID))
	if err := file.WriteFileAtomic(g.fs, path, req.Content, 0o644); err != nil {
		return nil, fmt.Errorf("write journal archive: %w", err)
	}

	info, err := g.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat journal archive: %w", err)
	}
	return &output.ArchiveMetadata{
		RecordID:    req.RecordID,
		JournalID:   req.JournalID,
		StoragePath: path,
		Size:        info.Size(),
		ArchivedAt:  info.ModTime(),
	}, nil
}

// ListArchived lists archived journals in ascending record id order.
// A journals directory removed since construction lists as empty.
func (g *LocalArchiveGateway) ListArchived(ctx context.Context) ([]*output.ArchiveMetadata, error) {
	dir := filepath.Join(g.baseDir, journalsDir)
	entries, err := afero.ReadDir(g.fs, dir)
	if os.IsNotExist(err) {
		return []*output.ArchiveMetadata{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive directory: %w", err)
	}

	list := make([]*output.ArchiveMetadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := parseArchiveName(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		list = append(list, &output.ArchiveMetadata{
			RecordID:    id,
			JournalID:   g.readJournalID(path),
			StoragePath: path,
			Size:        entry.Size(),
			ArchivedAt:  entry.ModTime(),
		})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].RecordID < list[j].RecordID })
	return list, nil
}

// readJournalID returns the id field of an archived document, or "" when
// the document is unreadable
func (g *LocalArchiveGateway) readJournalID(path string) string {
	data, err := afero.ReadFile(g.fs, path)
	if err != nil {
		return ""
	}
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ""
	}
	return head.ID
}

var _ output.ArchiveGateway = (*LocalArchiveGateway)(nil)
