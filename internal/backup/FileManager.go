package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"timekeeper/internal/backup/interfaces"
	"timekeeper/internal/models"
	"timekeeper/internal/providers"
	"timekeeper/internal/storage"
)

const SnapshotVersion = 1

// Snapshot is the on-disk backup of every user and event.
type Snapshot struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	Users     []models.User  `json:"users"`
	Events    []models.Event `json:"events"`
}

// RestoreStats counts what a restore wrote and what it skipped because the
// record already existed.
type RestoreStats struct {
	Users         int
	Events        int
	SkippedUsers  int
	SkippedEvents int
}

type FileManager struct {
	store      storage.Store
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, store storage.Store, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		logger:     logger,
	}
}

func (f *FileManager) snapshot(ctx context.Context) (*Snapshot, error) {
	users, err := f.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	events, err := f.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return &Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UTC(),
		Users:     users,
		Events:    events,
	}, nil
}

// SaveToFile writes a compressed snapshot next to fileName and renames it into
// place, so readers never see a partial file.
func (f *FileManager) SaveToFile(ctx context.Context, fileName string) error {
	snap, err := f.snapshot(ctx)
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores a snapshot into the store. Users and events that
// already exist are left untouched. A missing file restores nothing.
func (f *FileManager) LoadFromFile(ctx context.Context, fileName string) (RestoreStats, error) {
	var stats RestoreStats

	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return stats, err
	}

	var snap Snapshot
	if err := json.Unmarshal(decompressed, &snap); err != nil {
		return stats, fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return stats, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	for _, u := range snap.Users {
		ok, err := f.store.RestoreUser(ctx, u)
		if err != nil {
			return stats, fmt.Errorf("restore user %s: %w", u.ID, err)
		}
		if ok {
			stats.Users++
		} else {
			stats.SkippedUsers++
		}
	}

	for _, ev := range snap.Events {
		err := f.store.InsertEvent(ctx, ev)
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			stats.SkippedEvents++
		case err != nil:
			return stats, fmt.Errorf("restore event %s: %w", ev.ID, err)
		default:
			stats.Events++
		}
	}

	if stats.SkippedUsers > 0 || stats.SkippedEvents > 0 {
		f.logger.Warnf(providers.TypeApp, "Restore skipped %d existing users and %d existing events", stats.SkippedUsers, stats.SkippedEvents)
	}
	return stats, nil
}
