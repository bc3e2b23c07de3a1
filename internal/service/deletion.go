package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"trackroom/internal/domain/media"
)

// MediaMetadata is the slice of the metadata store the coordinator needs.
type MediaMetadata interface {
	GetByID(ctx context.Context, id uuid.UUID) (*media.Media, error)
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

// StorageDeleter removes a stored file (and its waveform sibling) on the
// media storage peer.
type StorageDeleter interface {
	Delete(ctx context.Context, name string) error
}

// DeleteResult distinguishes full success from "metadata clean, storage
// leaked". Callers treat MetadataDeleted as the operation's outcome.
type DeleteResult struct {
	MetadataDeleted bool   `json:"metadata_deleted"`
	StorageDeleted  bool   `json:"storage_deleted"`
	StorageError    string `json:"storage_error,omitempty"`
}

// DeletionCoordinator removes a media record and cascades to its files.
// Metadata goes first and decides the outcome; the storage step is
// best-effort because an orphaned file on disk is recoverable, while a
// record pointing at nothing is a user-visible bug.
type DeletionCoordinator struct {
	metadata MediaMetadata
	storage  StorageDeleter
}

func NewDeletionCoordinator(metadata MediaMetadata, storage StorageDeleter) *DeletionCoordinator {
	return &DeletionCoordinator{metadata: metadata, storage: storage}
}

// Delete removes the record, its comments and, best-effort, its stored
// files. A storage failure is logged and reported in the result, never
// rolled back and never surfaced as an error.
func (d *DeletionCoordinator) Delete(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	record, err := d.metadata.GetByID(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	if err := d.metadata.DeleteCascade(ctx, id); err != nil {
		return DeleteResult{}, err
	}

	result := DeleteResult{MetadataDeleted: true}

	if err := d.storage.Delete(ctx, record.StorageKey); err != nil {
		log.Printf("best-effort storage delete of %s failed, file orphaned: %v", record.StorageKey, err)
		result.StorageError = err.Error()
		return result, nil
	}

	result.StorageDeleted = true
	return result, nil
}
