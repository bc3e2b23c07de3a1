package mediastore

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"trackroom/internal/domain/media"
	"trackroom/internal/infra/disk"
	apperrors "trackroom/pkg/errors"
)

// WaveformExtractor derives a waveform artifact from an audio file.
type WaveformExtractor interface {
	Generate(ctx context.Context, src, dst string) error
}

// Service owns the storage root: it ingests uploads, derives waveform
// artifacts for audio, and removes stored files with their artifacts.
type Service struct {
	store     *disk.Store
	extractor WaveformExtractor
	maxBytes  int64
	nowMillis func() int64
}

func NewService(store *disk.Store, extractor WaveformExtractor, maxBytes int64) *Service {
	return &Service{
		store:     store,
		extractor: extractor,
		maxBytes:  maxBytes,
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
}

// Ingest persists an uploaded stream under a fresh storage key and, for
// audio, derives the waveform artifact. Any failure after the original has
// been written removes it again: a stored file only survives an ingest that
// succeeded as a whole, so no record can ever reference a half-created pair.
func (s *Service) Ingest(ctx context.Context, r io.Reader, originalName string, declaredSize int64) (string, error) {
	if declaredSize > s.maxBytes {
		return "", apperrors.TooLarge(fmt.Sprintf("file exceeds the %d byte upload limit", s.maxBytes))
	}

	// Millisecond timestamp plus the sanitized name keeps concurrent
	// ingests on distinct paths without coordination. Two uploads of the
	// same name in the same millisecond would collide; accepted.
	key := fmt.Sprintf("%d_%s", s.nowMillis(), disk.SanitizeName(originalName))

	if _, err := s.store.Write(key, r); err != nil {
		return "", apperrors.StorageFailed("failed to store upload", err)
	}

	if media.IsAudioName(originalName) {
		if err := s.deriveWaveform(ctx, key); err != nil {
			s.discard(key)
			return "", err
		}
	}

	return key, nil
}

func (s *Service) deriveWaveform(ctx context.Context, key string) error {
	src, err := s.store.Path(key)
	if err != nil {
		return apperrors.StorageFailed("failed to resolve storage path", err)
	}

	if err := s.extractor.Generate(ctx, src, src+media.WaveformSuffix); err != nil {
		return apperrors.DerivationFailed("failed to derive waveform", err)
	}

	return nil
}

// discard removes whatever an aborted ingest left behind.
func (s *Service) discard(key string) {
	if err := s.store.Remove(key); err != nil {
		log.Printf("failed to clean up aborted ingest %s: %v", key, err)
	}
	if s.store.Exists(media.WaveformKey(key)) {
		if err := s.store.Remove(media.WaveformKey(key)); err != nil {
			log.Printf("failed to clean up partial waveform for %s: %v", key, err)
		}
	}
}

// Remove deletes a stored file. The waveform sibling is unlinked too when
// present, but its failure never fails the removal.
func (s *Service) Remove(name string) error {
	if err := s.store.Remove(name); err != nil {
		return err
	}

	waveformKey := media.WaveformKey(name)
	if s.store.Exists(waveformKey) {
		if err := s.store.Remove(waveformKey); err != nil {
			log.Printf("failed to remove waveform artifact %s: %v", waveformKey, err)
		}
	}

	return nil
}

// Open hands out a read handle for a stored file.
func (s *Service) Open(name string) (io.ReadSeekCloser, int64, time.Time, error) {
	f, info, err := s.store.Open(name)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	return f, info.Size(), info.ModTime(), nil
}
