package media

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an upload by its file extension.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

// Media is the metadata record for one stored file. Exactly one stored file
// exists per record; audio records additionally own a waveform artifact
// stored under StorageKey + ".dat".
type Media struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StorageKey  string    `json:"storage_key"`
	Kind        Kind      `json:"kind"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type CreateMediaInput struct {
	ProjectID   uuid.UUID
	Title       string
	Description string
	StorageKey  string
	Kind        Kind
}

// WaveformSuffix names the derived waveform artifact next to its original.
const WaveformSuffix = ".dat"

// WaveformKey returns the storage key of the waveform artifact derived from
// the given original.
func WaveformKey(storageKey string) string {
	return storageKey + WaveformSuffix
}

var kindByExtension = map[string]Kind{
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".ogg":  KindAudio,
	".flac": KindAudio,
	".m4a":  KindAudio,
	".aiff": KindAudio,
	".mp4":  KindVideo,
	".mov":  KindVideo,
	".webm": KindVideo,
	".avi":  KindVideo,
	".mkv":  KindVideo,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".svg":  KindImage,
	".bmp":  KindImage,
}

var contentTypeByExtension = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".aiff": "audio/aiff",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
}

// DefaultContentType is served for extensions outside the table.
const DefaultContentType = "application/octet-stream"

// KindForName maps a file name to its media kind by extension. The second
// return is false for extensions outside the supported set.
func KindForName(name string) (Kind, bool) {
	kind, ok := kindByExtension[strings.ToLower(filepath.Ext(name))]
	return kind, ok
}

// IsAudioName reports whether the name maps to the audio kind. Audio uploads
// are the ones that get a waveform artifact derived.
func IsAudioName(name string) bool {
	kind, ok := KindForName(name)
	return ok && kind == KindAudio
}

// ContentTypeFor resolves the MIME type for a stored file name from its
// extension, falling back to an opaque octet stream.
func ContentTypeFor(name string) string {
	if contentType, ok := contentTypeByExtension[strings.ToLower(filepath.Ext(name))]; ok {
		return contentType
	}
	return DefaultContentType
}

// IsVideoContentType reports whether the resolved type is a video type;
// video responses advertise byte-range support.
func IsVideoContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "video/")
}
