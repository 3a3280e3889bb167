package interfaces

import (
	"context"
	"io"
)

// Artifact describes a generated file handed to an ArtifactStore.
type Artifact struct {
	Path        string
	Content     io.Reader
	Size        int64
	Category    string
	ContentType string
	Checksum    string
	Metadata    map[string]string
}

// ArtifactStore persists static build outputs. Paths are slash separated and
// relative to the store root.
type ArtifactStore interface {
	EnsureDir(ctx context.Context, path string) error
	Write(ctx context.Context, artifact Artifact) error
	Remove(ctx context.Context, path string) error
}

// ArtifactReader is implemented by stores that can read back earlier
// outputs, such as a build manifest.
type ArtifactReader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}
