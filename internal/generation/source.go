package generation

import (
	"context"
	"fmt"
	"os"
	"time"
)

// SourceReader gives access to the documents generation starts from.
type SourceReader interface {
	ReadText(ctx context.Context, path string) (string, error)
	StatMtime(ctx context.Context, path string) (time.Time, error)
}

// FileSources reads sources from the local filesystem.
type FileSources struct{}

func (FileSources) ReadText(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source %s: %w", path, err)
	}
	return string(data), nil
}

func (FileSources) StatMtime(_ context.Context, path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat source %s: %w", path, err)
	}
	return info.ModTime(), nil
}
