package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const fileSlotExt = ".json"

// FileSlot stores each key as a file under a directory. Writes land in a
// temporary file that is renamed over the target, so readers observe either
// the previous or the new value.
type FileSlot struct {
	dir string
}

// NewFileSlot creates dir when needed and returns a slot rooted there.
func NewFileSlot(dir string) (*FileSlot, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: file slot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &FileSlot{dir: dir}, nil
}

// Load implements the Slot interface.
func (s *FileSlot) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return data, nil
}

// Store implements the Slot interface.
func (s *FileSlot) Store(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".slot-*")
	if err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	return nil
}

func (s *FileSlot) path(key string) string {
	return filepath.Join(s.dir, EncodeKey(key)+fileSlotExt)
}

// EncodeKey maps a key onto a name safe for file names and document ids.
// Letters, digits and '-' are kept; every other byte becomes '_' followed by
// two upper-case hex digits, so distinct keys never collide and DecodeKey can
// reverse the mapping. The empty key encodes as "_".
func EncodeKey(key string) string {
	if key == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02X", c)
		}
	}
	return b.String()
}

// DecodeKey reverses EncodeKey.
func DecodeKey(name string) (string, error) {
	if name == "_" {
		return "", nil
	}
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		if name[i] != '_' {
			b.WriteByte(name[i])
			continue
		}
		if i+2 >= len(name) {
			return "", fmt.Errorf("storage: truncated escape in %q", name)
		}
		v, err := strconv.ParseUint(name[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("storage: bad escape in %q: %w", name, err)
		}
		b.WriteByte(byte(v))
		i += 2
	}
	return b.String(), nil
}
