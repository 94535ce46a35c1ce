package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/taskvault/internal/filex"
)

// FileTier stores one file per key inside a root directory. Keys are
// percent-encoded to stay filesystem-safe (":" in namespace prefixes would
// otherwise be rejected on some systems). Writes are atomic.
//
// The same implementation backs two tier kinds: the durable tier rooted in
// the profile directory, and the ephemeral tier rooted in a per-boot
// session directory that Purge removes on teardown.
type FileTier struct {
	kind Kind
	root string
}

// NewDurableTier creates the durable file tier rooted at dir.
func NewDurableTier(dir string) (*FileTier, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("durable tier root: %w", err)
	}
	return &FileTier{kind: KindDurable, root: root}, nil
}

// NewEphemeralTier creates the ephemeral file tier rooted at dir.
func NewEphemeralTier(dir string) (*FileTier, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ephemeral tier root: %w", err)
	}
	return &FileTier{kind: KindEphemeral, root: root}, nil
}

func (f *FileTier) Kind() Kind { return f.kind }

func (f *FileTier) path(key string) string {
	return filepath.Join(f.root, url.QueryEscape(key))
}

func (f *FileTier) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s[%s]: %w", f.kind, key, err)
	}
	return data, nil
}

func (f *FileTier) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(f.path(key), value, 0o660); err != nil {
		return fmt.Errorf("write %s[%s]: %w", f.kind, key, err)
	}
	return nil
}

func (f *FileTier) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s[%s]: %w", f.kind, key, err)
	}
	return nil
}

func (f *FileTier) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", f.kind, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, err := url.QueryUnescape(e.Name())
		if err != nil {
			// not one of ours
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Purge removes the tier's root directory and everything in it. Used for
// the ephemeral tier at teardown.
func (f *FileTier) Purge() error {
	return os.RemoveAll(f.root)
}
