package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/filex"
)

// MinimalValueLimit is the per-value byte cap of the minimal tier. The tier
// exists for tiny recovery records (auth snapshot, flags), not app state.
const MinimalValueLimit = 4096

// MinimalTier keeps all keys in a single JSON file. It is the cheapest tier
// that still survives restarts, and the last fallback before memory.
type MinimalTier struct {
	mu   sync.Mutex
	path string
}

func NewMinimalTier(path string) *MinimalTier {
	return &MinimalTier{path: path}
}

func (m *MinimalTier) Kind() Kind { return KindMinimal }

func (m *MinimalTier) read() (map[string][]byte, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read minimal store: %w", err)
	}
	var values map[string][]byte
	if err := json.Unmarshal(data, &values); err != nil {
		// an unreadable fallback file is treated as empty, the tier must
		// stay usable
		return map[string][]byte{}, nil
	}
	return values, nil
}

func (m *MinimalTier) write(values map[string][]byte) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode minimal store: %w", err)
	}
	if err := filex.WriteFileAtomic(m.path, data, 0o660); err != nil {
		return fmt.Errorf("write minimal store: %w", err)
	}
	return nil
}

func (m *MinimalTier) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	values, err := m.read()
	if err != nil {
		return nil, err
	}
	v, ok := values[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *MinimalTier) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(value) > MinimalValueLimit {
		return fmt.Errorf("%w: %d > %d bytes", common.ErrValueTooLarge, len(value), MinimalValueLimit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	values, err := m.read()
	if err != nil {
		return err
	}
	values[key] = value
	return m.write(values)
}

func (m *MinimalTier) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	values, err := m.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return m.write(values)
}

func (m *MinimalTier) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	values, err := m.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	return keys, nil
}
