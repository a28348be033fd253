package ids

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	gen := UUIDv7Generator{Prefix: DefaultPrefix}
	id := gen.Generate()

	require.True(t, strings.HasPrefix(id, DefaultPrefix))
	parsed, err := uuid.Parse(strings.TrimPrefix(id, DefaultPrefix))
	require.NoError(t, err, "suffix should be a valid UUID")
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_NoPrefix(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)
}

func TestUUIDv7Generator_Concurrent(t *testing.T) {
	gen := UUIDv7Generator{Prefix: DefaultPrefix}
	const goroutines = 100

	out := make(chan string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out <- gen.Generate()
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[string]bool)
	for id := range out {
		require.False(t, seen[id], "duplicate id generated")
		seen[id] = true
	}
	assert.Len(t, seen, goroutines)
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("CERT-")
	assert.Equal(t, "CERT-0001", gen.Generate())
	assert.Equal(t, "CERT-0002", gen.Generate())
	assert.Equal(t, "CERT-0003", gen.Generate())
}

func TestFixedGenerator_Sequential(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}
