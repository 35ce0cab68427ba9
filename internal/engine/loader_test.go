package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andeptrai/ocr-studio/pkg/logger"
)

type stubEngine struct {
	closed bool
}

func (e *stubEngine) Convert(ctx context.Context, path string) (*Rendered, error) {
	return &Rendered{}, nil
}

func (e *stubEngine) Close() error {
	e.closed = true
	return nil
}

func TestLoaderConstructsOnce(t *testing.T) {
	constructed := 0
	eng := &stubEngine{}
	l := NewLoader(logger.NewTestLogger(), func() (Engine, error) {
		constructed++
		return eng, nil
	})

	first, err := l.Load()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		got, err := l.Load()
		require.NoError(t, err)
		assert.Same(t, first, got, "every call must return the same handle")
	}
	assert.Equal(t, 1, constructed)
	assert.True(t, l.Ready())
}

func TestLoaderCachesFailure(t *testing.T) {
	constructed := 0
	l := NewLoader(logger.NewTestLogger(), func() (Engine, error) {
		constructed++
		return nil, errors.New("no language data")
	})

	_, err := l.Load()
	require.Error(t, err)

	var initErr *InitError
	assert.ErrorAs(t, err, &initErr)

	// Subsequent calls surface the same failure without re-running the
	// expensive construction.
	_, err2 := l.Load()
	assert.Error(t, err2)
	assert.Equal(t, 1, constructed)
	assert.False(t, l.Ready())
}

func TestLoaderReadyBeforeLoad(t *testing.T) {
	l := NewLoader(logger.NewTestLogger(), func() (Engine, error) {
		return &stubEngine{}, nil
	})
	assert.False(t, l.Ready())

	_, err := l.Load()
	require.NoError(t, err)
	assert.True(t, l.Ready())
}

func TestLoaderConcurrentLoad(t *testing.T) {
	constructed := 0
	l := NewLoader(logger.NewTestLogger(), func() (Engine, error) {
		constructed++
		return &stubEngine{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Load()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, constructed)
}

func TestLoaderCloseReleasesEngine(t *testing.T) {
	eng := &stubEngine{}
	l := NewLoader(logger.NewTestLogger(), func() (Engine, error) {
		return eng, nil
	})

	_, err := l.Load()
	require.NoError(t, err)
	require.NoError(t, l.Close())
	assert.True(t, eng.closed)
}
