package safemap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSafeMap(t *testing.T) {
	m := NewSafeMap[string, int]()
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Len())
	_, ok := m.Load("x")
	assert.False(t, ok)
}

func TestSafeMap_Store_Load(t *testing.T) {
	m := NewSafeMap[string, int]()

	t.Run("store and load returns value", func(t *testing.T) {
		m.Store("a", 1)
		v, ok := m.Load("a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
	})

	t.Run("overwrite returns new value", func(t *testing.T) {
		m.Store("a", 2)
		v, ok := m.Load("a")
		assert.True(t, ok)
		assert.Equal(t, 2, v)
	})

	t.Run("load missing key returns zero value and false", func(t *testing.T) {
		v, ok := m.Load("nonexistent")
		assert.False(t, ok)
		assert.Equal(t, 0, v)
	})
}

func TestSafeMap_Delete(t *testing.T) {
	m := NewSafeMap[uint64, string]()
	m.Store(1, "a")
	m.Store(2, "b")

	t.Run("delete removes key", func(t *testing.T) {
		m.Delete(1)
		_, ok := m.Load(1)
		assert.False(t, ok)
		v, ok := m.Load(2)
		assert.True(t, ok)
		assert.Equal(t, "b", v)
	})

	t.Run("delete missing key is no-op", func(t *testing.T) {
		m.Delete(99)
		assert.Equal(t, 1, m.Len())
	})
}

func TestSafeMap_Range(t *testing.T) {
	m := NewSafeMap[string, int]()
	m.Store("a", 1)
	m.Store("b", 2)
	m.Store("c", 3)

	t.Run("iterates all entries", func(t *testing.T) {
		seen := make(map[string]int)
		m.Range(func(k string, v int) bool {
			seen[k] = v
			return true
		})
		assert.Len(t, seen, 3)
		assert.Equal(t, 1, seen["a"])
		assert.Equal(t, 2, seen["b"])
		assert.Equal(t, 3, seen["c"])
	})

	t.Run("stops when f returns false", func(t *testing.T) {
		count := 0
		m.Range(func(k string, v int) bool {
			count++
			return false
		})
		assert.Equal(t, 1, count)
	})
}

func TestSafeMap_ConcurrentAccess(t *testing.T) {
	m := NewSafeMap[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Store(n, n*2)
			v, ok := m.Load(n)
			assert.True(t, ok)
			assert.Equal(t, n*2, v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, m.Len())
}
