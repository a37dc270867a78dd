package testsupport

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureBook struct {
	ID    int64  `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

func TestLoadFixture(t *testing.T) {
	path := WriteTempFile(t, "book.txt", []byte("War and Peace"))
	assert.Equal(t, "War and Peace", string(LoadFixture(t, path)))
}

func TestLoadFixtureJSON(t *testing.T) {
	path := WriteTempFile(t, "books.json", []byte(`[{"id":1,"title":"War and Peace"}]`))

	var books []fixtureBook
	LoadFixtureJSON(t, path, &books)
	assert.Equal(t, []fixtureBook{{ID: 1, Title: "War and Peace"}}, books)
}

func TestLoadFixtureYAML(t *testing.T) {
	path := WriteTempFile(t, "books.yaml", []byte("- id: 2\n  title: Harry met Sally\n"))

	var books []fixtureBook
	LoadFixtureYAML(t, path, &books)
	assert.Equal(t, []fixtureBook{{ID: 2, Title: "Harry met Sally"}}, books)
}

func TestFixturePath(t *testing.T) {
	assert.Equal(t, filepath.Join("testdata", "books.json"), FixturePath("books.json"))
}

func TestCallCounter(t *testing.T) {
	counter := NewCallCounter()

	fn := Counted(counter, "find", func(ctx context.Context, id int) (int, error) {
		return id * 2, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := fn(context.Background(), i)
			assert.NoError(t, err)
			assert.Equal(t, i*2, v)
		}(i)
	}
	wg.Wait()
	counter.Inc("other")

	assert.Equal(t, 10, counter.Count("find"))
	assert.Equal(t, 11, counter.Total())

	counter.Reset()
	assert.Zero(t, counter.Total())
}

func TestClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(start)
	require.Equal(t, start, clock.Now())

	clock.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), clock.Now())
}
