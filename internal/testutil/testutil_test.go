package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BearerPipelineTest/meta-where/internal/scope"
)

func TestFixedRunIDGenerator(t *testing.T) {
	g := NewFixedRunIDGenerator("run-x")
	assert.Equal(t, "run-x", g.Generate())
	assert.Equal(t, "run-x", g.Generate())
	assert.Equal(t, "test-run-default", NewFixedRunIDGenerator("").Generate())
}

func TestSequentialRunIDGenerator(t *testing.T) {
	var g SequentialRunIDGenerator
	assert.Equal(t, "run-0001", g.Generate())
	assert.Equal(t, "run-0002", g.Generate())
	g.Reset()
	assert.Equal(t, "run-0001", g.Generate())
}

func TestSequentialRunIDGeneratorConcurrent(t *testing.T) {
	var g SequentialRunIDGenerator
	var wg sync.WaitGroup
	ids := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- g.Generate()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)
}

func TestPeopleGraph(t *testing.T) {
	root := PeopleGraph()
	assert.Equal(t, "people", root.Table().Ref())

	articles, ok := root.Child(scope.Ref{Name: "articles"})
	require.True(t, ok)
	comments, ok := articles.Child(scope.Ref{Name: "comments"})
	require.True(t, ok)
	assert.Equal(t, "comments_articles", comments.Table().Ref())

	_, ok = root.Child(scope.Ref{Name: "missing"})
	assert.False(t, ok)

	notes, _ := root.Child(scope.Ref{Name: "notes"})
	_, ok = notes.Child(scope.Ref{Name: "notable"})
	assert.False(t, ok, "polymorphic join needs its class")
	notable, ok := notes.Child(scope.Ref{Name: "notable", Class: "Article"})
	require.True(t, ok)
	assert.Equal(t, "notable_notes", notable.Table().Ref())
}
