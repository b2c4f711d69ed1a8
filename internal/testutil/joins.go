package testutil

import (
	"github.com/BearerPipelineTest/meta-where/internal/queryir"
	"github.com/BearerPipelineTest/meta-where/internal/scope"
)

// FakeJoin is a hand-built join graph node for compiler tests.
//
// Thread-safety: read-only once built; safe for concurrent compile passes.
type FakeJoin struct {
	table    queryir.Table
	children map[scope.Ref]*FakeJoin
}

// NewFakeJoin creates a join node for table name with an optional alias.
func NewFakeJoin(name, alias string) *FakeJoin {
	return &FakeJoin{
		table:    queryir.Table{Name: name, Alias: alias},
		children: make(map[scope.Ref]*FakeJoin),
	}
}

// Add registers child under ref and returns the child for chaining.
func (f *FakeJoin) Add(ref scope.Ref, child *FakeJoin) *FakeJoin {
	f.children[ref] = child
	return child
}

// Table implements scope.Join.
func (f *FakeJoin) Table() queryir.Table { return f.table }

// Child implements scope.Join.
func (f *FakeJoin) Child(ref scope.Ref) (scope.Join, bool) {
	c, ok := f.children[ref]
	if !ok {
		return nil, false
	}
	return c, true
}

// PeopleGraph builds the join graph most compiler tests use:
//
//	people
//	├── articles            (alias articles)
//	│   └── comments        (alias comments_articles)
//	│       └── author      (alias author_comments → people)
//	├── children            (alias children_people → people)
//	├── comments            (alias comments)
//	└── notes               (alias notes)
//	    └── notable(Article) (alias notable_notes → articles)
func PeopleGraph() *FakeJoin {
	root := NewFakeJoin("people", "")
	articles := root.Add(scope.Ref{Name: "articles"}, NewFakeJoin("articles", ""))
	comments := articles.Add(scope.Ref{Name: "comments"}, NewFakeJoin("comments", "comments_articles"))
	comments.Add(scope.Ref{Name: "author"}, NewFakeJoin("people", "author_comments"))
	root.Add(scope.Ref{Name: "children"}, NewFakeJoin("people", "children_people"))
	root.Add(scope.Ref{Name: "comments"}, NewFakeJoin("comments", ""))
	notes := root.Add(scope.Ref{Name: "notes"}, NewFakeJoin("notes", ""))
	notes.Add(scope.Ref{Name: "notable", Class: "Article"}, NewFakeJoin("articles", "notable_notes"))
	return root
}
