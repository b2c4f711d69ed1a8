package schema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BearerPipelineTest/meta-where/internal/schema"
	"github.com/BearerPipelineTest/meta-where/internal/testutil"
)

func TestSampleSchemaIsValid(t *testing.T) {
	reg := testutil.SampleSchema()
	assert.Empty(t, reg.Validate())

	names := make([]string, 0)
	for _, tbl := range reg.Tables() {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"articles", "comments", "notes", "people"}, names)
}

func TestAssociationDefaults(t *testing.T) {
	tbl := schema.NewTable("articles", "Article", "id", "person_id").
		BelongsTo("person", "people").
		HasMany("comments", "comments").
		Associate(schema.Association{Name: "notes", Kind: schema.HasMany, Target: "notes", As: "notable"})

	person, ok := tbl.Association("person")
	require.True(t, ok)
	assert.Equal(t, "person_id", person.ForeignKey)

	comments, _ := tbl.Association("comments")
	assert.Equal(t, "article_id", comments.ForeignKey)

	notes, _ := tbl.Association("notes")
	assert.Equal(t, "notable_id", notes.ForeignKey)
	assert.Equal(t, "notable_type", notes.TypeColumn)

	poly := schema.NewTable("notes", "Note").
		Associate(schema.Association{Name: "notable", Kind: schema.BelongsTo, Polymorphic: true})
	notable, _ := poly.Association("notable")
	assert.Equal(t, "notable_id", notable.ForeignKey)
	assert.Equal(t, "notable_type", notable.TypeColumn)

	var order []string
	for _, a := range tbl.Associations() {
		order = append(order, a.Name)
	}
	assert.Equal(t, []string{"person", "comments", "notes"}, order)
}

func TestResolve(t *testing.T) {
	reg := testutil.SampleSchema()
	people, _ := reg.Table("people")
	notes, _ := reg.Table("notes")

	a, target, err := reg.Resolve(people, "articles", "")
	require.NoError(t, err)
	assert.Equal(t, "articles", a.Name)
	assert.Equal(t, "articles", target.Name)

	_, target, err = reg.Resolve(people, "children", "Person")
	require.NoError(t, err)
	assert.Equal(t, "people", target.Name)

	_, target, err = reg.Resolve(notes, "notable", "Article")
	require.NoError(t, err)
	assert.Equal(t, "articles", target.Name)

	tests := []struct {
		name   string
		from   *schema.Table
		assoc  string
		class  string
		reason string
	}{
		{"unknown", people, "tags", "", ""},
		{"polymorphic without class", notes, "notable", "", "needs a class"},
		{"polymorphic unknown class", notes, "notable", "Widget", `no table for class "Widget"`},
		{"class mismatch", people, "articles", "Comment", "does not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := reg.Resolve(tt.from, tt.assoc, tt.class)
			require.Error(t, err)
			assert.True(t, errors.Is(err, schema.ErrUnknownAssociation))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestRegistryAddRejectsDuplicates(t *testing.T) {
	reg := schema.NewRegistry()
	require.NoError(t, reg.Add(schema.NewTable("people", "Person")))

	err := reg.Add(schema.NewTable("people", "Other"))
	assert.ErrorContains(t, err, "registered twice")

	err = reg.Add(schema.NewTable("humans", "Person"))
	assert.ErrorContains(t, err, `class "Person"`)

	err = reg.Add(schema.NewTable("", ""))
	assert.ErrorContains(t, err, "no name")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		tables []*schema.Table
		codes  []string
	}{
		{
			name: "unknown target",
			tables: []*schema.Table{
				schema.NewTable("people", "Person", "id").HasMany("articles", "articles"),
			},
			codes: []string{schema.ErrUnknownTarget},
		},
		{
			name: "missing foreign key on target",
			tables: []*schema.Table{
				schema.NewTable("people", "Person", "id").HasMany("articles", "articles"),
				schema.NewTable("articles", "Article", "id", "title"),
			},
			codes: []string{schema.ErrMissingForeignKey},
		},
		{
			name: "missing belongs_to foreign key",
			tables: []*schema.Table{
				schema.NewTable("people", "Person", "id"),
				schema.NewTable("articles", "Article", "id").BelongsTo("person", "people"),
			},
			codes: []string{schema.ErrMissingForeignKey},
		},
		{
			name: "polymorphic with target",
			tables: []*schema.Table{
				schema.NewTable("notes", "Note", "id", "notable_id", "notable_type").
					Associate(schema.Association{Name: "notable", Kind: schema.BelongsTo, Polymorphic: true, Target: "people"}),
			},
			codes: []string{schema.ErrPolymorphicTarget},
		},
		{
			name: "inverse missing",
			tables: []*schema.Table{
				schema.NewTable("people", "Person", "id").
					Associate(schema.Association{Name: "notes", Kind: schema.HasMany, Target: "notes", As: "notable"}),
				schema.NewTable("notes", "Note", "id", "notable_id"),
			},
			codes: []string{schema.ErrInverseNotFound},
		},
		{
			name: "bad identifiers and duplicates",
			tables: []*schema.Table{
				schema.NewTable("peo ple", "Person", "id", "name", "name", "1x"),
			},
			codes: []string{schema.ErrInvalidIdentifier, schema.ErrDuplicateColumn, schema.ErrInvalidIdentifier},
		},
		{
			name: "missing primary key",
			tables: []*schema.Table{
				schema.NewTable("people", "Person", "name"),
			},
			codes: []string{schema.ErrMissingPrimaryKey},
		},
		{
			name: "association shadows column",
			tables: []*schema.Table{
				schema.NewTable("people", "Person", "id", "parent", "parent_id").BelongsTo("parent", "people"),
			},
			codes: []string{schema.ErrAssociationShadows},
		},
		{
			name: "unknown kind",
			tables: []*schema.Table{
				schema.NewTable("people", "Person", "id").
					Associate(schema.Association{Name: "friends", Kind: "has_and_belongs_to_many", Target: "people"}),
			},
			codes: []string{schema.ErrInvalidKind},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := schema.NewRegistry()
			require.NoError(t, reg.Add(tt.tables...))

			var codes []string
			for _, e := range reg.Validate() {
				codes = append(codes, e.Code)
				assert.NotEmpty(t, e.Error())
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}
