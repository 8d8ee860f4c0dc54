package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"mit.edu/dsg/goshard/common"
)

func TestStageStrings(t *testing.T) {
	out := NewOutStage(common.NewNamespace("unittests", "out_ns"), WriteModeInsert)

	tests := []struct {
		name     string
		stage    Stage
		expected string
	}{
		{
			"merging group",
			NewGroupStage(NewFieldGroupKey(NewFieldRef("word")), true,
				Accumulator{Name: "count", Expr: NewComputedExpr("{$sum: 1}")}),
			"{$group: {_id: $word, count: {$sum: 1}, $doingMerge: true}}",
		},
		{
			"document group key",
			NewGroupStage(NewDocumentGroupKey(
				ProjectedField{Name: "region", Expr: NewFieldRef("region")},
				ProjectedField{Name: "country", Expr: NewFieldRef("country")},
			), false),
			"{$group: {_id: {region: $region, country: $country}}}",
		},
		{
			"project",
			NewProjectStage(ProjectedField{Name: "word", Expr: NewFieldRef("_id")}),
			"{$project: {word: $_id}}",
		},
		{
			"add fields with constant",
			NewAddFieldsStage(ProjectedField{Name: "version", Expr: NewConstantExpr(common.NewIntValue(2))}),
			"{$addFields: {version: 2}}",
		},
		{"limit", NewLimitStage(6), "{$limit: 6}"},
		{"skip", NewSkipStage(3), "{$skip: 3}"},
		{"match", NewMatchStage("{x: {$gt: 0}}"), "{$match: {x: {$gt: 0}}}"},
		{
			"sort",
			NewSortStage(SortField{Field: "count", Descending: true}, SortField{Field: "_id"}),
			"{$sort: {count: -1, _id: 1}}",
		},
		{"out", out, `{$out: {to: "unittests.out_ns", mode: "insertDocuments"}}`},
		{"opaque", NewOpaqueStage("$unwind"), "{$unwind: ...}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.stage.String())
		})
	}
}

func TestProjectionCapabilities(t *testing.T) {
	project := NewProjectStage(
		ProjectedField{Name: "word", Expr: NewFieldRef("_id")},
		ProjectedField{Name: "total", Expr: NewComputedExpr("{$add: ['$a', '$b']}")},
	)
	assert.False(t, project.PreservesUnreferenced())

	expr, ok := project.ExprFor("word")
	assert.True(t, ok)
	ref, isRef := expr.(*FieldRef)
	assert.True(t, isRef)
	assert.Equal(t, "_id", ref.Path())
	assert.True(t, ref.IsTopLevel())

	_, ok = project.ExprFor("missing")
	assert.False(t, ok)

	addFields := NewAddFieldsStage(ProjectedField{Name: "x", Expr: NewFieldRef("y")})
	assert.True(t, addFields.PreservesUnreferenced())
}

func TestFieldRefTopLevel(t *testing.T) {
	assert.True(t, NewFieldRef("word").IsTopLevel())
	assert.False(t, NewFieldRef("_id.country").IsTopLevel())
	assert.Equal(t, "$_id.country", NewFieldRef("_id.country").String())
}

func TestPipelineString(t *testing.T) {
	p := New(
		NewLimitStage(1),
		NewOutStage(common.NewNamespace("db", "coll"), WriteModeReplaceCollection),
	)
	assert.False(t, p.Empty())
	assert.Equal(t, `[{$limit: 1}, {$out: {to: "db.coll", mode: "replaceCollection"}}]`, p.String())
	assert.True(t, New().Empty())
}
