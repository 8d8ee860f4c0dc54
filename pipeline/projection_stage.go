package pipeline

import (
	"fmt"
	"strings"

	"mit.edu/dsg/goshard/common"
)

// ProjectedField is one output field of a projection-like stage, paired with
// the classified expression that produces it.
type ProjectedField struct {
	Name string
	Expr FieldExpr
}

// ProjectionStage reshapes documents, covering both $project and $addFields.
// The two differ only in what happens to fields the stage does not mention:
// $project drops them (with "_id" implicitly kept), $addFields passes them
// through untouched.
type ProjectionStage struct {
	name   string
	order  []string
	fields map[string]FieldExpr
}

func newProjectionStage(name string, fields []ProjectedField) *ProjectionStage {
	s := &ProjectionStage{
		name:   name,
		order:  make([]string, 0, len(fields)),
		fields: make(map[string]FieldExpr, len(fields)),
	}
	for _, f := range fields {
		common.Assert(f.Expr != nil, "nil expression for field '%s'", f.Name)
		if _, dup := s.fields[f.Name]; dup {
			panic(fmt.Sprintf("duplicate output field '%s' in %s", f.Name, name))
		}
		s.order = append(s.order, f.Name)
		s.fields[f.Name] = f.Expr
	}
	return s
}

func NewProjectStage(fields ...ProjectedField) *ProjectionStage {
	return newProjectionStage("$project", fields)
}

func NewAddFieldsStage(fields ...ProjectedField) *ProjectionStage {
	return newProjectionStage("$addFields", fields)
}

// ExprFor returns the expression producing the named output field, if the
// stage defines one.
func (s *ProjectionStage) ExprFor(name string) (FieldExpr, bool) {
	expr, ok := s.fields[name]
	return expr, ok
}

// PreservesUnreferenced returns true if fields this stage does not mention
// survive it unchanged ($addFields), false if they are dropped ($project).
func (s *ProjectionStage) PreservesUnreferenced() bool {
	return s.name == "$addFields"
}

func (s *ProjectionStage) Name() string {
	return s.name
}

func (s *ProjectionStage) String() string {
	parts := make([]string, len(s.order))
	for i, name := range s.order {
		parts[i] = fmt.Sprintf("%s: %s", name, s.fields[name].String())
	}
	return fmt.Sprintf("{%s: {%s}}", s.name, strings.Join(parts, ", "))
}
