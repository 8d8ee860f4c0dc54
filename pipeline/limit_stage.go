package pipeline

import "fmt"

// LimitStage truncates the stream after n documents. A limit in the merge
// half of a pipeline requires every candidate document to converge on a
// single node before truncation, so it disqualifies an exchange.
type LimitStage struct {
	n int64
}

func NewLimitStage(n int64) *LimitStage {
	return &LimitStage{n: n}
}

func (s *LimitStage) Limit() int64 {
	return s.n
}

func (s *LimitStage) Name() string {
	return "$limit"
}

func (s *LimitStage) String() string {
	return fmt.Sprintf("{$limit: %d}", s.n)
}

// SkipStage discards the first n documents. Like $limit, it is a global
// count and forces a single-node merge.
type SkipStage struct {
	n int64
}

func NewSkipStage(n int64) *SkipStage {
	return &SkipStage{n: n}
}

func (s *SkipStage) Skip() int64 {
	return s.n
}

func (s *SkipStage) Name() string {
	return "$skip"
}

func (s *SkipStage) String() string {
	return fmt.Sprintf("{$skip: %d}", s.n)
}
