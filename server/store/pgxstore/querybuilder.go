package pgxstore

import (
	"fmt"

	"github.com/screwyprof/racer/server/board"
)

const baseVotesQuery = `SELECT v.id, v.cycle_id, v.block_number, v.placer, v.symbol, v.amount, v.placement, v.claimed, v.reward
FROM votes v
JOIN current_cycles c ON c.chain_id = v.chain_id AND c.id = v.cycle_id`

// VotesQueryBuilder builds the paged votes query of a chain's current cycle
type VotesQueryBuilder struct {
	sql   string
	args  []any
	where bool
}

// NewVotesQuery creates a new votes query builder
func NewVotesQuery() *VotesQueryBuilder {
	return &VotesQueryBuilder{sql: baseVotesQuery}
}

// ForCriteria applies the votes criteria to the query in one fluent call
func (q *VotesQueryBuilder) ForCriteria(criteria board.VotesCriteria) *VotesQueryBuilder {
	return q.
		filterByChain(criteria.ChainID).
		filterByPlacer(criteria.Placer).
		orderByNewest().
		paginateWithDetection(criteria)
}

func (q *VotesQueryBuilder) filterByChain(chainID uint64) *VotesQueryBuilder {
	q.addWhereCondition("v.chain_id = $%d", int64(chainID))
	return q
}

func (q *VotesQueryBuilder) filterByPlacer(placer string) *VotesQueryBuilder {
	if placer != "" {
		q.addWhereCondition("v.placer = $%d", placer)
	}
	return q
}

// orderByNewest puts the latest observed vote first; ids break ties within a block
func (q *VotesQueryBuilder) orderByNewest() *VotesQueryBuilder {
	q.sql += " ORDER BY v.block_number DESC, v.id DESC"
	return q
}

// paginateWithDetection asks for one extra row to tell whether another page exists
func (q *VotesQueryBuilder) paginateWithDetection(criteria board.VotesCriteria) *VotesQueryBuilder {
	q.addParameter("LIMIT $%d", criteria.ItemsPerPage()+1)
	if offset := criteria.ItemsToSkip(); offset > 0 {
		q.addParameter("OFFSET $%d", offset)
	}
	return q
}

// Build returns the final SQL query and arguments
func (q *VotesQueryBuilder) Build() (string, []any) {
	return q.sql, q.args
}

func (q *VotesQueryBuilder) addWhereCondition(clause string, value any) {
	keyword := " WHERE "
	if q.where {
		keyword = " AND "
	}
	q.where = true
	q.addClause(keyword, clause, value)
}

func (q *VotesQueryBuilder) addParameter(clause string, value any) {
	q.addClause(" ", clause, value)
}

func (q *VotesQueryBuilder) addClause(keyword, clause string, value any) {
	q.args = append(q.args, value)
	q.sql += keyword + fmt.Sprintf(clause, len(q.args))
}
