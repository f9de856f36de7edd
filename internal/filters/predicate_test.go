package filters

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicate_Empty(t *testing.T) {
	p := &Predicate{}
	where, args, err := p.ToSql()
	require.NoError(t, err)
	assert.True(t, p.Empty())
	assert.Empty(t, where)
	assert.Empty(t, args)
	assert.Empty(t, p.Joins())
}

func TestPredicate_JoinsAreDeduplicatedInOrder(t *testing.T) {
	p := &Predicate{}
	p.Join(JoinUsers)
	p.Join(JoinCampaigns)
	p.Join(JoinUsers)

	assert.Equal(t, []string{JoinUsers, JoinCampaigns}, p.Joins())
}

func TestPredicate_ToSqlKeepsArgsInLockstep(t *testing.T) {
	p := &Predicate{}
	p.Where(sq.GtOrEq{TimestampColumn: "20240101000000"})
	p.Where(sq.Eq{"g.id_campaign": int64(3)})
	p.Where(sq.Expr("u.username = ?", "jperez"))

	where, args, err := p.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(g.`timestamp` >= ? AND g.id_campaign = ? AND u.username = ?)", where)
	assert.Equal(t, []any{"20240101000000", int64(3), "jperez"}, args)
}

func TestPredicate_CloneIsIndependent(t *testing.T) {
	p := &Predicate{}
	p.Join(JoinUsers)
	p.Where(sq.Eq{"g.id_broker": int64(1)})

	c := p.Clone()
	c.Join(JoinCampaigns)
	c.Where(sq.Eq{"g.id_campaign": int64(2)})

	assert.Equal(t, []string{JoinUsers}, p.Joins())
	_, args, err := p.ToSql()
	require.NoError(t, err)
	assert.Len(t, args, 1)

	assert.Equal(t, []string{JoinUsers, JoinCampaigns}, c.Joins())
}

func TestPredicate_Apply(t *testing.T) {
	p := &Predicate{}
	p.Join(JoinCampaigns)
	p.Where(sq.Eq{"g.id_broker": int64(9)})

	query, args, err := p.Apply(sq.Select("COUNT(*)").From("gestiones g")).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM gestiones g JOIN campaigns c ON c.id = g.id_campaign WHERE g.id_broker = ?", query)
	assert.Equal(t, []any{int64(9)}, args)
}
