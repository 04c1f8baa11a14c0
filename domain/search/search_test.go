package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSearchQuery_Flags_And_Terms(t *testing.T) {
	req := require.New(t)

	query := NewSearchQuery(`/find "deploy" failed --room ops --author alice --limit 5`)

	req.Equal("deploy failed", query.Terms)
	req.Equal("ops", query.Room)
	req.Equal("alice", query.Author)
	req.Equal(5, query.Limit)
}

func TestNewSearchQuery_Invalid_Limit_Keeps_Default(t *testing.T) {
	req := require.New(t)

	query := NewSearchQuery("hello --limit zero")

	req.Equal("hello", query.Terms)
	req.Equal(DefaultLimit, query.Limit)
}

func TestNewSearchQuery_Trailing_Flag_Is_A_Term(t *testing.T) {
	req := require.New(t)

	query := NewSearchQuery("hello --room")

	req.Equal("hello --room", query.Terms)
	req.Empty(query.Room)
}
