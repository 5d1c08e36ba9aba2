package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOnlineAndLookup(t *testing.T) {
	r := NewRegistry()
	r.SetOnline("u1", "c1")
	r.SetOnline("u2", "c2")

	connID, ok := r.Lookup("u1")
	assert.True(t, ok)
	assert.Equal(t, "c1", connID)

	_, ok = r.Lookup("u3")
	assert.False(t, ok)
	assert.Equal(t, 2, r.NoUsers())
}

func TestSetOnlineEmptyArgumentsNoOp(t *testing.T) {
	r := NewRegistry()
	r.SetOnline("", "c1")
	r.SetOnline("u1", "")
	assert.Equal(t, 0, r.NoUsers())
	assert.Empty(t, r.AllUserIDs())
}

func TestSetOnlineOverwriteKeepsLatestConnection(t *testing.T) {
	r := NewRegistry()
	r.SetOnline("u1", "c1")
	r.SetOnline("u2", "c2")
	r.SetOnline("u1", "c9")

	connID, ok := r.Lookup("u1")
	assert.True(t, ok)
	assert.Equal(t, "c9", connID)
	// the overwrite keeps the original registration position
	assert.Equal(t, []string{"u1", "u2"}, r.AllUserIDs())
	assert.Equal(t, 2, r.NoUsers())
}

func TestRemoveByConnection(t *testing.T) {
	r := NewRegistry()
	r.SetOnline("u1", "c1")
	r.SetOnline("u2", "c2")

	userID, ok := r.RemoveByConnection("c1")
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, []string{"u2"}, r.AllUserIDs())

	_, ok = r.Lookup("u1")
	assert.False(t, ok)

	_, ok = r.RemoveByConnection("c1")
	assert.False(t, ok)
	_, ok = r.RemoveByConnection("")
	assert.False(t, ok)
}

func TestStaleConnectionRemovalIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.SetOnline("u1", "c1")
	r.SetOnline("u1", "c2") // c1 is now orphaned

	_, ok := r.RemoveByConnection("c1")
	assert.False(t, ok)

	connID, ok := r.Lookup("u1")
	assert.True(t, ok)
	assert.Equal(t, "c2", connID)
}

func TestAllUserIDsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, u := range []string{"a", "b", "c"} {
		r.SetOnline(u, "conn-"+u)
	}
	assert.Equal(t, []string{"a", "b", "c"}, r.AllUserIDs())

	// returned slice is a copy
	ids := r.AllUserIDs()
	ids[0] = "mutated"
	assert.Equal(t, []string{"a", "b", "c"}, r.AllUserIDs())
}
