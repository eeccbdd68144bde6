package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaFirstComputeIncludesEverything(t *testing.T) {
	w := testWorld()
	w.AddActorAt("a", Cell{}, nil)
	w.AddActorAt("b", Cell{}, nil)
	w.AddProjectile(NewProjectile(1, 2, 0, "a"))

	d, ok := NewDeltaTracker().Compute(w)
	require.True(t, ok)
	assert.Len(t, d.Players, 2)
	assert.Len(t, d.Projectiles, 1)
}

func TestDeltaNoChangeSkipsBroadcast(t *testing.T) {
	w := testWorld()
	w.AddActorAt("a", Cell{}, nil)
	tr := NewDeltaTracker()
	_, ok := tr.Compute(w)
	require.True(t, ok)

	w.Frame++
	_, ok = tr.Compute(w)
	assert.False(t, ok)
}

func TestDeltaContainsOnlyChangedEntriesAndRemovals(t *testing.T) {
	w := testWorld()
	a := w.AddActorAt("a", Cell{}, nil)
	w.AddActorAt("b", Cell{}, nil)
	w.AddActorAt("c", Cell{}, nil)
	pid := w.AddProjectile(stationary(0, 0, "a"))
	keep := w.AddProjectile(stationary(9, 9, "b"))
	tr := NewDeltaTracker()
	tr.Compute(w)

	a.Rotate(1)
	w.RemoveActor("c")
	w.RemoveProjectile(pid)
	w.Frame = 7

	d, ok := tr.Compute(w)
	require.True(t, ok)
	assert.Equal(t, int64(7), d.Frame)
	require.Len(t, d.Players, 2)
	assert.Equal(t, "a", d.Players[0].ID)
	require.NotNil(t, d.Players[0].Value)
	assert.Equal(t, a.Heading, d.Players[0].Value.Heading)
	assert.Equal(t, Entry[PlayerState]{ID: "c"}, d.Players[1])
	assert.Equal(t, []Entry[ProjectileState]{{ID: pid}}, d.Projectiles)

	_, stillThere := w.Projectile(keep)
	assert.True(t, stillThere)
}

func TestDeltaSingleFieldChange(t *testing.T) {
	w := testWorld()
	a := w.AddActorAt("a", Cell{}, nil)
	w.AddActorAt("b", Cell{}, nil)
	tr := NewDeltaTracker()
	tr.Compute(w)

	a.HeldOrb = true
	d, ok := tr.Compute(w)
	require.True(t, ok)
	require.Len(t, d.Players, 1)
	assert.True(t, d.Players[0].Value.HeldOrb)
	assert.Empty(t, d.Projectiles)
}

func TestDeltaJSONShape(t *testing.T) {
	d := Delta{
		Frame:       3,
		Players:     []Entry[PlayerState]{{ID: "a", Value: &PlayerState{GridX: 1, GridY: -2, Heading: 0.5, HeldOrb: true}}},
		Projectiles: []Entry[ProjectileState]{{ID: "a-1"}},
	}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"frame": 3,
		"players": [["a", {"gridX": 1, "gridY": -2, "heading": 0.5, "heldOrb": true}]],
		"projectiles": [["a-1", null]]
	}`, string(b))

	var back Delta
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)
}

func TestEmptyDeltaEncodesArrays(t *testing.T) {
	w := testWorld()
	tr := NewDeltaTracker()
	d, ok := tr.Compute(w)
	assert.False(t, ok)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"frame":0,"players":[],"projectiles":[]}`, string(b))
}
