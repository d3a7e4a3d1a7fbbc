package panelstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssignIsStable(t *testing.T) {
	store := CreateStore(16)

	index, created, err := store.Assign(7)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, 0, index)

	index, created, err = store.Assign(9)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, 1, index)

	index, created, err = store.Assign(7)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, 0, index)
}

func TestAssignRejectsOverCapacity(t *testing.T) {
	store := CreateStore(1)

	_, _, err := store.Assign(1)
	require.NoError(t, err)

	_, _, err = store.Assign(2)
	var tooMany *TooManyPanelsError
	require.ErrorAs(t, err, &tooMany)
	require.Equal(t, 2, tooMany.TeamID)
}

func TestResetClearsAssignments(t *testing.T) {
	store := CreateStore(2)

	store.Assign(1)
	store.Assign(2)
	require.True(t, store.Full())

	store.Reset()
	require.Equal(t, 0, store.Len())
	require.False(t, store.Full())

	index, created, err := store.Assign(2)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, 0, index)
}
