package lib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollection(t *testing.T) {
	collection := NewCollection[*Wallet]()
	w := &Wallet{Address: GetRandomAddr()}

	collection.Store(w)

	item, ok := collection.Load(w.ID())
	require.True(t, ok)
	require.Equal(t, w, item)
	require.Equal(t, 1, collection.Len())

	collection.Delete(w.ID())

	item, ok = collection.Load(w.ID())
	require.False(t, ok)
	require.Nil(t, item)
}
