package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedImpl(t *testing.T) {
	start := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	clock := NewFixedImpl(start)

	require.True(t, clock.Now().Equal(start))
	require.Equal(t, Portal, clock.Now().Location())

	clock.Set(start.Add(time.Minute))
	require.Equal(t, time.Minute, clock.Now().Sub(start))
}

func TestStandardImplLocation(t *testing.T) {
	clock := NewStandardImpl()
	require.Equal(t, "Asia/Kolkata", clock.Location().String())
	require.Equal(t, clock.Location(), clock.Now().Location())
}
