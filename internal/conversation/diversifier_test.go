package conversation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldDiversify_NoHistory(t *testing.T) {
	d := ShouldDiversify(nil, "dinner")
	assert.False(t, d.ShouldDiversify)
	assert.Empty(t, d.RejectedOptions)
}

func TestShouldDiversify_RepeatedNames(t *testing.T) {
	d := ShouldDiversify([]string{
		"Try Harbor Grill for seafood.",
		"Harbor Grill and Blue Door Bistro are both close.",
	}, "")
	require.True(t, d.ShouldDiversify)
	assert.Equal(t, []string{"Harbor Grill"}, d.RejectedOptions)
	assert.Contains(t, d.Note, "more than once")
}

func TestShouldDiversify_CategoryConflict(t *testing.T) {
	d := ShouldDiversify([]string{"For breakfast, Kiko's Kitchen opens at 7."}, "dinner")
	require.True(t, d.ShouldDiversify)
	assert.Contains(t, d.RejectedOptions, "Kiko's Kitchen")
	assert.Contains(t, d.Note, "not dinner spots")

	same := ShouldDiversify([]string{"For dinner, Kiko's Kitchen stays open late."}, "dinner")
	assert.False(t, same.ShouldDiversify)
}

func TestPhoneLocks_SerializeAndCleanUp(t *testing.T) {
	locks := newPhoneLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(guestPhone)
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, locks.size())

	a := locks.lock("+1111")
	b := locks.lock("+2222")
	assert.Equal(t, 2, locks.size())
	a()
	b()
	assert.Zero(t, locks.size())
}
