package hue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestController(t *testing.T, fake *fakeBridge, groups []string) *Controller {
	t.Helper()
	bridge := startFakeBridge(t, fake)
	c := NewController(bridge, groups, zap.NewNop())
	c.settleDelay = 10 * time.Millisecond
	return c
}

func TestDimLightsSnapshotsAndSchedulesOff(t *testing.T) {
	fake := newFakeBridge("user-key")
	fake.addLight("1", "Bedroom", true, 200)
	fake.addLight("2", "Hallway", true, 120)
	fake.addLight("3", "Desk", false, 0)
	c := newTestController(t, fake, nil)

	dim := 200 * time.Millisecond
	require.NoError(t, c.DimLights(context.Background(), dim))

	fake.mu.Lock()
	assert.Equal(t, 1, fake.lightReads, "dim should snapshot the lights once")
	assert.Equal(t, 3, len(fake.lightCommands), "dim should address every light")
	for id, cmds := range fake.lightCommands {
		require.Len(t, cmds, 1, "light %s", id)
		assert.True(t, cmds[0].On)
		assert.Equal(t, uint8(1), cmds[0].Bri)
		require.NotNil(t, cmds[0].TransitionTime)
		assert.Equal(t, uint16(2), *cmds[0].TransitionTime)
	}
	fake.mu.Unlock()

	// After the dim duration elapses the deferred turn-off fires.
	assert.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		for _, cmds := range fake.lightCommands {
			last := cmds[len(cmds)-1]
			if last.On {
				return false
			}
		}
		return len(fake.lightCommands) == 3 && fake.lightCommandCountLocked() == 6
	}, time.Second, 10*time.Millisecond, "expected a turn-off command per light")
}

func TestDimLightsUsesSelectedGroups(t *testing.T) {
	fake := newFakeBridge("user-key")
	fake.addLight("1", "Bedroom", true, 200)
	c := newTestController(t, fake, []string{"4", "7"})

	require.NoError(t, c.DimLights(context.Background(), 100*time.Millisecond))

	fake.mu.Lock()
	assert.Len(t, fake.groupCommands["4"], 1)
	assert.Len(t, fake.groupCommands["7"], 1)
	assert.Empty(t, fake.lightCommands, "group scope must not address individual lights")
	fake.mu.Unlock()
}

func TestRestoreAfterDimRoundTrip(t *testing.T) {
	fake := newFakeBridge("user-key")
	fake.addLight("1", "Bedroom", true, 200)
	fake.addLight("2", "Hallway", false, 0)
	c := newTestController(t, fake, nil)

	require.NoError(t, c.DimLights(context.Background(), time.Minute))
	require.NoError(t, c.RestoreLightStates(context.Background()))

	fake.mu.Lock()
	cmds1 := fake.lightCommands["1"]
	cmds2 := fake.lightCommands["2"]
	fake.mu.Unlock()

	require.Len(t, cmds1, 2)
	restore1 := cmds1[1]
	assert.True(t, restore1.On)
	assert.Equal(t, uint8(200), restore1.Bri)
	require.NotNil(t, restore1.TransitionTime)
	assert.Equal(t, restoreTransition, *restore1.TransitionTime)

	require.Len(t, cmds2, 2)
	restore2 := cmds2[1]
	assert.False(t, restore2.On)
	// Off lights with bri 0 snapshot as 254 so a later manual turn-on is sane.
	assert.Equal(t, uint8(254), restore2.Bri)

	// Idempotent: a second restore replays the same snapshot.
	require.NoError(t, c.RestoreLightStates(context.Background()))
	fake.mu.Lock()
	assert.Len(t, fake.lightCommands["1"], 3)
	assert.Equal(t, restore1.Bri, fake.lightCommands["1"][2].Bri)
	fake.mu.Unlock()
}

func TestRestoreWithoutDimIsNoOp(t *testing.T) {
	fake := newFakeBridge("user-key")
	fake.addLight("1", "Bedroom", true, 200)
	c := newTestController(t, fake, nil)

	require.NoError(t, c.RestoreLightStates(context.Background()))
	assert.Equal(t, 0, fake.lightCommandCount())
}

func TestRestoreCancelsPendingTurnOff(t *testing.T) {
	fake := newFakeBridge("user-key")
	fake.addLight("1", "Bedroom", true, 200)
	c := newTestController(t, fake, nil)

	require.NoError(t, c.DimLights(context.Background(), 50*time.Millisecond))
	require.NoError(t, c.RestoreLightStates(context.Background()))

	time.Sleep(150 * time.Millisecond)

	fake.mu.Lock()
	cmds := fake.lightCommands["1"]
	fake.mu.Unlock()
	// dim + restore only; the cancelled timer must not have fired.
	require.Len(t, cmds, 2)
	assert.True(t, cmds[1].On)
}

func TestDimLightsCancelsPendingRamp(t *testing.T) {
	fake := newFakeBridge("user-key")
	fake.addLight("1", "Bedroom", false, 0)
	c := newTestController(t, fake, nil)

	require.NoError(t, c.BrightenLights(context.Background(), 2*time.Second))
	require.NoError(t, c.DimLights(context.Background(), time.Minute))

	time.Sleep(100 * time.Millisecond)

	fake.mu.Lock()
	cmds := fake.lightCommands["1"]
	fake.mu.Unlock()
	// brighten-on + dim only; the cancelled ramp must not have fired.
	require.Len(t, cmds, 2)
	last := cmds[1]
	assert.True(t, last.On)
	assert.Equal(t, uint8(1), last.Bri, "a dim must not be overridden by a stale ramp")
}

func TestTurnOffLightsAggregatesMemberFailure(t *testing.T) {
	fake := newFakeBridge("user-key")
	fake.addLight("1", "Bedroom", true, 200)
	fake.addLight("2", "Hallway", true, 120)
	fake.failPUT = true
	c := newTestController(t, fake, nil)

	err := c.TurnOffLights(context.Background())
	require.Error(t, err, "one rejected light must fail the whole fan-out")

	var bridgeErr *BridgeError
	require.ErrorAs(t, err, &bridgeErr)
	assert.Equal(t, 201, bridgeErr.Type)
}

func TestBrightenLightsSettlesThenRamps(t *testing.T) {
	fake := newFakeBridge("user-key")
	fake.addLight("1", "Bedroom", false, 0)
	c := newTestController(t, fake, nil)

	require.NoError(t, c.BrightenLights(context.Background(), 2*time.Second))

	fake.mu.Lock()
	require.Len(t, fake.lightCommands["1"], 1)
	first := fake.lightCommands["1"][0]
	fake.mu.Unlock()
	assert.True(t, first.On)
	assert.Equal(t, uint8(1), first.Bri)
	assert.Nil(t, first.TransitionTime)

	assert.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.lightCommands["1"]) == 2
	}, time.Second, 5*time.Millisecond)

	fake.mu.Lock()
	ramp := fake.lightCommands["1"][1]
	fake.mu.Unlock()
	assert.Equal(t, uint8(254), ramp.Bri)
	require.NotNil(t, ramp.TransitionTime)
	assert.Equal(t, uint16(20), *ramp.TransitionTime)
}

func TestHouseOperationsUseGroupZero(t *testing.T) {
	fake := newFakeBridge("user-key")
	c := newTestController(t, fake, []string{"2"})

	require.NoError(t, c.TurnOnHouse(context.Background()))
	require.NoError(t, c.TurnOffHouse(context.Background()))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.groupCommands["0"], 2, "house ops must ignore group selection")
	assert.True(t, fake.groupCommands["0"][0].On)
	assert.False(t, fake.groupCommands["0"][1].On)
	assert.Empty(t, fake.groupCommands["2"])
}

func TestSetWarmColorRecipe(t *testing.T) {
	fake := newFakeBridge("user-key")
	fake.addLight("1", "Bedroom", true, 200)
	fake.addLight("2", "Hallway", false, 0)
	c := newTestController(t, fake, nil)

	require.NoError(t, c.SetWarmColor(context.Background()))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.lightCommands, 2)
	for _, cmds := range fake.lightCommands {
		require.Len(t, cmds, 1)
		s := cmds[0]
		assert.True(t, s.On)
		assert.Equal(t, warmBri, s.Bri)
		require.NotNil(t, s.Hue)
		assert.Equal(t, warmHue, *s.Hue)
		require.NotNil(t, s.Sat)
		assert.Equal(t, warmSat, *s.Sat)
	}
}

func TestNotConnected(t *testing.T) {
	c := NewController(nil, nil, nil)
	assert.ErrorIs(t, c.DimLights(context.Background(), time.Second), ErrNotConnected)
	assert.ErrorIs(t, c.TurnOffLights(context.Background()), ErrNotConnected)
	_, err := c.GetLights(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestDeciseconds(t *testing.T) {
	assert.Equal(t, uint16(20), deciseconds(2*time.Second))
	assert.Equal(t, uint16(600), deciseconds(time.Minute))
	assert.Equal(t, uint16(0), deciseconds(50*time.Millisecond))
}

// lightCommandCountLocked assumes f.mu is already held.
func (f *fakeBridge) lightCommandCountLocked() int {
	n := 0
	for _, cmds := range f.lightCommands {
		n += len(cmds)
	}
	return n
}
