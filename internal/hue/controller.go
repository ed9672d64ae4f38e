package hue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lull-app/lull/internal/models"
)

// brightenSettleDelay is how long to wait after turning lights on at minimum
// brightness before issuing the ramp. The bridge needs the "on" registered
// first; the value is empirical, not computed.
const brightenSettleDelay = 500 * time.Millisecond

// restoreTransition is the fixed transition applied when replaying saved
// light states.
const restoreTransition uint16 = 10 // 1 second, in deciseconds

// allLightsGroup is the bridge's reserved group meaning "every light".
const allLightsGroup = "0"

// Controller exposes the sleep/wake lighting operations on top of a Bridge.
// Operations that honor group selection act on the selected group IDs when
// any are set, otherwise on every individual light.
type Controller struct {
	bridge *Bridge
	logger *zap.Logger

	mu             sync.Mutex
	selectedGroups []string
	saved          map[string]models.SavedState
	pendingOff     *time.Timer
	pendingRamp    *time.Timer

	// settleDelay is brightenSettleDelay unless a test shortens it
	settleDelay time.Duration
}

// NewController wires a controller to a bridge. selectedGroups may be nil.
func NewController(bridge *Bridge, selectedGroups []string, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		bridge:         bridge,
		logger:         logger,
		selectedGroups: append([]string(nil), selectedGroups...),
		saved:          make(map[string]models.SavedState),
		settleDelay:    brightenSettleDelay,
	}
}

// Connected reports whether a bridge client is attached.
func (c *Controller) Connected() bool {
	return c.bridge != nil
}

// SetSelectedGroups replaces the group scope for sleep/wake operations.
func (c *Controller) SetSelectedGroups(groupIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedGroups = append([]string(nil), groupIDs...)
}

// SelectedGroups returns a copy of the current group scope.
func (c *Controller) SelectedGroups() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.selectedGroups...)
}

// GetLights returns the bridge's lights verbatim.
func (c *Controller) GetLights(ctx context.Context) (map[string]models.Light, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}
	return c.bridge.GetLights(ctx)
}

// GetGroups returns the bridge's groups verbatim.
func (c *Controller) GetGroups(ctx context.Context) (map[string]models.Group, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}
	return c.bridge.GetGroups(ctx)
}

// TurnOnHouse turns on every light via group 0, regardless of selection.
func (c *Controller) TurnOnHouse(ctx context.Context) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.bridge.SetGroupAction(ctx, allLightsGroup, models.LightState{On: true})
}

// TurnOffHouse turns off every light via group 0, regardless of selection.
func (c *Controller) TurnOffHouse(ctx context.Context) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.bridge.SetGroupAction(ctx, allLightsGroup, models.LightState{On: false})
}

// TurnOffLights turns off the selected groups, or every individual light
// when no groups are selected.
func (c *Controller) TurnOffLights(ctx context.Context) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.applyToScope(ctx, nil, models.LightState{On: false})
}

// DimLights snapshots the current light states, dims the scope to minimum
// brightness over the given duration, and schedules a full turn-off once
// the transition has elapsed. Any pending turn-off or brightness ramp is
// cancelled first; a dim always wins over an in-flight wake.
func (c *Controller) DimLights(ctx context.Context, duration time.Duration) error {
	if !c.Connected() {
		return ErrNotConnected
	}

	c.cancelPending()

	lightIDs, err := c.saveLightStates(ctx)
	if err != nil {
		return err
	}

	tt := deciseconds(duration)
	state := models.LightState{On: true, Bri: 1, TransitionTime: &tt}
	if err := c.applyToScope(ctx, lightIDs, state); err != nil {
		return err
	}

	c.schedule(&c.pendingOff, duration, func() {
		if err := c.applyToScope(context.Background(), lightIDs, models.LightState{On: false}); err != nil {
			c.logger.Warn("deferred turn-off failed", zap.Error(err))
		}
	})

	return nil
}

// BrightenLights turns the scope on at minimum brightness, then after a
// short settle delay ramps to maximum brightness over the given duration.
func (c *Controller) BrightenLights(ctx context.Context, duration time.Duration) error {
	if !c.Connected() {
		return ErrNotConnected
	}

	c.cancelPending()

	if err := c.applyToScope(ctx, nil, models.LightState{On: true, Bri: 1}); err != nil {
		return err
	}

	tt := deciseconds(duration)
	c.schedule(&c.pendingRamp, c.settleDelay, func() {
		ramp := models.LightState{On: true, Bri: 254, TransitionTime: &tt}
		if err := c.applyToScope(context.Background(), nil, ramp); err != nil {
			c.logger.Warn("brightness ramp failed", zap.Error(err))
		}
	})

	return nil
}

// RestoreLightStates replays the snapshot taken by the last DimLights call,
// returning each light to its pre-dim on/brightness with a 1s transition.
// No-op when nothing was saved. The snapshot is kept, so calling twice in a
// row restores the same states.
func (c *Controller) RestoreLightStates(ctx context.Context) error {
	if !c.Connected() {
		return ErrNotConnected
	}

	c.cancelPending()

	c.mu.Lock()
	saved := make(map[string]models.SavedState, len(c.saved))
	for id, s := range c.saved {
		saved[id] = s
	}
	c.mu.Unlock()

	if len(saved) == 0 {
		c.logger.Debug("no saved light states to restore")
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for lightID, s := range saved {
		lightID := lightID
		tt := restoreTransition
		state := models.LightState{On: s.On, Bri: s.Bri, TransitionTime: &tt}
		g.Go(func() error {
			return c.bridge.SetLightState(ctx, lightID, state)
		})
	}
	return g.Wait()
}

// Warm color recipe applied by SetWarmColor.
const (
	warmHue        uint16 = 8000
	warmSat        uint8  = 200
	warmBri        uint8  = 150
	warmTransition uint16 = 20 // 2 seconds
)

// SetWarmColor sets every light to a fixed warm amber recipe.
func (c *Controller) SetWarmColor(ctx context.Context) error {
	if !c.Connected() {
		return ErrNotConnected
	}

	lights, err := c.bridge.GetLights(ctx)
	if err != nil {
		return err
	}

	hue, sat, tt := warmHue, warmSat, warmTransition
	state := models.LightState{On: true, Bri: warmBri, Hue: &hue, Sat: &sat, TransitionTime: &tt}

	g, ctx := errgroup.WithContext(ctx)
	for lightID := range lights {
		lightID := lightID
		g.Go(func() error {
			return c.bridge.SetLightState(ctx, lightID, state)
		})
	}
	return g.Wait()
}

// CancelPending stops any scheduled turn-off or brightness ramp. Called
// when the user resumes playback and a pending sleep action should not fire.
func (c *Controller) CancelPending() {
	c.cancelPending()
}

// saveLightStates snapshots every light's on/brightness, overwriting any
// previous snapshot, and returns the snapshotted light IDs so callers can
// reuse them without another bridge read. Only the most recent dim can be
// undone.
func (c *Controller) saveLightStates(ctx context.Context) ([]string, error) {
	lights, err := c.bridge.GetLights(ctx)
	if err != nil {
		return nil, err
	}

	saved := make(map[string]models.SavedState, len(lights))
	ids := make([]string, 0, len(lights))
	for id, light := range lights {
		bri := light.State.Bri
		if bri == 0 {
			bri = 254
		}
		saved[id] = models.SavedState{On: light.State.On, Bri: bri}
		ids = append(ids, id)
	}

	c.mu.Lock()
	c.saved = saved
	c.mu.Unlock()

	c.logger.Debug("saved light states", zap.Int("count", len(saved)))
	return ids, nil
}

// applyToScope fans one state command out across the selected groups, or
// across individual lights when no groups are selected. A nil lightIDs
// means the light list is fetched from the bridge. The join is
// all-or-nothing: any rejected call fails the aggregate.
func (c *Controller) applyToScope(ctx context.Context, lightIDs []string, state models.LightState) error {
	groups := c.SelectedGroups()

	if len(groups) > 0 {
		g, ctx := errgroup.WithContext(ctx)
		for _, groupID := range groups {
			groupID := groupID
			g.Go(func() error {
				return c.bridge.SetGroupAction(ctx, groupID, state)
			})
		}
		return g.Wait()
	}

	if lightIDs == nil {
		lights, err := c.bridge.GetLights(ctx)
		if err != nil {
			return err
		}
		for lightID := range lights {
			lightIDs = append(lightIDs, lightID)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, lightID := range lightIDs {
		lightID := lightID
		g.Go(func() error {
			return c.bridge.SetLightState(ctx, lightID, state)
		})
	}
	return g.Wait()
}

// schedule replaces any pending timer in the slot with a new one.
func (c *Controller) schedule(slot **time.Timer, d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if *slot != nil {
		(*slot).Stop()
	}
	*slot = time.AfterFunc(d, fn)
}

func (c *Controller) cancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingOff != nil {
		c.pendingOff.Stop()
		c.pendingOff = nil
	}
	if c.pendingRamp != nil {
		c.pendingRamp.Stop()
		c.pendingRamp = nil
	}
}

// deciseconds converts a duration to the bridge's transitiontime unit.
func deciseconds(d time.Duration) uint16 {
	return uint16(d / (100 * time.Millisecond))
}
