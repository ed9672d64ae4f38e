package sound

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lull-app/lull/internal/prefs"
)

// recordingOutput captures backend calls for assertions.
type recordingOutput struct {
	played  []string
	paused  int
	volumes []int
	bands   map[int]float64
}

func newRecordingOutput() *recordingOutput {
	return &recordingOutput{bands: map[int]float64{}}
}

func (o *recordingOutput) Play(track string, loop bool)  { o.played = append(o.played, track) }
func (o *recordingOutput) Pause()                        { o.paused++ }
func (o *recordingOutput) SetVolume(v int)               { o.volumes = append(o.volumes, v) }
func (o *recordingOutput) SetBand(band int, gain float64) { o.bands[band] = gain }

func newTestPlayer(t *testing.T) (*Player, *recordingOutput, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sound.toml")
	out := newRecordingOutput()
	return NewPlayer(prefs.Default(), path, out, nil), out, path
}

func TestToggle(t *testing.T) {
	player, out, _ := newTestPlayer(t)

	require.False(t, player.Playing())
	assert.True(t, player.Toggle())
	assert.True(t, player.Playing())
	assert.Equal(t, []string{"rain"}, out.played)

	assert.False(t, player.Toggle())
	assert.Equal(t, 1, out.paused)
}

func TestSetVolumeClampsAndPersists(t *testing.T) {
	player, out, path := newTestPlayer(t)

	require.NoError(t, player.SetVolume(130))
	assert.Equal(t, 100, player.Volume())

	require.NoError(t, player.SetVolume(-5))
	assert.Equal(t, 0, player.Volume())

	require.NoError(t, player.SetVolume(70))
	assert.Equal(t, []int{100, 0, 70}, out.volumes)

	saved, err := prefs.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 70, saved.Volume)
}

func TestAdjustVolume(t *testing.T) {
	player, _, _ := newTestPlayer(t)
	require.NoError(t, player.SetVolume(50))

	v, err := player.AdjustVolume(10)
	require.NoError(t, err)
	assert.Equal(t, 60, v)

	v, err = player.AdjustVolume(-100)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestSetBandClamps(t *testing.T) {
	player, out, path := newTestPlayer(t)

	require.NoError(t, player.SetBand(3, 20))
	assert.Equal(t, 12.0, player.Band(3))

	require.NoError(t, player.SetBand(3, -20))
	assert.Equal(t, -12.0, player.Band(3))
	assert.Equal(t, -12.0, out.bands[3])

	// Out-of-range bands are ignored, not an error.
	require.NoError(t, player.SetBand(99, 5))
	assert.Equal(t, 0.0, player.Band(99))

	saved, err := prefs.Load(path)
	require.NoError(t, err)
	assert.Equal(t, -12.0, saved.EQ[3])
}

func TestAdjustBand(t *testing.T) {
	player, _, _ := newTestPlayer(t)

	g, err := player.AdjustBand(0, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1.5, g)

	g, err = player.AdjustBand(0, 100)
	require.NoError(t, err)
	assert.Equal(t, 12.0, g)
}

func TestSetTrackRestartsWhenPlaying(t *testing.T) {
	player, out, _ := newTestPlayer(t)

	require.NoError(t, player.SetTrack("waves"))
	assert.Empty(t, out.played, "paused player does not start playback")

	player.Play()
	require.NoError(t, player.SetTrack("wind"))
	assert.Equal(t, []string{"waves", "wind"}, out.played)
	assert.Equal(t, "wind", player.Track())
}

func TestBandLabels(t *testing.T) {
	assert.Equal(t, prefs.BandCount, len(BandLabels))
	assert.Equal(t, "31", BandLabels[0])
	assert.Equal(t, "16k", BandLabels[prefs.BandCount-1])
}
