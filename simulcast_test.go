package signaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsForResolution(t *testing.T) {
	assert.Equal(t, presetsScreenShare, PresetsForResolution(true, 640, 480))
	assert.Equal(t, presets169, PresetsForResolution(false, 1280, 720))
	assert.Equal(t, presets43, PresetsForResolution(false, 640, 480))
	// portrait orientation uses the same ladder as landscape
	assert.Equal(t, presets169, PresetsForResolution(false, 720, 1280))
	// in-between ratios pick the nearest ladder
	assert.Equal(t, presets169, PresetsForResolution(false, 1600, 1000))
	assert.Equal(t, presets43, PresetsForResolution(false, 1500, 1000))
}

func TestDetermineAppropriateEncoding(t *testing.T) {
	assert.Equal(t, VideoPresetH720.Encoding, DetermineAppropriateEncoding(false, 1280, 720))
	assert.Equal(t, VideoPresetH360.Encoding, DetermineAppropriateEncoding(false, 640, 360))
	// between tiers rounds up to the next preset
	assert.Equal(t, VideoPresetH720.Encoding, DetermineAppropriateEncoding(false, 1100, 620))
	// larger than every preset clamps to the top tier
	assert.Equal(t, VideoPresetH1080.Encoding, DetermineAppropriateEncoding(false, 3840, 2160))
	assert.Equal(t, ScreenSharePresetH720FPS5.Encoding, DetermineAppropriateEncoding(true, 1280, 720))
}

func TestFindEvenScaleDownBy(t *testing.T) {
	source := VideoDimensions{1920, 1080}

	scale := FindEvenScaleDownBy(source, VideoDimensions{960, 540})
	assert.Equal(t, 2.0, scale)
	assert.True(t, isEven(uint32(float64(source.Width)/scale)))
	assert.True(t, isEven(uint32(float64(source.Height)/scale)))

	scale = FindEvenScaleDownBy(source, VideoDimensions{480, 270})
	assert.True(t, isEven(uint32(float64(source.Width)/scale)))
	assert.True(t, isEven(uint32(float64(source.Height)/scale)))

	// identity stays 1
	assert.Equal(t, 1.0, FindEvenScaleDownBy(source, source))
}

func TestComputeVideoEncodingsNoSimulcast(t *testing.T) {
	// no explicit encoding and no simulcast defers to the media engine
	assert.Nil(t, ComputeVideoEncodings(false, 1280, 720, TrackPublishOptions{}))

	encodings := ComputeVideoEncodings(false, 1280, 720, TrackPublishOptions{
		VideoEncoding: &VideoEncoding{MaxBitrate: 1_000_000, MaxFramerate: 24},
	})
	require.Len(t, encodings, 1)
	assert.Empty(t, encodings[0].Rid)
	assert.EqualValues(t, 1_000_000, encodings[0].MaxBitrate)
	assert.EqualValues(t, 24, encodings[0].MaxFramerate)
}

func TestComputeVideoEncodingsSimulcast(t *testing.T) {
	opts := TrackPublishOptions{Simulcast: true}

	encodings := ComputeVideoEncodings(false, 1280, 720, opts)
	require.Len(t, encodings, 3)
	assert.Equal(t, "q", encodings[0].Rid)
	assert.Equal(t, "h", encodings[1].Rid)
	assert.Equal(t, "f", encodings[2].Rid)
	assert.Equal(t, presets169[0].Encoding.MaxBitrate, encodings[0].MaxBitrate)
	assert.Equal(t, presets169[1].Encoding.MaxBitrate, encodings[1].MaxBitrate)
	// top layer keeps the source resolution
	assert.Equal(t, 1.0, encodings[2].ScaleResolutionDownBy)
	assert.Equal(t, VideoPresetH720.Encoding.MaxBitrate, encodings[2].MaxBitrate)

	encodings = ComputeVideoEncodings(false, 640, 360, opts)
	require.Len(t, encodings, 2)
	assert.Equal(t, "q", encodings[0].Rid)
	assert.Equal(t, "h", encodings[1].Rid)
	assert.Equal(t, 1.0, encodings[1].ScaleResolutionDownBy)

	encodings = ComputeVideoEncodings(false, 320, 180, opts)
	require.Len(t, encodings, 1)
	assert.Equal(t, "q", encodings[0].Rid)
	assert.Equal(t, 1.0, encodings[0].ScaleResolutionDownBy)
}

func TestComputeVideoEncodingsScaleIsEven(t *testing.T) {
	encodings := ComputeVideoEncodings(false, 1920, 1080, TrackPublishOptions{Simulcast: true})
	require.Len(t, encodings, 3)
	for _, encoding := range encodings {
		width := uint32(float64(1920) / encoding.ScaleResolutionDownBy)
		height := uint32(float64(1080) / encoding.ScaleResolutionDownBy)
		assert.True(t, isEven(width), "width %d not even for rid %s", width, encoding.Rid)
		assert.True(t, isEven(height), "height %d not even for rid %s", height, encoding.Rid)
	}
}

func TestVideoLayersFromEncodings(t *testing.T) {
	layers := VideoLayersFromEncodings(1280, 720, nil)
	require.Len(t, layers, 1)
	assert.Equal(t, VideoQuality_High, layers[0].Quality)
	assert.EqualValues(t, 1280, layers[0].Width)
	assert.EqualValues(t, 720, layers[0].Height)
	assert.EqualValues(t, 0, layers[0].Bitrate)

	encodings := ComputeVideoEncodings(false, 1280, 720, TrackPublishOptions{Simulcast: true})
	layers = VideoLayersFromEncodings(1280, 720, encodings)
	require.Len(t, layers, 3)
	assert.Equal(t, VideoQuality_Low, layers[0].Quality)
	assert.Equal(t, VideoQuality_Medium, layers[1].Quality)
	assert.Equal(t, VideoQuality_High, layers[2].Quality)
	assert.EqualValues(t, 1280, layers[2].Width)
	assert.EqualValues(t, 720, layers[2].Height)
	assert.Greater(t, layers[2].Width, layers[1].Width)
	assert.Greater(t, layers[1].Width, layers[0].Width)

	// a lone encoding without a recognized rid is the high layer
	layers = VideoLayersFromEncodings(640, 480, []RtpEncodingParameters{{
		ScaleResolutionDownBy: 1,
		MaxBitrate:            500_000,
	}})
	require.Len(t, layers, 1)
	assert.Equal(t, VideoQuality_High, layers[0].Quality)
	assert.EqualValues(t, 500_000, layers[0].Bitrate)
}

func TestVideoLayersFromEncodingsFloorsDimensions(t *testing.T) {
	layers := VideoLayersFromEncodings(1281, 721, []RtpEncodingParameters{{
		Rid:                   "q",
		ScaleResolutionDownBy: 2,
	}})
	require.Len(t, layers, 1)
	assert.EqualValues(t, 640, layers[0].Width)
	assert.EqualValues(t, 360, layers[0].Height)
}
