package signaling

import (
	"math"
)

// videoRids are the fixed simulcast layer identifiers, low to high quality.
// Tiers beyond this set are silently dropped.
var videoRids = [...]string{"q", "h", "f"}

// VideoDimensions is a source or target video size in pixels.
type VideoDimensions struct {
	Width  uint32
	Height uint32
}

// Max returns the larger dimension, the reference size for all scale
// computations.
func (d VideoDimensions) Max() uint32 {
	if d.Width > d.Height {
		return d.Width
	}
	return d.Height
}

// aspect is always >= 1, regardless of orientation.
func (d VideoDimensions) aspect() float64 {
	if d.Width == 0 || d.Height == 0 {
		return 0
	}
	if d.Width > d.Height {
		return float64(d.Width) / float64(d.Height)
	}
	return float64(d.Height) / float64(d.Width)
}

// VideoEncoding is the target encoder output for one layer.
type VideoEncoding struct {
	MaxBitrate   uint64
	MaxFramerate uint32
}

// VideoPreset pairs dimensions with an encoding to form one ladder tier.
type VideoPreset struct {
	Width    uint32
	Height   uint32
	Encoding VideoEncoding
}

// RtpEncodingParameters describes one encoder layer the media engine should
// produce for a published track.
type RtpEncodingParameters struct {
	// Rid is the RTP stream identifier of this layer. Empty for a lone,
	// non-simulcast encoding.
	Rid string `json:"rid,omitempty"`

	// ScaleResolutionDownBy divides both source dimensions to size this layer.
	ScaleResolutionDownBy float64 `json:"scaleResolutionDownBy,omitempty"`

	// MaxBitrate caps the layer bitrate in bits per second.
	MaxBitrate uint64 `json:"maxBitrate,omitempty"`

	// MaxFramerate caps the layer framerate.
	MaxFramerate uint32 `json:"maxFramerate,omitempty"`
}

// Standard 16:9 presets, low to high quality.
var (
	VideoPresetH180  = VideoPreset{320, 180, VideoEncoding{150_000, 15}}
	VideoPresetH360  = VideoPreset{640, 360, VideoEncoding{450_000, 20}}
	VideoPresetH540  = VideoPreset{960, 540, VideoEncoding{800_000, 25}}
	VideoPresetH720  = VideoPreset{1280, 720, VideoEncoding{1_700_000, 30}}
	VideoPresetH1080 = VideoPreset{1920, 1080, VideoEncoding{3_000_000, 30}}
)

// Standard 4:3 presets, low to high quality. The bitrate curve mirrors the
// 16:9 ladder at 4:3 geometry.
var (
	VideoPresetH180x43  = VideoPreset{240, 180, VideoEncoding{125_000, 15}}
	VideoPresetH360x43  = VideoPreset{480, 360, VideoEncoding{330_000, 20}}
	VideoPresetH540x43  = VideoPreset{720, 540, VideoEncoding{600_000, 25}}
	VideoPresetH720x43  = VideoPreset{960, 720, VideoEncoding{1_300_000, 30}}
	VideoPresetH1080x43 = VideoPreset{1440, 1080, VideoEncoding{2_300_000, 30}}
)

// Screen-share presets. Content is mostly static, so framerates are low and
// bitrates conservative.
var (
	ScreenSharePresetH360FPS3   = VideoPreset{640, 360, VideoEncoding{200_000, 3}}
	ScreenSharePresetH720FPS5   = VideoPreset{1280, 720, VideoEncoding{400_000, 5}}
	ScreenSharePresetH1080FPS15 = VideoPreset{1920, 1080, VideoEncoding{1_000_000, 15}}
	ScreenSharePresetH1080FPS30 = VideoPreset{1920, 1080, VideoEncoding{2_000_000, 30}}
)

var (
	presets169 = []VideoPreset{
		VideoPresetH180,
		VideoPresetH360,
		VideoPresetH540,
		VideoPresetH720,
		VideoPresetH1080,
	}

	presets43 = []VideoPreset{
		VideoPresetH180x43,
		VideoPresetH360x43,
		VideoPresetH540x43,
		VideoPresetH720x43,
		VideoPresetH1080x43,
	}

	presetsScreenShare = []VideoPreset{
		ScreenSharePresetH360FPS3,
		ScreenSharePresetH720FPS5,
		ScreenSharePresetH1080FPS15,
		ScreenSharePresetH1080FPS30,
	}
)

// TrackPublishOptions tune the encoding layout of a published video track.
type TrackPublishOptions struct {
	// VideoEncoding pins the top-layer encoding. When nil it is derived from
	// the preset ladder.
	VideoEncoding *VideoEncoding

	// Simulcast publishes up to three layers instead of one.
	Simulcast bool
}

// PresetsForResolution selects the preset ladder for a source: screen shares
// always use the dedicated ladder, otherwise the ladder whose aspect ratio is
// closest to the source's wins, with ties going to 16:9.
func PresetsForResolution(isScreenShare bool, width, height uint32) []VideoPreset {
	if isScreenShare {
		return presetsScreenShare
	}
	aspect := VideoDimensions{width, height}.aspect()
	if math.Abs(aspect-4.0/3.0) < math.Abs(aspect-16.0/9.0) {
		return presets43
	}
	return presets169
}

// DetermineAppropriateEncoding picks the single-layer encoding for a source:
// the smallest preset tier that is not smaller than the source, or the highest
// tier when the source exceeds the whole ladder.
func DetermineAppropriateEncoding(isScreenShare bool, width, height uint32) VideoEncoding {
	presets := PresetsForResolution(isScreenShare, width, height)
	encoding := presets[0].Encoding
	size := VideoDimensions{width, height}.Max()
	for _, preset := range presets {
		encoding = preset.Encoding
		if preset.Width >= size {
			break
		}
	}
	return encoding
}

// FindEvenScaleDownBy searches for a scale factor that, applied to both source
// dimensions via truncating division, yields even integers. The search widens
// the target by integer offsets up to 30; when nothing in range works, the
// plain ratio is returned and odd layer dimensions are accepted. Fractional
// factors are legal: this mirrors the media engine's internal truncating
// casts and must keep matching them exactly.
func FindEvenScaleDownBy(source, target VideoDimensions) float64 {
	sourceSize := source.Max()
	targetSize := target.Max()
	for offset := uint32(0); offset <= 30; offset++ {
		scale := float64(sourceSize) / float64(targetSize+offset)
		if isEven(uint32(float64(source.Width)/scale)) && isEven(uint32(float64(source.Height)/scale)) {
			return scale
		}
	}
	return float64(sourceSize) / float64(targetSize)
}

// ComputeVideoEncodings derives the encoder layers for a published video
// track. With simulcast enabled it returns up to three layers depending on the
// source size; otherwise a single unnamed encoding. A nil return means the
// media engine should apply its own defaults.
func ComputeVideoEncodings(isScreenShare bool, width, height uint32, opts TrackPublishOptions) []RtpEncodingParameters {
	encoding := opts.VideoEncoding
	if encoding == nil {
		if !opts.Simulcast {
			return nil
		}
		derived := DetermineAppropriateEncoding(isScreenShare, width, height)
		encoding = &derived
	}

	if !opts.Simulcast {
		return []RtpEncodingParameters{{
			MaxBitrate:   encoding.MaxBitrate,
			MaxFramerate: encoding.MaxFramerate,
		}}
	}

	original := VideoPreset{Width: width, Height: height, Encoding: *encoding}
	presets := PresetsForResolution(isScreenShare, width, height)
	low := presets[0]
	var mid *VideoPreset
	if len(presets) > 1 {
		mid = &presets[1]
	}

	size := VideoDimensions{width, height}.Max()
	var ladder []VideoPreset
	switch {
	case size >= 960 && mid != nil:
		ladder = []VideoPreset{low, *mid, original}
	case size >= 500:
		ladder = []VideoPreset{low, original}
	default:
		ladder = []VideoPreset{original}
	}
	return encodingsFromPresets(VideoDimensions{width, height}, ladder)
}

func encodingsFromPresets(source VideoDimensions, presets []VideoPreset) []RtpEncodingParameters {
	encodings := make([]RtpEncodingParameters, 0, len(presets))
	for i, preset := range presets {
		if i >= len(videoRids) {
			break
		}
		encodings = append(encodings, RtpEncodingParameters{
			Rid:                   videoRids[i],
			ScaleResolutionDownBy: FindEvenScaleDownBy(source, VideoDimensions{preset.Width, preset.Height}),
			MaxBitrate:            preset.Encoding.MaxBitrate,
			MaxFramerate:          preset.Encoding.MaxFramerate,
		})
	}
	return encodings
}

// VideoLayersFromEncodings reconstructs the wire-level layer descriptions from
// encoder layers. No encodings means a single default high-quality layer sized
// to the source with bitrate 0. A lone encoding whose rid maps to no known
// quality is always "high".
func VideoLayersFromEncodings(width, height uint32, encodings []RtpEncodingParameters) []*VideoLayer {
	if len(encodings) == 0 {
		return []*VideoLayer{{
			Quality: VideoQuality_High,
			Width:   width,
			Height:  height,
			Bitrate: 0,
		}}
	}

	layers := make([]*VideoLayer, 0, len(encodings))
	for _, encoding := range encodings {
		scale := encoding.ScaleResolutionDownBy
		if scale < 1 {
			scale = 1
		}
		quality := videoQualityForRid(encoding.Rid)
		if quality == "" && len(encodings) == 1 {
			quality = VideoQuality_High
		}
		layers = append(layers, &VideoLayer{
			Quality: quality,
			Width:   uint32(math.Floor(float64(width) / scale)),
			Height:  uint32(math.Floor(float64(height) / scale)),
			Bitrate: uint32(encoding.MaxBitrate),
		})
	}
	return layers
}

func videoQualityForRid(rid string) VideoQuality {
	switch rid {
	case "q":
		return VideoQuality_Low
	case "h":
		return VideoQuality_Medium
	case "f":
		return VideoQuality_High
	default:
		return ""
	}
}

func isEven(n uint32) bool {
	return n%2 == 0
}
