package encode

// Decode mode names. A mode is either a codec-specialized cuvid
// decoder, a generic hardware-accel path, or plain software decode.
const (
	DecodeModeCUDA    = "cuda"
	DecodeModeD3D11VA = "d3d11va"
	DecodeModeDXVA2   = "dxva2"
	DecodeModeNone    = "none"
)

// cuvidDecoders maps common source codec names to their specialized
// hardware decoder identifiers. Absence of the mapped name in the
// engine's decoder set means the specialized path is skipped.
var cuvidDecoders = map[string]string{
	"h264":       "h264_cuvid",
	"hevc":       "hevc_cuvid",
	"av1":        "av1_cuvid",
	"mpeg2video": "mpeg2_cuvid",
	"vp8":        "vp8_cuvid",
	"vp9":        "vp9_cuvid",
	"mjpeg":      "mjpeg_cuvid",
}

// DecodeCandidates returns the ordered list of decode modes to attempt:
// most specific first, generic hardware paths next, always terminating
// in software decode.
//
// When frame-domain filtering is required the only candidate is "none",
// regardless of capability or codec, because filtered frames must be in
// CPU memory.
func DecodeCandidates(needsVideoFilter bool, codec string, decoderNames map[string]bool) []string {
	if needsVideoFilter {
		return []string{DecodeModeNone}
	}

	var modes []string
	if name, ok := cuvidDecoders[codec]; ok && decoderNames[name] {
		modes = append(modes, name)
	}
	modes = append(modes, DecodeModeCUDA, DecodeModeD3D11VA, DecodeModeDXVA2, DecodeModeNone)
	return modes
}

// CuvidDecoderFor returns the specialized decoder name for a source
// codec, or "" when none is mapped.
func CuvidDecoderFor(codec string) string {
	return cuvidDecoders[codec]
}

// decodeModeArgs translates a decode mode into the engine input flags
// that request it. Software decode needs none.
func decodeModeArgs(mode string) []string {
	switch mode {
	case DecodeModeNone:
		return nil
	case DecodeModeCUDA:
		return []string{"-hwaccel", "cuda"}
	case DecodeModeD3D11VA:
		return []string{"-hwaccel", "d3d11va"}
	case DecodeModeDXVA2:
		return []string{"-hwaccel", "dxva2"}
	default:
		// Specialized cuvid decoder.
		return []string{"-hwaccel", "cuda", "-c:v", mode}
	}
}
