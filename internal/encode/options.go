package encode

import "strconv"

// Encoder identifiers as reported in outcomes and activity records.
const (
	EncoderNvenc    = "h264_nvenc"
	EncoderSoftware = "libx264"
)

// Discord bitrate budget constants. The target lands the output under
// the free-tier upload limit with headroom for muxing overhead.
const (
	discordTargetBytes    = int64(9961472) // 9.5 MiB
	discordAudioKbps      = 96
	containerOverheadKbps = 48
	minVideoKbps          = 450
	maxVideoKbps          = 14000
)

// Audio bitrates per tier when re-encoding to AAC.
const (
	audioBitrateDefault = "192k"
	audioBitrateDiscord = "96k"
)

// DiscordBudget derives the video bitrate for a clip of the given
// duration from the fixed output-size goal: total kbps is the size
// spread over the clip, minus the fixed audio bitrate and a container
// overhead allowance, clamped to a sane encoder range.
func DiscordBudget(durationSec float64) (videoKbps int, targetBytes int64) {
	if durationSec <= 0 {
		return minVideoKbps, discordTargetBytes
	}
	totalKbps := int(float64(discordTargetBytes) * 8 / durationSec / 1000)
	videoKbps = totalKbps - discordAudioKbps - containerOverheadKbps
	if videoKbps < minVideoKbps {
		videoKbps = minVideoKbps
	}
	if videoKbps > maxVideoKbps {
		videoKbps = maxVideoKbps
	}
	return videoKbps, discordTargetBytes
}

// hardwareVideoOpts returns the NVENC rate-control options for a tier.
// Lossless uses constant quantization at the highest-effort preset;
// high uses VBR around CQ 18 with caps and extended look-ahead; discord
// uses CBR at the budgeted bitrate with zero-latency tuning and no
// B-frames.
func hardwareVideoOpts(q Quality, videoKbps int) []string {
	switch q {
	case QualityLossless:
		return []string{
			"-c:v", EncoderNvenc,
			"-preset", "p7",
			"-tune", "lossless",
			"-rc", "constqp",
			"-qp", "0",
		}
	case QualityHigh:
		return []string{
			"-c:v", EncoderNvenc,
			"-preset", "p6",
			"-rc", "vbr",
			"-cq", "18",
			"-b:v", "0",
			"-maxrate", "80M",
			"-bufsize", "160M",
			"-rc-lookahead", "32",
		}
	default:
		kbps := strconv.Itoa(videoKbps) + "k"
		return []string{
			"-c:v", EncoderNvenc,
			"-preset", "p4",
			"-tune", "ull",
			"-rc", "cbr",
			"-b:v", kbps,
			"-maxrate", kbps,
			"-bufsize", kbps,
			"-bf", "0",
		}
	}
}

// softwareVideoOpts mirrors the same tiers with CRF-based control and
// progressively faster presets as quality drops.
func softwareVideoOpts(q Quality, videoKbps int) []string {
	switch q {
	case QualityLossless:
		return []string{
			"-c:v", EncoderSoftware,
			"-preset", "medium",
			"-crf", "0",
		}
	case QualityHigh:
		return []string{
			"-c:v", EncoderSoftware,
			"-preset", "fast",
			"-crf", "19",
		}
	default:
		kbps := strconv.Itoa(videoKbps) + "k"
		return []string{
			"-c:v", EncoderSoftware,
			"-preset", "veryfast",
			"-crf", "28",
			"-maxrate", kbps,
			"-bufsize", kbps,
		}
	}
}

// audioOpts selects between stream copy and AAC re-encode. Copy is used
// only when no audio filtering is needed, the tier is not discord, and
// the caller permits it.
func audioOpts(plan FilterPlan, q Quality, allowCopy bool) []string {
	if len(plan.AudioFilters) == 0 && q != QualityDiscord && allowCopy {
		return []string{"-c:a", "copy"}
	}
	bitrate := audioBitrateDefault
	if q == QualityDiscord {
		bitrate = audioBitrateDiscord
	}
	return []string{"-c:a", "aac", "-b:a", bitrate}
}

// AudioKbpsFor reports the numeric AAC bitrate for a tier, for the
// benchmark record.
func AudioKbpsFor(q Quality) int {
	if q == QualityDiscord {
		return 96
	}
	return 192
}
