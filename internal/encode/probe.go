package encode

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Prober reads source stream facts with a single ffprobe JSON call.
type Prober struct {
	bin string
}

func NewProber(ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{bin: ffprobePath}
}

// Probe runs ffprobe against path and returns the parsed stream info.
// Any failure here is fatal for the export.
func (p *Prober) Probe(path string) (SourceStreamInfo, error) {
	cmd := exec.Command(p.bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return SourceStreamInfo{}, &SourceProbeError{Path: path, Err: err}
	}

	info, err := ParseSourceInfo(out)
	if err != nil {
		return SourceStreamInfo{}, &SourceProbeError{Path: path, Err: err}
	}
	return info, nil
}

// ParseSourceInfo converts raw ffprobe JSON output into SourceStreamInfo.
// Exported for testing without a real ffprobe binary.
func ParseSourceInfo(data []byte) (SourceStreamInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return SourceStreamInfo{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	var video *ffprobeStream
	for i := range raw.Streams {
		if raw.Streams[i].CodecType == "video" {
			video = &raw.Streams[i]
			break
		}
	}
	if video == nil {
		return SourceStreamInfo{}, fmt.Errorf("no video stream found")
	}

	info := SourceStreamInfo{
		Width:    video.Width,
		Height:   video.Height,
		FPS:      parseFrameRate(video.AvgFrameRate),
		Codec:    strings.ToLower(video.CodecName),
		PixFmt:   video.PixFmt,
		Duration: parseFloat(raw.Format.Duration),
	}
	if info.FPS <= 0 {
		info.FPS = parseFrameRate(video.RFrameRate)
	}
	if info.FPS <= 0 {
		info.FPS = 30
	}
	return info, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type ffprobeStream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	PixFmt       string `json:"pix_fmt"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
}

// parseFrameRate converts a rational frame-rate string ("60/1",
// "30000/1001") to a float. Returns 0 when unparsable.
func parseFrameRate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "0/0" {
		return 0
	}
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
