package encode

import (
	"math"
	"testing"
)

const probeFixture = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "H264",
      "codec_type": "video",
      "pix_fmt": "yuv420p",
      "width": 2560,
      "height": 1440,
      "avg_frame_rate": "60/1",
      "r_frame_rate": "60/1"
    },
    {
      "index": 1,
      "codec_name": "aac",
      "codec_type": "audio"
    }
  ],
  "format": {
    "duration": "312.416000",
    "size": "1253741824",
    "bit_rate": "32098581"
  }
}`

func TestParseSourceInfo(t *testing.T) {
	info, err := ParseSourceInfo([]byte(probeFixture))
	if err != nil {
		t.Fatalf("ParseSourceInfo() error = %v", err)
	}
	if info.Width != 2560 || info.Height != 1440 {
		t.Errorf("dimensions = %dx%d, want 2560x1440", info.Width, info.Height)
	}
	if info.FPS != 60 {
		t.Errorf("FPS = %v, want 60", info.FPS)
	}
	if info.Codec != "h264" {
		t.Errorf("Codec = %q, want lowercased h264", info.Codec)
	}
	if info.PixFmt != "yuv420p" {
		t.Errorf("PixFmt = %q, want yuv420p", info.PixFmt)
	}
	if info.Duration != 312.416 {
		t.Errorf("Duration = %v, want 312.416", info.Duration)
	}
}

func TestParseSourceInfo_NoVideoStream(t *testing.T) {
	audioOnly := `{"streams": [{"index": 0, "codec_name": "aac", "codec_type": "audio"}], "format": {}}`
	if _, err := ParseSourceInfo([]byte(audioOnly)); err == nil {
		t.Error("expected error for audio-only input")
	}
}

func TestParseSourceInfo_InvalidJSON(t *testing.T) {
	if _, err := ParseSourceInfo([]byte("not json")); err == nil {
		t.Error("expected error for malformed output")
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"60/1", 60},
		{"30000/1001", 29.97002997002997},
		{"0/0", 0},
		{"", 0},
		{"60", 60},
		{"x/y", 0},
		{"30/0", 0},
	}
	for _, tc := range cases {
		if got := parseFrameRate(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSourceInfo_FrameRateFallbacks(t *testing.T) {
	// avg_frame_rate unusable, r_frame_rate valid.
	rFallback := `{"streams": [{"codec_type": "video", "avg_frame_rate": "0/0", "r_frame_rate": "120/1"}], "format": {}}`
	info, err := ParseSourceInfo([]byte(rFallback))
	if err != nil {
		t.Fatalf("ParseSourceInfo() error = %v", err)
	}
	if info.FPS != 120 {
		t.Errorf("FPS = %v, want r_frame_rate fallback 120", info.FPS)
	}

	// Neither rate usable: conservative default.
	noRates := `{"streams": [{"codec_type": "video"}], "format": {}}`
	info, err = ParseSourceInfo([]byte(noRates))
	if err != nil {
		t.Fatalf("ParseSourceInfo() error = %v", err)
	}
	if info.FPS != 30 {
		t.Errorf("FPS = %v, want default 30", info.FPS)
	}
}
