package encode

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildArgs_CuvidDecodeWithFilters(t *testing.T) {
	req := Request{
		InputPath:  "in.mp4",
		OutputPath: "out.mp4",
		Start:      12.5,
		End:        42.5,
		Speed:      1,
		Volume:     1.5,
		Quality:    QualityHigh,
	}
	plan := FilterPlan{AudioFilters: []string{"volume=1.5"}}

	args := buildArgs(req, plan, "h264_cuvid",
		[]string{"-c:v", "h264_nvenc"}, []string{"-c:a", "aac", "-b:a", "192k"})

	joined := strings.Join(args, " ")

	// Decode flags must precede -i.
	hw := strings.Index(joined, "-hwaccel cuda -c:v h264_cuvid")
	in := strings.Index(joined, "-i in.mp4")
	if hw < 0 || in < 0 || hw > in {
		t.Fatalf("decode flags must precede the input: %q", joined)
	}

	// Input seeking with an output duration.
	if !strings.Contains(joined, "-ss 12.500 -i in.mp4 -t 30.000") {
		t.Errorf("trim args wrong: %q", joined)
	}
	if !strings.Contains(joined, "-af volume=1.5") {
		t.Errorf("audio filter missing: %q", joined)
	}
	if strings.Contains(joined, "-vf") {
		t.Errorf("no video filter expected: %q", joined)
	}
	if !strings.Contains(joined, "-progress pipe:1") {
		t.Errorf("progress stream missing: %q", joined)
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output path must be last: %v", args)
	}
	if !strings.Contains(joined, "-movflags +faststart") {
		t.Errorf("faststart missing: %q", joined)
	}
}

func TestBuildArgs_SoftwarePath(t *testing.T) {
	req := Request{
		InputPath:  "in.mp4",
		OutputPath: "out.mp4",
		Start:      0,
		End:        10,
		Speed:      2,
		Volume:     1,
		Quality:    QualityDiscord,
	}
	plan := FilterPlan{
		VideoFilters:     []string{"setpts=PTS/2"},
		AudioFilters:     []string{"atempo=2"},
		NeedsVideoFilter: true,
	}

	args := buildArgs(req, plan, DecodeModeNone,
		[]string{"-c:v", "libx264"}, []string{"-c:a", "aac"})

	joined := strings.Join(args, " ")
	if strings.Contains(joined, "-hwaccel") {
		t.Errorf("software decode must carry no hwaccel flags: %q", joined)
	}
	if !strings.Contains(joined, "-vf setpts=PTS/2") {
		t.Errorf("video filter missing: %q", joined)
	}
	if !strings.Contains(joined, "-af atempo=2") {
		t.Errorf("audio filter missing: %q", joined)
	}
}

func TestBuildArgs_JoinsMultipleFilters(t *testing.T) {
	req := Request{InputPath: "in.mp4", OutputPath: "out.mp4", Start: 0, End: 10, Speed: 2}
	plan := FilterPlan{
		VideoFilters: []string{"setpts=PTS/2", "scale=-2:1080:flags=fast_bilinear"},
		AudioFilters: []string{"atempo=2", "volume=0.5"},
	}

	args := buildArgs(req, plan, DecodeModeNone, nil, nil)

	var vf, af string
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "-vf":
			vf = args[i+1]
		case "-af":
			af = args[i+1]
		}
	}
	if vf != "setpts=PTS/2,scale=-2:1080:flags=fast_bilinear" {
		t.Errorf("-vf = %q", vf)
	}
	if af != "atempo=2,volume=0.5" {
		t.Errorf("-af = %q", af)
	}
}

func TestBuildArgs_Preamble(t *testing.T) {
	req := Request{InputPath: "in.mp4", OutputPath: "out.mp4", Start: 0, End: 1, Speed: 1}
	args := buildArgs(req, FilterPlan{}, DecodeModeNone, nil, nil)

	want := []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error", "-progress", "pipe:1"}
	if !reflect.DeepEqual(args[:len(want)], want) {
		t.Errorf("preamble = %v, want %v", args[:len(want)], want)
	}
}
