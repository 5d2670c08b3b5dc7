package encode

import "strings"

// buildArgs assembles the full engine argument list for one encode
// attempt. Decode flags precede the input; trim is done with input
// seeking plus an output duration so the segment boundaries stay
// accurate across decode modes.
func buildArgs(req Request, plan FilterPlan, decodeMode string, videoOpts, audioOpts []string) []string {
	args := make([]string, 0, 48)

	args = append(args,
		"-hide_banner", "-nostdin", "-y",
		"-loglevel", "error",
		"-progress", "pipe:1",
	)

	args = append(args, decodeModeArgs(decodeMode)...)

	args = append(args,
		"-ss", formatSeconds(req.Start),
		"-i", req.InputPath,
		"-t", formatSeconds(req.ClipDuration()),
	)

	if len(plan.VideoFilters) > 0 {
		args = append(args, "-vf", strings.Join(plan.VideoFilters, ","))
	}
	if len(plan.AudioFilters) > 0 {
		args = append(args, "-af", strings.Join(plan.AudioFilters, ","))
	}

	args = append(args, videoOpts...)
	args = append(args, audioOpts...)

	args = append(args, "-movflags", "+faststart")
	args = append(args, req.OutputPath)

	return args
}
