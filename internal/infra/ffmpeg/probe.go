package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/DFP1305/pendulo/internal/domain/port"
)

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		SideData     []struct {
			Rotation float64 `json:"rotation"`
		} `json:"side_data_list"`
		Tags struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
	} `json:"streams"`
}

// Probe reads the dimensions and nominal frame rate of the first video stream.
func (o *Opener) Probe(ctx context.Context, videoPath string) (port.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, o.ffprobeBin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate:stream_side_data=rotation:stream_tags=rotate",
		"-of", "json",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return port.VideoInfo{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(ee.Stderr)))
		}
		return port.VideoInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(output)
}

func parseProbe(data []byte) (port.VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return port.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return port.VideoInfo{}, fmt.Errorf("no video stream")
	}

	s := out.Streams[0]
	fps, err := parseRate(s.RFrameRate)
	if err != nil || fps == 0 {
		fps, err = parseRate(s.AvgFrameRate)
		if err != nil {
			return port.VideoInfo{}, err
		}
	}

	rotation := 0
	for _, sd := range s.SideData {
		if sd.Rotation != 0 {
			rotation = int(sd.Rotation)
		}
	}
	if rotation == 0 && s.Tags.Rotate != "" {
		if r, err := strconv.Atoi(strings.TrimSpace(s.Tags.Rotate)); err == nil {
			rotation = r
		}
	}

	// Width and Height stay as stored: the decoder runs with -noautorotate.
	return port.VideoInfo{FrameRate: fps, Width: s.Width, Height: s.Height, Rotation: rotation}, nil
}

// parseRate reads ffprobe rationals such as "30000/1001". "0/0" means unknown and yields 0.
func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	if d == 0 {
		return 0, nil
	}
	return n / d, nil
}
