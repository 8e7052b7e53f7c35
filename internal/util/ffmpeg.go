package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// AudioInfo holds the probed metadata of an uploaded voice note.
type AudioInfo struct {
	Duration   float64 `json:"duration"`
	Format     string  `json:"format"`
	Codec      string  `json:"codec"`
	SampleRate int     `json:"sampleRate"`
	Size       int64   `json:"size"`
}

// GetAudioInfo probes an audio file with ffprobe and extracts the
// fields the voice note pipeline cares about.
func GetAudioInfo(audioPath string) (*AudioInfo, error) {
	fileInfo, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("audio file not found: %v", err)
	}

	jsonOutput, err := ffmpeg.Probe(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe audio: %v", err)
	}

	var result struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
			Size     string `json:"size"`
			Format   string `json:"format_name"`
		} `json:"format"`
	}

	if err := json.Unmarshal([]byte(jsonOutput), &result); err != nil {
		return nil, fmt.Errorf("failed to parse probe output: %v", err)
	}

	var codec string
	var sampleRate int
	for _, stream := range result.Streams {
		if stream.CodecType == "audio" {
			codec = stream.CodecName
			sampleRate, _ = strconv.Atoi(stream.SampleRate)
			break
		}
	}

	duration, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		duration = 0
	}

	size, err := strconv.ParseInt(result.Format.Size, 10, 64)
	if err != nil {
		size = fileInfo.Size()
	}

	format := "unknown"
	if len(result.Format.Format) > 0 {
		formatParts := strings.Split(result.Format.Format, ",")
		if len(formatParts) > 0 {
			format = formatParts[0]
		}
	}

	return &AudioInfo{
		Duration:   duration,
		Format:     format,
		Codec:      codec,
		SampleRate: sampleRate,
		Size:       size,
	}, nil
}

// TranscodeToWav converts an uploaded voice note to 16kHz mono WAV,
// the format the transcription backend accepts.
func TranscodeToWav(inputPath, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	return ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"ar": "16000",
			"ac": "1",
			"f":  "wav",
		}).
		OverWriteOutput().
		Run()
}
