// Package audio computes a display waveform and loudness statistics from raw
// audio. The numbers are diagnostic only.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"
)

const (
	// WaveformBlocks is the number of bars in a waveform.
	WaveformBlocks = 200

	// SilenceThreshold is the linear amplitude below which a sample counts as
	// silent (about -40 dB).
	SilenceThreshold = 0.01

	// ClipLevel and ClipCount: more than ClipCount samples at or above
	// ClipLevel flag the track as clipping.
	ClipLevel = 0.99
	ClipCount = 100

	// FloorDB is the lowest reported level.
	FloorDB = -60.0
)

// ErrUnsupported is returned for input that is not a decodable WAV stream.
var ErrUnsupported = errors.New("unsupported audio")

// Buffer is decoded mono audio with samples in [-1, 1].
type Buffer struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Duration in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// DecodeWAV decodes PCM WAV data and keeps only the first channel.
func DecodeWAV(r io.ReadSeeker) (Buffer, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return Buffer{}, fmt.Errorf("%w: not a valid WAV file", ErrUnsupported)
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	channels := int(d.NumChans)
	if channels <= 0 {
		channels = 1
	}
	depth := int(d.BitDepth)
	if depth <= 0 || depth > 32 {
		return Buffer{}, fmt.Errorf("%w: bit depth %d", ErrUnsupported, depth)
	}
	scale := math.Exp2(float64(depth - 1))
	// 8-bit PCM is unsigned with silence at 128.
	offset := 0.0
	if depth == 8 {
		offset = 128
	}

	samples := make([]float64, 0, len(pcm.Data)/channels)
	for i := 0; i < len(pcm.Data); i += channels {
		samples = append(samples, (float64(pcm.Data[i])-offset)/scale)
	}
	return Buffer{Samples: samples, SampleRate: int(d.SampleRate), Channels: channels}, nil
}

// Stats summarizes a whole track.
type Stats struct {
	Peak           float64 `json:"peak"`
	RMS            float64 `json:"rms"`
	PeakDB         float64 `json:"peakDb"`
	RMSDB          float64 `json:"rmsDb"`
	DynamicRange   float64 `json:"dynamicRange"`
	SilencePercent float64 `json:"silencePercent"`
	ClippedSamples int     `json:"clippedSamples"`
	Clipping       bool    `json:"clipping"`
}

// ComputeStats makes one pass over samples.
func ComputeStats(samples []float64) Stats {
	var (
		peak, sumSq float64
		silent      int
		clipped     int
	)
	for _, s := range samples {
		a := math.Abs(s)
		if a > peak {
			peak = a
		}
		sumSq += s * s
		if a < SilenceThreshold {
			silent++
		}
		if a >= ClipLevel {
			clipped++
		}
	}

	st := Stats{Peak: peak, ClippedSamples: clipped, Clipping: clipped > ClipCount}
	if n := len(samples); n > 0 {
		st.RMS = math.Sqrt(sumSq / float64(n))
		st.SilencePercent = float64(silent) / float64(n) * 100
	}
	st.PeakDB = ToDB(st.Peak)
	st.RMSDB = ToDB(st.RMS)
	st.DynamicRange = st.PeakDB - st.RMSDB
	return st
}

// ToDB converts a linear amplitude to decibels, clamped to FloorDB.
func ToDB(amplitude float64) float64 {
	if amplitude <= 0 {
		return FloorDB
	}
	return math.Max(20*math.Log10(amplitude), FloorDB)
}

// Waveform splits samples into blocks equal-length blocks, takes the mean
// absolute amplitude of each and scales so that the loudest block is 1.
// Trailing samples that do not fill a block are dropped; blocks with no
// samples are zero.
func Waveform(samples []float64, blocks int) []float64 {
	if blocks <= 0 {
		return nil
	}
	out := make([]float64, blocks)
	size := len(samples) / blocks
	if size == 0 {
		size = 1
	}

	var max float64
	for i := range out {
		start := i * size
		if start >= len(samples) {
			break
		}
		var sum float64
		for _, s := range samples[start : start+size] {
			sum += math.Abs(s)
		}
		out[i] = sum / float64(size)
		if out[i] > max {
			max = out[i]
		}
	}
	if max > 0 {
		for i := range out {
			out[i] /= max
		}
	}
	return out
}

// Analysis is everything the viewer shows for one track.
type Analysis struct {
	Waveform   []float64 `json:"waveform"`
	Stats      Stats     `json:"stats"`
	Duration   float64   `json:"duration"`
	SampleRate int       `json:"sampleRate"`
	Channels   int       `json:"channels"`
}

// Analyze decodes WAV bytes and computes the waveform and statistics.
func Analyze(data []byte) (Analysis, error) {
	buf, err := DecodeWAV(bytes.NewReader(data))
	if err != nil {
		return Analysis{}, err
	}
	return AnalyzeBuffer(buf), nil
}

// AnalyzeBuffer computes the analysis of already decoded audio.
func AnalyzeBuffer(buf Buffer) Analysis {
	return Analysis{
		Waveform:   Waveform(buf.Samples, WaveformBlocks),
		Stats:      ComputeStats(buf.Samples),
		Duration:   buf.Duration(),
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels,
	}
}
