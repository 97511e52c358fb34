// Package audio stitches per-line TTS clips into one podcast episode
// file: trim leading/trailing silence from each clip, concatenate with a
// fixed gap between lines, and encode the result as a 16-bit PCM WAV.
// Grounded on spec.md §4.J step 7 (librosa-style 20 dB trim threshold,
// 250 ms inter-line silence). No audio library appears anywhere in the
// retrieved example repos, so this is built directly on
// encoding/binary — see DESIGN.md for that justification.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Clip is one decoded PCM clip: signed 16-bit samples at SampleRate, one
// channel.
type Clip struct {
	Samples    []int16
	SampleRate int
}

// TrimSilence drops leading and trailing runs of samples quieter than
// thresholdDB relative to the clip's peak amplitude (librosa.effects.trim's
// default top_db semantics).
func TrimSilence(samples []int16, thresholdDB float64) []int16 {
	if len(samples) == 0 {
		return samples
	}

	peak := 0.0
	for _, s := range samples {
		abs := math.Abs(float64(s))
		if abs > peak {
			peak = abs
		}
	}
	if peak == 0 {
		return samples
	}

	threshold := peak * math.Pow(10, -thresholdDB/20)

	start := 0
	for start < len(samples) && math.Abs(float64(samples[start])) < threshold {
		start++
	}
	end := len(samples)
	for end > start && math.Abs(float64(samples[end-1])) < threshold {
		end--
	}
	return samples[start:end]
}

// Stitch trims each clip's silence, concatenates them at the shared
// sample rate with gapMillis of silence between consecutive clips, and
// returns the combined samples. It returns an error if clips is empty or
// if any clip's sample rate differs from the first clip's.
func Stitch(clips []Clip, thresholdDB float64, gapMillis int) ([]int16, int, error) {
	if len(clips) == 0 {
		return nil, 0, fmt.Errorf("audio: no clips to stitch")
	}

	sampleRate := clips[0].SampleRate
	gapSamples := sampleRate * gapMillis / 1000

	var out []int16
	for i, clip := range clips {
		if clip.SampleRate != sampleRate {
			return nil, 0, fmt.Errorf("audio: clip %d sample rate %d, want %d", i, clip.SampleRate, sampleRate)
		}
		trimmed := TrimSilence(clip.Samples, thresholdDB)
		if i > 0 {
			out = append(out, make([]int16, gapSamples)...)
		}
		out = append(out, trimmed...)
	}
	return out, sampleRate, nil
}

// EncodeWAV writes mono 16-bit PCM samples as a canonical WAV file.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	const bitsPerSample = 16
	const numChannels = 1

	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(samples) * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	if err := binary.Write(&buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("audio: write samples: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeWAV reads a canonical 16-bit PCM mono or multi-channel WAV file
// and returns its first channel's samples and sample rate. Providers are
// expected to return mono audio for TTS output; extra channels beyond
// the first are ignored.
func DecodeWAV(data []byte) (Clip, error) {
	r := bytes.NewReader(data)
	var riffHeader [12]byte
	if _, err := r.Read(riffHeader[:]); err != nil {
		return Clip{}, fmt.Errorf("audio: read RIFF header: %w", err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("audio: not a WAV file")
	}

	var numChannels uint16
	var sampleRate uint32
	var bitsPerSample uint16
	var samples []int16

	for {
		var chunkID [4]byte
		var chunkSize uint32
		if _, err := r.Read(chunkID[:]); err != nil {
			break
		}
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			break
		}

		switch string(chunkID[:]) {
		case "fmt ":
			fmtChunk := make([]byte, chunkSize)
			if _, err := r.Read(fmtChunk); err != nil {
				return Clip{}, fmt.Errorf("audio: read fmt chunk: %w", err)
			}
			numChannels = binary.LittleEndian.Uint16(fmtChunk[2:4])
			sampleRate = binary.LittleEndian.Uint32(fmtChunk[4:8])
			bitsPerSample = binary.LittleEndian.Uint16(fmtChunk[14:16])
		case "data":
			if bitsPerSample != 16 {
				return Clip{}, fmt.Errorf("audio: unsupported bits per sample %d", bitsPerSample)
			}
			raw := make([]byte, chunkSize)
			if _, err := r.Read(raw); err != nil {
				return Clip{}, fmt.Errorf("audio: read data chunk: %w", err)
			}
			frameSize := int(numChannels) * 2
			frames := len(raw) / frameSize
			samples = make([]int16, frames)
			for i := 0; i < frames; i++ {
				samples[i] = int16(binary.LittleEndian.Uint16(raw[i*frameSize : i*frameSize+2]))
			}
		default:
			skip := make([]byte, chunkSize)
			r.Read(skip)
		}

		if chunkSize%2 == 1 {
			r.Read(make([]byte, 1))
		}
	}

	if sampleRate == 0 {
		return Clip{}, fmt.Errorf("audio: missing fmt chunk")
	}

	return Clip{Samples: samples, SampleRate: int(sampleRate)}, nil
}
