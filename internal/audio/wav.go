// Package audio wraps raw PCM payloads in a playable RIFF/WAVE container and
// provides duration math for the fixed format the speech API emits.
package audio

import (
	"encoding/binary"
	"errors"
	"time"
)

// Container format parameters. The speech API always returns 16-bit mono
// linear PCM; only the sample rate varies per response.
const (
	Channels      = 1
	BitsPerSample = 16

	riffHeaderSize = 44
	fmtChunkSize   = 16
	pcmFormatTag   = 1
)

// ErrNoAudioData is returned when an empty PCM payload is wrapped.
var ErrNoAudioData = errors.New("no audio data to encode")

// ErrInvalidSampleRate is returned for non-positive sample rates.
var ErrInvalidSampleRate = errors.New("sample rate must be positive")

// EncodeWAV prefixes pcm with a canonical 44-byte RIFF header describing
// 16-bit mono audio at the given sample rate.
func EncodeWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, ErrNoAudioData
	}

	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	bytesPerSample := BitsPerSample / 8
	byteRate := sampleRate * Channels * bytesPerSample
	blockAlign := Channels * bytesPerSample
	dataSize := len(pcm)

	header := make([]byte, riffHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(riffHeaderSize-8+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], fmtChunkSize)
	binary.LittleEndian.PutUint16(header[20:22], pcmFormatTag)
	binary.LittleEndian.PutUint16(header[22:24], Channels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], BitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	return append(header, pcm...), nil
}

// PCMDuration reports the playback time of a raw PCM payload.
func PCMDuration(pcmBytes, sampleRate int) time.Duration {
	if sampleRate <= 0 || pcmBytes <= 0 {
		return 0
	}

	bytesPerSecond := sampleRate * Channels * (BitsPerSample / 8)

	return time.Duration(float64(pcmBytes) / float64(bytesPerSecond) * float64(time.Second))
}
