package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

const wavHeaderSize = 44

// EncodeWAV wraps raw little-endian PCM samples in a RIFF/WAVE container.
func EncodeWAV(pcm []byte, channels, sampleRate, sampleWidth int) []byte {
	blockAlign := channels * sampleWidth
	byteRate := sampleRate * blockAlign

	var b bytes.Buffer
	b.Grow(wavHeaderSize + len(pcm))
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&b, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&b, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&b, binary.LittleEndian, uint16(sampleWidth*8))
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}

// WriteFile stores the audio from a data URI at path. The file is written to a
// temporary name first and renamed into place.
func WriteFile(path, uri string) error {
	wav, err := DecodeDataURI(uri)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "fluent-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temp audio: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(wav); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp audio: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move audio into place: %w", err)
	}
	return nil
}
