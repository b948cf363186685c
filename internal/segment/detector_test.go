package segment

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"testing"

	"github.com/go-audio/wav"

	"github.com/typeless-app/typeless-core/internal/config"
)

func testAudioConfig() config.AudioConfig {
	cfg := config.Default().Audio
	return cfg
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// chunkBytes builds one chunk of 16-bit mono PCM with the given amplitude.
func chunkBytes(cfg config.AudioConfig, amplitude int16) []byte {
	buf := make([]byte, cfg.ChunkSamples*2)
	for i := 0; i < cfg.ChunkSamples; i++ {
		v := amplitude
		if i%2 == 1 {
			v = -amplitude
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

func TestDetectorEmitsOnTrailingSilence(t *testing.T) {
	cfg := testAudioConfig()
	var segments [][]byte
	det := NewDetector(cfg, newTestLogger(), func(wavBytes []byte) {
		segments = append(segments, wavBytes)
	})

	speech := chunkBytes(cfg, 3000)
	silence := chunkBytes(cfg, 0)

	// 10 chunks ≈ 0.64s of speech, then enough silence to close the utterance.
	const speechChunks = 10
	for i := 0; i < speechChunks; i++ {
		det.Feed(speech)
	}
	for i := 0; i < 12; i++ {
		det.Feed(silence)
	}

	if len(segments) != 1 {
		t.Fatalf("expected exactly 1 segment, got %d", len(segments))
	}

	dec := wav.NewDecoder(bytes.NewReader(segments[0]))
	dec.ReadInfo()
	if dec.SampleRate != uint32(cfg.SampleRate) || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Fatalf("unexpected wav format: rate=%d chans=%d depth=%d", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}

	pcmBytes := len(segments[0]) - 44 // standard PCM header
	want := speechChunks * cfg.ChunkSamples * 2
	if pcmBytes != want {
		t.Fatalf("segment should exclude trailing silence: got %d pcm bytes, want %d", pcmBytes, want)
	}
}

func TestDetectorDiscardsShortBurstAsNoise(t *testing.T) {
	cfg := testAudioConfig()
	var segments int
	det := NewDetector(cfg, newTestLogger(), func([]byte) { segments++ })

	speech := chunkBytes(cfg, 3000)
	silence := chunkBytes(cfg, 0)

	// 3 chunks ≈ 0.19s, below the 0.5s minimum speech duration.
	for i := 0; i < 3; i++ {
		det.Feed(speech)
	}
	for i := 0; i < 12; i++ {
		det.Feed(silence)
	}

	if segments != 0 {
		t.Fatalf("expected no segment for sub-minimum burst, got %d", segments)
	}
}

func TestDetectorRetainsSilenceLookback(t *testing.T) {
	cfg := testAudioConfig()
	var segments [][]byte
	det := NewDetector(cfg, newTestLogger(), func(wavBytes []byte) {
		segments = append(segments, wavBytes)
	})

	speech := chunkBytes(cfg, 3000)
	silence := chunkBytes(cfg, 0)

	for i := 0; i < 10; i++ {
		det.Feed(speech)
	}
	for i := 0; i < 10; i++ {
		det.Feed(silence)
	}
	// Second utterance starts right after the pause.
	for i := 0; i < 10; i++ {
		det.Feed(speech)
	}

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment so far, got %d", len(segments))
	}

	// The retained silence run plus the new speech is still buffered.
	tail := det.Flush()
	if tail == nil {
		t.Fatal("expected buffered tail after restart of speech")
	}
	wantPCM := (10 + 10) * cfg.ChunkSamples * 2
	if got := len(tail) - 44; got != wantPCM {
		t.Fatalf("expected %d pcm bytes in tail (silence lookback + speech), got %d", wantPCM, got)
	}
}

func TestFlushEmptyReturnsNil(t *testing.T) {
	det := NewDetector(testAudioConfig(), newTestLogger(), func([]byte) {})
	if det.Flush() != nil {
		t.Fatal("expected nil flush with no buffered audio")
	}
}

func TestRMS(t *testing.T) {
	cfg := testAudioConfig()
	if got := RMS(chunkBytes(cfg, 0)); got != 0 {
		t.Fatalf("silence rms should be 0, got %v", got)
	}
	if got := RMS(chunkBytes(cfg, 3000)); got < 2999 || got > 3001 {
		t.Fatalf("square wave rms should be ~3000, got %v", got)
	}
}
