// Package segment turns a raw PCM chunk stream into discrete utterances
// using energy-based voice-activity detection with hysteresis.
package segment

import (
	"encoding/binary"
	"log/slog"
	"math"
	"time"

	"github.com/typeless-app/typeless-core/internal/config"
)

// Detector buffers incoming chunks and emits a WAV-encoded utterance once
// it observes a sufficiently long trailing pause after speech. It is not
// safe for concurrent use; the capture goroutine owns it exclusively.
type Detector struct {
	cfg       config.AudioConfig
	log       *slog.Logger
	onSegment func(wav []byte)

	buf             [][]byte
	inSpeech        bool
	silenceRun      int
	silenceChunks   int
	minSpeechChunks int
}

func NewDetector(cfg config.AudioConfig, log *slog.Logger, onSegment func(wav []byte)) *Detector {
	chunkDur := time.Duration(cfg.ChunkSamples) * time.Second / time.Duration(cfg.SampleRate)
	return &Detector{
		cfg:             cfg,
		log:             log.With(slog.String("component", "segment-detector")),
		onSegment:       onSegment,
		silenceChunks:   chunksFor(time.Duration(cfg.SilenceDurationMS)*time.Millisecond, chunkDur),
		minSpeechChunks: chunksFor(time.Duration(cfg.MinSpeechDurationMS)*time.Millisecond, chunkDur),
	}
}

func chunksFor(d, chunkDur time.Duration) int {
	if chunkDur <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(d) / float64(chunkDur)))
	if n < 1 {
		n = 1
	}
	return n
}

// Feed consumes one capture chunk. The chunk is copied; callers may reuse
// the backing buffer.
func (d *Detector) Feed(chunk []byte) {
	owned := make([]byte, len(chunk))
	copy(owned, chunk)
	d.buf = append(d.buf, owned)

	if RMS(owned) >= d.cfg.SilenceThreshold {
		d.inSpeech = true
		d.silenceRun = 0
		return
	}

	d.silenceRun++
	if !d.inSpeech || d.silenceRun < d.silenceChunks {
		return
	}
	d.finalize()
}

// finalize closes the current utterance at the start of the trailing
// silence run. The silence chunks seed the next buffer so a slow speech
// onset right after a pause is not lost.
func (d *Detector) finalize() {
	speechChunks := len(d.buf) - d.silenceRun
	if speechChunks >= d.minSpeechChunks {
		pcm := concat(d.buf[:speechChunks])
		wavBytes, err := EncodeWAV(pcm, d.cfg.SampleRate, d.cfg.Channels)
		if err != nil {
			d.log.Warn("failed to encode segment", slog.String("error", err.Error()))
		} else {
			d.onSegment(wavBytes)
		}
		tail := d.buf[speechChunks:]
		d.buf = append([][]byte(nil), tail...)
	} else {
		// Too short to be speech; drop the whole span as noise.
		d.buf = nil
	}
	d.inSpeech = false
	d.silenceRun = 0
}

// Flush returns whatever audio is still buffered as one final WAV segment,
// or nil if nothing is pending. Used on explicit stop, where no natural
// boundary was found, so the emit callback is bypassed.
func (d *Detector) Flush() []byte {
	if len(d.buf) == 0 {
		return nil
	}
	pcm := concat(d.buf)
	d.buf = nil
	d.inSpeech = false
	d.silenceRun = 0

	wavBytes, err := EncodeWAV(pcm, d.cfg.SampleRate, d.cfg.Channels)
	if err != nil {
		d.log.Warn("failed to encode trailing segment", slog.String("error", err.Error()))
		return nil
	}
	return wavBytes
}

func concat(chunks [][]byte) []byte {
	var n int
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// RMS computes the root-mean-square energy of a 16-bit little-endian PCM
// chunk. Odd trailing bytes are ignored.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}
