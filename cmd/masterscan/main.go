// Command masterscan measures loudness, true peak and stereo field
// statistics of raw PCM audio and prints a mastering report.
//
// Input is headerless little-endian float32 PCM, interleaved when
// stereo. Use "-" (or no argument) to read from stdin.
//
// Usage:
//
//	masterscan [flags] [file]
//
// Examples:
//
//	masterscan -rate 44100 -channels 2 mix.f32
//	ffmpeg -i mix.wav -f f32le - | masterscan -channels 2
//	masterscan -oversample 4 -spectrum mix.f32
package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-mastering/measure/engine"
)

func main() {
	rate := flag.Float64("rate", 48000, "sample rate of the input in Hz")
	channels := flag.Int("channels", 2, "channel count (1 or 2)")
	blockSize := flag.Int("block", 1024, "processing block size in frames")
	unweighted := flag.Bool("unweighted", false, "measure plain RMS loudness without K-weighting")
	oversample := flag.Int("oversample", 1, "true-peak oversampling factor (1..8)")
	spectrum := flag.Bool("spectrum", false, "print log-spaced band levels")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: masterscan [flags] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Measures loudness, true peak and stereo field of raw float32 PCM.\n")
		fmt.Fprintf(os.Stderr, "Reads stdin when no file is given.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *channels != 1 && *channels != 2 {
		fmt.Fprintf(os.Stderr, "error: channels must be 1 or 2, got %d\n", *channels)
		os.Exit(1)
	}

	in, name, err := openInput(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	e, err := engine.New(
		engine.WithSampleRate(*rate),
		engine.WithBlockSize(*blockSize),
		engine.WithKWeighting(!*unweighted),
		engine.WithTruePeakOversampling(*oversample),
		engine.WithSpectrum(*spectrum),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := scan(e, bufio.NewReaderSize(in, 1<<16), *channels, *blockSize); err != nil {
		fmt.Fprintf(os.Stderr, "error: reading %s: %v\n", name, err)
		os.Exit(1)
	}

	if e.SamplesProcessed() == 0 {
		fmt.Fprintf(os.Stderr, "error: no samples in %s\n", name)
		os.Exit(1)
	}

	printReport(e, name, *rate)

	if *spectrum {
		printSpectrum(e, *rate)
	}
}

func openInput(arg string) (io.ReadCloser, string, error) {
	if arg == "" || arg == "-" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}

	f, err := os.Open(arg)
	if err != nil {
		return nil, "", err
	}

	return f, arg, nil
}

// scan streams interleaved float32 frames through the engine one block
// at a time. A trailing partial frame is reported as corrupt input.
func scan(e *engine.Engine, r io.Reader, channels, blockSize int) error {
	raw := make([]byte, blockSize*channels*4)
	left := make([]float64, blockSize)
	right := make([]float64, blockSize)

	for {
		n, err := io.ReadFull(r, raw)
		if err == io.EOF {
			return nil
		}

		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return err
		}

		if n%(channels*4) != 0 {
			return fmt.Errorf("truncated frame (%d trailing bytes)", n%(channels*4))
		}

		frames := n / (channels * 4)
		for i := 0; i < frames; i++ {
			if channels == 1 {
				left[i] = float64(sampleAt(raw, i))
				continue
			}

			left[i] = float64(sampleAt(raw, 2*i))
			right[i] = float64(sampleAt(raw, 2*i+1))
		}

		if channels == 1 {
			e.ProcessMono(left[:frames])
		} else {
			e.ProcessBlock(left[:frames], right[:frames])
		}

		if err != nil {
			return nil
		}
	}
}

func sampleAt(raw []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
}

func printReport(e *engine.Engine, name string, rate float64) {
	s := e.Snapshot()
	seconds := float64(e.SamplesProcessed()) / rate

	weighting := "K-weighted (BS.1770)"
	if !s.Weighted {
		weighting = "unweighted RMS"
	}

	fmt.Printf("%s: %.1f s at %.0f Hz, %s\n\n", name, seconds, rate, weighting)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Momentary\t%s\n", lufs(s.Momentary))
	fmt.Fprintf(tw, "Short-term\t%s\n", lufs(s.ShortTerm))
	fmt.Fprintf(tw, "Integrated\t%s\n", lufs(s.Integrated))
	fmt.Fprintf(tw, "Loudness range\t%s\n", lra(s))
	fmt.Fprintf(tw, "True peak\t%s\n", db(s.TruePeakDB, "dBFS"))
	fmt.Fprintf(tw, "Correlation\t%+.2f\n", s.Stereo.Correlation)
	fmt.Fprintf(tw, "Balance\t%+.2f\n", s.Stereo.Balance)
	fmt.Fprintf(tw, "Width\t%.2f\n", s.Stereo.Width)

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func printSpectrum(e *engine.Engine, rate float64) {
	levels, err := e.SpectrumBands()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	nyquist := rate / 2
	ratio := math.Pow(nyquist/20, 1/float64(len(levels)))

	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Band [Hz]\tLevel [dB]\n")

	for i, l := range levels {
		lo := 20 * math.Pow(ratio, float64(i))
		fmt.Fprintf(tw, "%.0f - %.0f\t%.1f\n", lo, lo*ratio, l)
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func lufs(v float64) string {
	if math.IsInf(v, -1) {
		return "silence"
	}

	return fmt.Sprintf("%.1f LUFS", v)
}

func lra(s engine.Snapshot) string {
	if !s.LRAValid {
		return "n/a (insufficient history)"
	}

	return fmt.Sprintf("%.1f LU", s.LRA)
}

func db(v float64, unit string) string {
	if math.IsInf(v, -1) {
		return "silence"
	}

	return fmt.Sprintf("%.1f %s", v, unit)
}
