// Command record captures a microphone recording and stores it so the
// server can transcribe and analyze it. With -out it writes a WAV file
// instead of touching the database.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/spectralab/spectral-server/internal/audio"
	"github.com/spectralab/spectral-server/internal/config"
	"github.com/spectralab/spectral-server/internal/filestore"
)

const targetSampleRate = 16000

func main() {
	var (
		cfgPath = flag.String("config", "config.yaml", "path to config.yaml")
		name    = flag.String("name", "recording", "stored file name")
		outPath = flag.String("out", "", "write a WAV file instead of storing")
	)

	flag.Parse()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	ctxAudio, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		log.Fatalf("init malgo: %v", err)
	}
	defer ctxAudio.Uninit()

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Channels = 1
	cfg.Capture.Format = malgo.FormatS16
	cfg.SampleRate = targetSampleRate

	var (
		mu      sync.Mutex
		samples []float32
	)
	actualSampleRate := int(cfg.SampleRate)
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			floats := make([]float32, 0, len(pInput)/2)
			for i := 0; i+1 < len(pInput); i += 2 {
				v := int16(binary.LittleEndian.Uint16(pInput[i : i+2]))
				floats = append(floats, float32(v)/32768.0)
			}
			if actualSampleRate != targetSampleRate && len(floats) > 0 {
				floats = resampleMonoFloat32(floats, actualSampleRate, targetSampleRate)
			}
			mu.Lock()
			samples = append(samples, floats...)
			mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(ctxAudio.Context, cfg, callbacks)
	if err != nil {
		log.Fatalf("init device: %v", err)
	}
	defer device.Uninit()

	if sr := int(device.SampleRate()); sr > 0 {
		actualSampleRate = sr
	}

	if err := device.Start(); err != nil {
		log.Fatalf("start device: %v", err)
	}

	fmt.Println("recording, press Ctrl+C to stop")
	<-sigCh
	_ = device.Stop()

	mu.Lock()
	clip := &audio.Audio{
		SampleRate:  targetSampleRate,
		NumChannels: 1,
		BitDepth:    16,
		Samples:     toInt16Samples(samples),
	}
	mu.Unlock()

	if len(clip.Samples) == 0 {
		log.Fatal("nothing was recorded")
	}
	fmt.Printf("captured %.2fs of audio\n", clip.Duration())

	if *outPath != "" {
		if err := audio.WriteWAV(*outPath, clip); err != nil {
			log.Fatalf("write wav: %v", err)
		}
		fmt.Printf("wrote %s\n", *outPath)
		return
	}

	wavPath, err := os.CreateTemp("", "record-*.wav")
	if err != nil {
		log.Fatalf("create temp wav: %v", err)
	}
	wavPath.Close()
	defer os.Remove(wavPath.Name())

	if err := audio.WriteWAV(wavPath.Name(), clip); err != nil {
		log.Fatalf("encode wav: %v", err)
	}
	data, err := os.ReadFile(wavPath.Name())
	if err != nil {
		log.Fatalf("read wav: %v", err)
	}

	conf, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	store, err := filestore.Open(conf.DSN())
	if err != nil {
		log.Fatalf("open file store: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := store.Save(ctx, *name, data)
	if err != nil {
		log.Fatalf("store recording: %v", err)
	}
	fmt.Printf("stored file %s\n", id)
}

func toInt16Samples(in []float32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		s := int(math.Round(float64(v) * 32767))
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		out[i] = s
	}
	return out
}

func resampleMonoFloat32(in []float32, inRate, outRate int) []float32 {
	if inRate == outRate || len(in) == 0 {
		out := make([]float32, len(in))
		copy(out, in)
		return out
	}
	ratio := float64(outRate) / float64(inRate)
	outLen := int(math.Round(float64(len(in)) * ratio))
	if outLen <= 0 {
		return nil
	}
	out := make([]float32, outLen)
	for i := 0; i < outLen; i++ {
		x := float64(i) / ratio
		ix := int(math.Floor(x))
		fx := float32(x - float64(ix))
		if ix >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		v0 := in[ix]
		v1 := in[ix+1]
		out[i] = v0 + (v1-v0)*fx
	}
	return out
}
