// Command client is a small CLI for poking a running server: request a
// transcription for a stored file or run an analysis mode against it.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

func main() {
	var (
		addr   = flag.String("addr", "http://localhost:8080", "server base URL")
		model  = flag.String("model", "", "transcription model (deepgram, whisper, whisper-torgo-1-epoch, allosaurus)")
		mode   = flag.String("mode", "", "analysis mode (simple-info, spectrogram, waveform, vowel-space, transcription, error-rate)")
		fileID = flag.String("file-id", "", "stored file id")
		apiKey = flag.String("api-key", "", "api key forwarded to the model backend")
	)

	flag.Parse()

	if *fileID == "" {
		log.Fatal("-file-id is required")
	}

	client := &http.Client{Timeout: 10 * time.Minute}

	var (
		resp *http.Response
		err  error
	)
	switch {
	case *model != "":
		resp, err = requestTranscription(client, *addr, *model, *fileID, *apiKey)
	case *mode != "":
		resp, err = requestAnalysis(client, *addr, *mode, *fileID)
	default:
		log.Fatal("one of -model or -mode is required")
	}
	if err != nil {
		log.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("server returned %d: %s", resp.StatusCode, body)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}

func requestTranscription(client *http.Client, addr, model, fileID, apiKey string) (*http.Response, error) {
	u := fmt.Sprintf("%s/api/transcription/%s/%s",
		addr, url.PathEscape(model), url.PathEscape(fileID))
	if apiKey != "" {
		u += "/" + url.PathEscape(apiKey)
	}
	return client.Get(u)
}

func requestAnalysis(client *http.Client, addr, mode, fileID string) (*http.Response, error) {
	body, err := json.Marshal(map[string]any{
		"fileState": map[string]any{"id": fileID},
	})
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/signals/modes/%s", addr, url.PathEscape(mode))
	return client.Post(u, "application/json", bytes.NewReader(body))
}
