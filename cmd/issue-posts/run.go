package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/toothbrush/issue-posts/config"
	"github.com/toothbrush/issue-posts/github"
	"github.com/toothbrush/issue-posts/postdump"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"
)

const cassetteName = "fixtures/issue-posts"

// httpClient is shared by the API client and the asset downloader.  With --with-vcr traffic is
// recorded to, and replayed from, a cassette; call stop when done so it gets saved.
func httpClient(cfg config.Config) (client *http.Client, stop func() error, err error) {
	if !WithVCR {
		return &http.Client{Timeout: cfg.HTTPTimeout}, func() error { return nil }, nil
	}

	// set up VCR recordings.
	opts := &recorder.Options{
		CassetteName:       cassetteName,
		Mode:               recorder.ModeReplayWithNewEpisodes,
		SkipRequestLatency: true,
		RealTransport:      http.DefaultTransport,
	}
	r, err := recorder.NewWithOptions(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("issue-posts: couldn't set up go-vcr recording: %w", err)
	}

	// Add a hook which removes Authorization headers from all requests
	hook := func(i *cassette.Interaction) error {
		delete(i.Request.Headers, "Authorization")
		return nil
	}
	r.AddHook(hook, recorder.AfterCaptureHook)
	r.SetReplayableInteractions(true)

	client = r.GetDefaultClient()
	client.Timeout = cfg.HTTPTimeout
	debugLog("recording HTTP traffic to %s.yaml\n", cassetteName)

	return client, r.Stop, nil
}

// stopRecorder runs stop and reports its failure through *err, unless something already failed.
func stopRecorder(stop func() error, err *error) {
	if stopErr := stop(); stopErr != nil && *err == nil {
		*err = fmt.Errorf("issue-posts: couldn't save HTTP recordings: %w", stopErr)
	}
}

// newPipeline wires the GitHub client, downloader and transformer together for one run that
// writes posts to dataDir and images to assetsDir.
func newPipeline(cfg config.Config, client *http.Client, dataDir, assetsDir string, logger *log.Logger) (*postdump.Pipeline, error) {
	api, err := github.NewClient(cfg.APIBaseURL, cfg.ReadToken, client)
	if err != nil {
		return nil, &config.Error{Field: "GITHUB_API_URL", Reason: "unusable API URL", Err: err}
	}
	if !api.Authenticated() {
		logger.Printf("No token set, making anonymous GitHub requests")
	}

	transformer := &postdump.Transformer{
		PostLabels:        cfg.PostLabels,
		AssetsRoot:        assetsDir,
		ConvertHTMLImages: cfg.ConvertHTMLImages,
		Comments:          postdump.CommentFetcher{API: api},
		Assets:            postdump.NewAssetDownloader(client, cfg.ReadToken, api.BaseURI.Hostname(), cfg.HTTPTimeout),
		Logger:            logger,
	}

	var progress io.Writer = os.Stderr
	if Quiet {
		progress = nil
	}

	return &postdump.Pipeline{
		Repo:        cfg.SourceRepo,
		Labels:      cfg.PostLabels,
		Issues:      api,
		Transformer: transformer,
		DataDir:     dataDir,
		Workers:     cfg.Workers,
		Logger:      logger,
		Progress:    progress,
	}, nil
}

func printSummary(w io.Writer, s postdump.Summary) {
	fmt.Fprintf(w, "%d issues listed, %d posts written, %d failed, %d pruned, %d assets (%s)\n",
		s.Listed, s.Written, s.Failed, s.Pruned, s.Assets, humanize.Bytes(uint64(s.Bytes)))
}
