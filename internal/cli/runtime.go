package cli

import (
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/feitianbubu/aistudio"
	"github.com/feitianbubu/aistudio/config"
	"github.com/feitianbubu/aistudio/logging"
	"github.com/feitianbubu/aistudio/proxy"
)

type commonFlags struct {
	configPath *string
	provider   *string
	outputDir  *string
	lang       *string
	verbose    *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", "", "path to a YAML config file"),
		provider:   fs.String("provider", "", "provider override: zhipu|mock"),
		outputDir:  fs.String("out", "", "output directory override"),
		lang:       fs.String("lang", "", "message language: en|zh"),
		verbose:    fs.Bool("v", false, "log to stderr"),
	}
}

// runtime is everything a command needs, built from config and flags
type runtime struct {
	cfg    *config.Config
	logger *log.Logger
	closer io.Closer
	lang   aistudio.Language
}

func loadRuntime(flags commonFlags) (*runtime, error) {
	cfg, err := config.Load(*flags.configPath)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(*flags.provider); v != "" {
		cfg.Provider = v
	}
	if v := strings.TrimSpace(*flags.outputDir); v != "" {
		cfg.OutputDir = v
	}
	if v := strings.TrimSpace(*flags.lang); v != "" {
		cfg.Lang = v
	}

	logger, closer, err := logging.Setup(cfg.LogDir, *flags.verbose)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		closer: closer,
		lang:   cfg.Language(),
	}, nil
}

func (r *runtime) Close() error {
	return r.closer.Close()
}

func (r *runtime) client() (*aistudio.Client, error) {
	client, err := aistudio.NewClient(r.cfg.ProviderType(), r.cfg.ProviderConfig(), r.cfg.ClientConfig(r.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// retriever goes through a remote proxy when one is configured and fetches
// in-process otherwise
func (r *runtime) retriever() aistudio.Retriever {
	if r.cfg.ProxyURL != "" {
		return proxy.NewClient(r.cfg.ProxyURL, r.cfg.RequestTimeout)
	}
	return proxy.NewFetcher(r.cfg.FetcherConfig(r.logger))
}

func (r *runtime) session(onProgress func(aistudio.MediaKind, int)) (*aistudio.Session, error) {
	client, err := r.client()
	if err != nil {
		return nil, err
	}
	return aistudio.NewSession(client, r.retriever(), &aistudio.SessionConfig{
		Poller:     r.cfg.PollerConfig(r.logger),
		Downloader: r.cfg.DownloaderConfig(r.logger),
		OnProgress: onProgress,
	}), nil
}
