package cli

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feitianbubu/aistudio/proxy"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	common := addCommonFlags(fs)
	addr := fs.String("addr", "", "listen address override (default AISTUDIO_PROXY_ADDR or :8080)")

	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := loadRuntime(common)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !*common.verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := proxy.NewHandler(proxy.NewFetcher(rt.cfg.FetcherConfig(rt.logger)), rt.logger)
	srv := &http.Server{
		Addr:              firstNonEmpty(strings.TrimSpace(*addr), rt.cfg.ProxyAddr),
		Handler:           proxy.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printTitle(stdout, "aistudio proxy")
	printField(stdout, "listening", srv.Addr)
	printField(stdout, "download", "GET /api/download?url=<artifact>")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	rt.logger.Printf("shutting down proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
