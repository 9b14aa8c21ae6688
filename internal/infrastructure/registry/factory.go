package registry

import (
	"fmt"

	domain "github.com/datadik/portal/internal/domain/registry"
	"github.com/datadik/portal/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewFetcher builds the fetcher selected by sync.fetcher. The returned
// close func releases the browser when one was started.
func NewFetcher(cfg config.SyncConfig, logger *zap.Logger) (domain.Fetcher, func(), error) {
	switch cfg.Fetcher {
	case "", "http":
		return NewHTTPFetcher(cfg.UserAgent, cfg.MaxRedirects, WithFetcherLogger(logger)), func() {}, nil
	case "browser":
		f := NewBrowserFetcher(BrowserConfig{
			ExecPath:    cfg.BrowserExecPath,
			UserAgent:   cfg.UserAgent,
			WaitVisible: cfg.BrowserWaitVisible,
			NoSandbox:   true,
			Logger:      logger,
		})
		return f, f.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown sync fetcher %q", cfg.Fetcher)
	}
}
