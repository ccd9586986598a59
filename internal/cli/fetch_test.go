package cli

import (
	"testing"
	"time"

	"github.com/vietddude/seqfetch/internal/core/config"
)

func TestApplyFetchFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Overwrite = true

	f := fetchCmd.Flags()
	for name, val := range map[string]string{
		"retries": "0",
		"backoff": "2",
		"timeout": "5s",
	} {
		if err := f.Set(name, val); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	applyFetchFlags(fetchCmd, cfg)

	if cfg.Fetch.RetryCount() != 0 {
		t.Errorf("expected retries 0, got %d", cfg.Fetch.RetryCount())
	}
	if cfg.Fetch.BackoffBase != 2 || cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("unexpected fetch config %+v", cfg.Fetch)
	}
	if !cfg.Output.Overwrite {
		t.Error("unset --overwrite must not override the config file")
	}
	if cfg.Fetch.ItemDelay != config.DefaultItemDelay {
		t.Errorf("unset --item-delay changed the delay to %s", cfg.Fetch.ItemDelay)
	}
}
