package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
)

// ============================================================================
// REMOTE API LOADER — {status, data, message} envelope
// ============================================================================
// The endpoint answers with
//   {"status": true, "data": [{...}, ...]}
// or a falsy status with a message. A missing or null data key is an error;
// an empty list is an empty dataset. Records are flattened like JSON files.
// ============================================================================

// APIConfig configures a remote dataset fetch.
type APIConfig struct {
	URL     string
	Timeout time.Duration // default 30s
	Header  http.Header
	Client  *http.Client // optional; overrides Timeout
}

type envelope struct {
	Status  any               `json:"status"`
	Data    *[]map[string]any `json:"data"` // nil when the key is absent or null
	Message string            `json:"message"`
}

// FetchAPI downloads and loads the dataset behind cfg.URL.
func FetchAPI(ctx context.Context, cfg APIConfig, opts ...Option) (*dataset.Dataset, error) {
	log := applyOptions(opts).Logger
	if cfg.URL == "" {
		return nil, fmt.Errorf("api dataset: no URL")
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("api dataset: %w", err)
	}
	for k, vs := range cfg.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.Upstream("dataset api", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Upstream("dataset api", fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.Upstream("dataset api", fmt.Errorf("returned %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, errs.Upstream("dataset api", fmt.Errorf("failed to parse response: %w", err))
	}
	if !truthy(env.Status) {
		msg := env.Message
		if msg == "" {
			msg = "request not successful"
		}
		return nil, errs.Upstream("dataset api", errors.New(msg))
	}
	if env.Data == nil {
		return nil, errs.Upstream("dataset api", errors.New("response has no data"))
	}

	d := fromRecords(*env.Data)
	log.Info("charta: dataset fetched", "url", cfg.URL, "rows", d.Len(), "columns", len(d.Columns()))
	return d, nil
}

// truthy interprets the envelope status: true, a non-zero number, or any
// string other than an explicit failure word.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "false", "error", "fail", "failed", "0":
			return false
		}
		return true
	}
	return false
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
