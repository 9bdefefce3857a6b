package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// QuotaReport is what the provider's usage-reporting endpoint returns for
// one billing period.
type QuotaReport struct {
	Backend    string `json:"backend"`
	UsedChars  int64  `json:"used_chars"`
	LimitChars int64  `json:"limit_chars"`
}

// Remaining returns how many free characters are left this period.
func (r QuotaReport) Remaining() int64 {
	if r.LimitChars == 0 {
		return 0
	}
	left := r.LimitChars - r.UsedChars
	if left < 0 {
		return 0
	}
	return left
}

// QuotaClient fetches billing-period usage from an online backend's own
// usage-reporting API. It is read-only and only consulted for reporting;
// fallback decisions rely on the locally recorded UsageTracker.
type QuotaClient struct {
	endpoint string
	client   *http.Client
}

// NewQuotaClient creates a client for the given reporting endpoint.
func NewQuotaClient(endpoint string) *QuotaClient {
	return &QuotaClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch retrieves the current report, retrying transient failures with
// exponential backoff for up to ~15 seconds.
func (q *QuotaClient) Fetch(ctx context.Context) (QuotaReport, error) {
	if q.endpoint == "" {
		return QuotaReport{}, fmt.Errorf("no usage-reporting endpoint configured")
	}

	var report QuotaReport
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := q.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			err := fmt.Errorf("usage report: HTTP %d: %s", resp.StatusCode, body)
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return err
			}
			return backoff.Permanent(err)
		}
		return json.NewDecoder(resp.Body).Decode(&report)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return QuotaReport{}, err
	}
	return report, nil
}
