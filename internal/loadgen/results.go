package loadgen

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/masarhr/murshid/internal/domain/model"
)

// waitForBatches polls batch status endpoints until every accepted batch
// reports done, or the poll deadline passes.
func waitForBatches(ctx context.Context, config *Config, batchIDs []string) error {
	log.Printf("waiting for %d batches to finish...", len(batchIDs))

	client := newHTTPClient(config.Timeout)
	deadline := time.Now().Add(BatchPollTimeout)

	pending := make(map[string]struct{}, len(batchIDs))
	for _, id := range batchIDs {
		pending[id] = struct{}{}
	}

	for len(pending) > 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %d batches", len(pending))
		}

		for id := range pending {
			progress, err := pollBatch(ctx, client, config.BaseURL, id)
			if err != nil {
				if config.Verbose {
					log.Printf("batch %s poll failed: %v", id, err)
				}
				continue
			}
			if progress.Done {
				delete(pending, id)
				if config.Verbose {
					log.Printf("batch %s done (succeeded: %d, failed: %d)",
						id, progress.Succeeded, progress.Failed)
				}
			}
		}

		if len(pending) == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for batches: %w", ctx.Err())
		case <-time.After(BatchPollInterval):
		}
	}

	log.Println("all batches finished")
	return nil
}

// pollBatch fetches the progress of one batch.
func pollBatch(ctx context.Context, client *HTTPClient, baseURL, batchID string) (BatchProgress, error) {
	resp, err := client.Get(ctx, baseURL+"/api/v1/batches/"+batchID)
	if err != nil {
		return BatchProgress{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return BatchProgress{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return BatchProgress{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var progress BatchProgress
	if err := unmarshalJSON(body, &progress); err != nil {
		return BatchProgress{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return progress, nil
}

// retrieveResults fetches stored recommendations for all employees
// concurrently.
func retrieveResults(ctx context.Context, config *Config, profiles []model.EmployeeProfile, stats *Stats) ([]StoredResult, error) {
	log.Printf("retrieving results for %d employees with %d workers...", len(profiles), config.Workers)

	client := newHTTPClient(config.Timeout)

	results := make([]StoredResult, len(profiles))
	var (
		retrieved int64
		missing   int64
	)

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					employeeID := profiles[index].EmployeeID
					res, err := retrieveSingleResult(ctx, client, config.BaseURL, employeeID)
					if err != nil {
						atomic.AddInt64(&missing, 1)
						if config.Verbose {
							log.Printf("no result for %s: %v", employeeID, err)
						}
						continue
					}
					results[index] = res
					atomic.AddInt64(&retrieved, 1)
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range profiles {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	valid := make([]StoredResult, 0, len(results))
	for _, r := range results {
		if r.EmployeeID != "" {
			valid = append(valid, r)
		}
	}

	stats.ResultsRetrieved = len(valid)
	stats.ResultsMissing = int(atomic.LoadInt64(&missing))

	log.Printf(`result retrieval completed:
   Retrieved: %d
   Missing: %d
`, stats.ResultsRetrieved, stats.ResultsMissing)

	return valid, nil
}

// retrieveSingleResult fetches the stored recommendations of one employee.
func retrieveSingleResult(ctx context.Context, client *HTTPClient, baseURL, employeeID string) (StoredResult, error) {
	resp, err := client.Get(ctx, baseURL+"/api/v1/recommendations/"+employeeID)
	if err != nil {
		return StoredResult{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return StoredResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return StoredResult{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var res StoredResult
	if err := unmarshalJSON(body, &res); err != nil {
		return StoredResult{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return res, nil
}
