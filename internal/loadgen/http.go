package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"github.com/masarhr/murshid/internal/domain/model"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// batchRequest is the wire payload of one batch submission.
type batchRequest struct {
	BatchID   string                  `json:"batch_id,omitempty"`
	Employees []model.EmployeeProfile `json:"employees"`
	Courses   []model.CourseCandidate `json:"courses"`
	TopK      int                     `json:"top_k,omitempty"`
}

// splitBatches slices the employee list into batch-sized chunks.
func splitBatches(profiles []model.EmployeeProfile, batchSize int) [][]model.EmployeeProfile {
	if batchSize <= 0 {
		batchSize = len(profiles)
	}
	batches := make([][]model.EmployeeProfile, 0, (len(profiles)+batchSize-1)/batchSize)
	for start := 0; start < len(profiles); start += batchSize {
		end := start + batchSize
		if end > len(profiles) {
			end = len(profiles)
		}
		batches = append(batches, profiles[start:end])
	}
	return batches
}

// submitBatches submits all employee batches concurrently using a worker pool
// and returns the accepted batch ids.
func submitBatches(ctx context.Context, config *Config, profiles []model.EmployeeProfile, catalog []model.CourseCandidate, stats *Stats) ([]string, error) {
	batches := splitBatches(profiles, config.BatchSize)
	log.Printf("submitting %d employees in %d batches with %d workers...", len(profiles), len(batches), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/v1/recommendations/batch"

	var (
		queued    int64
		failed    int64
		submitted int64
	)

	batchIDs := make([]string, len(batches))

	batchChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range batchChan {
				select {
				case <-ctx.Done():
					return
				default:
					ack, err := submitSingleBatch(ctx, client, url, batches[index], catalog, config.TopK)
					atomic.AddInt64(&submitted, 1)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("batch %d rejected: %v", index, err)
						}
						continue
					}
					batchIDs[index] = ack.BatchID
					atomic.AddInt64(&queued, int64(ack.Queued))
				}
			}
		}()
	}

	go func() {
		defer close(batchChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case batchChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.BatchesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.JobsQueued = int(atomic.LoadInt64(&queued))
	stats.BatchesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`batch submission completed:
   Batches: %d
   Jobs queued: %d
   Failed: %d
`, stats.BatchesSubmitted, stats.JobsQueued, stats.BatchesFailed)

	accepted := make([]string, 0, len(batchIDs))
	for _, id := range batchIDs {
		if id != "" {
			accepted = append(accepted, id)
		}
	}
	if len(accepted) == 0 {
		return nil, fmt.Errorf("no batch was accepted")
	}
	return accepted, nil
}

// submitSingleBatch posts one batch and parses the 202 acknowledgement.
func submitSingleBatch(ctx context.Context, client *HTTPClient, url string, employees []model.EmployeeProfile, catalog []model.CourseCandidate, topK int) (BatchAck, error) {
	resp, err := client.Post(ctx, url, batchRequest{
		Employees: employees,
		Courses:   catalog,
		TopK:      topK,
	})
	if err != nil {
		return BatchAck{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return BatchAck{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusAccepted {
		return BatchAck{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var ack BatchAck
	if err := unmarshalJSON(body, &ack); err != nil {
		return BatchAck{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return ack, nil
}
