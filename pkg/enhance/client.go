package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

// SubmitInput is the payload sent to the remote queue for one enhancement.
type SubmitInput struct {
	ImageURL string            `json:"image_url"`
	Params   map[string]string `json:"params,omitempty"`
}

// RemoteStatus is one observation of a remote job, carrying the raw HTTP
// status alongside whatever the body yielded. Classification of the
// observation is the poll handler's business, not the client's: the client
// only errors on transport failures, never on HTTP status codes.
type RemoteStatus struct {
	HTTPStatus   int
	Status       string // remote vocabulary: IN_QUEUE, IN_PROGRESS, FAILED, or empty
	OutputURL    string // extracted output, empty if the body carried none
	ErrorMessage string
}

// Remote status vocabulary.
const (
	RemoteInQueue    = "IN_QUEUE"
	RemoteInProgress = "IN_PROGRESS"
	RemoteFailed     = "FAILED"
)

// QueueClient talks to the remote enhancement queue.
type QueueClient interface {
	// Submit enqueues an enhancement and returns the remote request id.
	Submit(ctx context.Context, modelID string, input SubmitInput) (requestID string, err error)

	// Status fetches one observation of a submitted request.
	Status(ctx context.Context, modelID, requestID string) (*RemoteStatus, error)
}

const httpTimeout = 30 * time.Second

// HTTPQueueClient implements QueueClient over the queue's HTTPS API.
type HTTPQueueClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPQueueClient creates a client for the queue at baseURL,
// authenticating with apiKey.
func NewHTTPQueueClient(baseURL, apiKey string) *HTTPQueueClient {
	return &HTTPQueueClient{
		http:    &http.Client{Timeout: httpTimeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Submit enqueues an enhancement request.
func (c *HTTPQueueClient) Submit(ctx context.Context, modelID string, input SubmitInput) (string, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode submit payload")
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "build submit request")
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeTransientRemote, err, "submit to %s", modelID)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Wrap(errors.ErrCodePermanentRemote,
			&errors.RemoteStatusError{StatusCode: resp.StatusCode}, "submit to %s", modelID)
	}

	var out struct {
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(errors.ErrCodePermanentRemote, err, "decode submit response")
	}
	if out.RequestID == "" {
		return "", errors.New(errors.ErrCodePermanentRemote, "submit response carried no request id")
	}
	return out.RequestID, nil
}

// Status fetches the current remote observation for a request. Non-2xx
// responses come back as a RemoteStatus with an empty body view, not as an
// error; only transport failures error.
func (c *HTTPQueueClient) Status(ctx context.Context, modelID, requestID string) (*RemoteStatus, error) {
	url := fmt.Sprintf("%s/%s/requests/%s/status", c.baseURL, modelID, requestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build status request")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransientRemote, err, "poll %s", requestID)
	}
	defer resp.Body.Close()

	rs := &RemoteStatus{HTTPStatus: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(body) == 0 {
		return rs, nil
	}

	var payload remotePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		// A garbled body on a 2xx is treated like a delayed payload: the
		// caller sees still-processing and retries.
		return rs, nil
	}

	rs.Status = payload.Status
	rs.ErrorMessage = payload.Error
	rs.OutputURL = payload.outputURL()
	return rs, nil
}

func (c *HTTPQueueClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Key "+c.apiKey)
	}
}

type urlField struct {
	URL string `json:"url"`
}

// remotePayload covers every response shape the queue has been observed to
// produce. Which field carries the output URL varies by model generation.
type remotePayload struct {
	Status string     `json:"status"`
	Error  string     `json:"error"`
	Image  *urlField  `json:"image"`
	Output *urlField  `json:"output"`
	Images []urlField `json:"images"`
	URL    string     `json:"url"`
}

// outputURL extracts the output URL from the first recognized shape:
// image.url, output.url, images[0].url, then bare url.
func (p *remotePayload) outputURL() string {
	switch {
	case p.Image != nil && p.Image.URL != "":
		return p.Image.URL
	case p.Output != nil && p.Output.URL != "":
		return p.Output.URL
	case len(p.Images) > 0 && p.Images[0].URL != "":
		return p.Images[0].URL
	default:
		return p.URL
	}
}

var _ QueueClient = (*HTTPQueueClient)(nil)
