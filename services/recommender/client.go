package recommendersvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/evaluation"
)

const apiKeyHeader = "X-API-Key"

var (
	errEmptyRecommendations = errors.New("empty recommendations")

	maxBodySize int64 = 1 << 20
)

// Client requests recommendation text from an HTTP recommendation service.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ evaluation.Recommender = (*Client)(nil) // interface compliance check

func NewClient(conf core.RecommenderConfig) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: conf.ConnectTimeout}).DialContext
	transport.TLSHandshakeTimeout = conf.ConnectTimeout

	return &Client{
		endpoint: conf.Endpoint,
		apiKey:   conf.APIKey,
		model:    conf.Model,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   conf.Timeout,
		},
	}
}

type (
	request struct {
		evaluation.RecommendationRequest
		Model string `json:"model,omitempty"`
	}

	response struct {
		Success         bool   `json:"success"`
		Recommendations string `json:"recommendations"`
		Message         string `json:"message"`
	}
)

func (c *Client) Generate(ctx context.Context, rr evaluation.RecommendationRequest) (string, error) {
	body, err := json.Marshal(request{RecommendationRequest: rr, Model: c.model})
	if err != nil {
		return "", errors.Wrap(err, "encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling recommendation service")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", errors.Wrap(err, "reading response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Errorf("recommendation service error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var res response
	if err = json.Unmarshal(respBody, &res); err != nil {
		return "", errors.Wrap(err, "decoding response")
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "request failed"
		}
		return "", errors.Errorf("recommendation service: %s", msg)
	}

	text := cleanText(res.Recommendations)
	if text == "" {
		return "", errEmptyRecommendations
	}
	return text, nil
}

// cleanText strips the markdown code fence models sometimes wrap their answer in.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], " \t") {
			s = s[i+1:] // language tag
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
