// Package gemini implements the HTTP client for Google's generative language
// speech API. A single synchronous POST carries the text and generation
// parameters; the response carries base64-encoded PCM audio.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cardvoice/speech-service/internal/core"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultSampleRate is assumed when the response mime type carries no rate.
const DefaultSampleRate = 24000

// HTTP details of the generateContent contract.
const (
	apiPathFormat     = "/v1beta/models/%s:generateContent"
	queryParamKey     = "key"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
	mimeRatePrefix    = "rate="
	responseModality  = "AUDIO"
	maxErrorBodyBytes = 512
)

// Static errors. Callers distinguish failure classes with errors.Is; the
// response status alone decides the class, matching the API's documented
// behavior (400 bad request, 401/403 key problems, 429 quota, 5xx upstream).
var (
	ErrMissingAPIKey     = errors.New("api key is not configured")
	ErrInvalidRequest    = errors.New("invalid request rejected by speech api")
	ErrAuthDenied        = errors.New("api key rejected or access denied")
	ErrRateLimited       = errors.New("speech api rate limit exceeded")
	ErrServerFailure     = errors.New("speech api server failure")
	ErrMalformedResponse = errors.New("malformed speech api response")
	ErrEmptyAudio        = errors.New("speech api returned no audio data")
)

// Request body shapes, mirroring the generateContent JSON contract.
type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature        float64         `json:"temperature"`
	ThinkingConfig     *thinkingConfig `json:"thinkingConfig,omitempty"`
	ResponseModalities []string        `json:"responseModalities"`
	SpeechConfig       speechConfig    `json:"speechConfig"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// Response body shapes. Only the fields the client reads are declared.
type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content candidateContent `json:"content"`
}

type candidateContent struct {
	Parts []candidatePart `json:"parts"`
}

type candidatePart struct {
	InlineData inlineData `json:"inlineData"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Client issues synthesis requests against one API host with one key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a speech API client. baseURL may be empty to use the
// production host; the timeout applies to every request.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize sends one generateContent request and returns the decoded PCM
// payload. The request is not retried; callers decide whether a failure class
// warrants a different model or a user-facing message.
//
// The API key travels as a query parameter per the API contract and is never
// included in returned errors.
func (c *Client) Synthesize(ctx context.Context, req core.SpeechRequest) (core.PCMAudio, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return core.PCMAudio{}, ErrMissingAPIKey
	}

	body, err := c.buildRequestBody(req)
	if err != nil {
		return core.PCMAudio{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := c.buildHTTPRequest(ctx, req.Model, body)
	if err != nil {
		return core.PCMAudio{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.PCMAudio{}, fmt.Errorf("speech api request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return core.PCMAudio{}, classifyStatusError(resp)
	}

	return parseAudioResponse(resp.Body)
}

func (c *Client) buildRequestBody(req core.SpeechRequest) ([]byte, error) {
	config := generationConfig{
		Temperature:        req.Temperature,
		ThinkingConfig:     nil,
		ResponseModalities: []string{responseModality},
		SpeechConfig: speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{
					VoiceName: req.Voice,
				},
			},
		},
	}

	// A zero budget means "no internal reasoning"; the field is omitted
	// entirely rather than sent as zero.
	if req.ThinkingBudget > 0 {
		config.ThinkingConfig = &thinkingConfig{ThinkingBudget: req.ThinkingBudget}
	}

	payload := generateRequest{
		Contents: []requestContent{
			{Parts: []requestPart{{Text: req.Text}}},
		},
		GenerationConfig: config,
	}

	return json.Marshal(payload)
}

func (c *Client) buildHTTPRequest(
	ctx context.Context,
	model string,
	body []byte,
) (*http.Request, error) {
	endpoint := c.baseURL + fmt.Sprintf(apiPathFormat, model)

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set(queryParamKey, c.apiKey)
	httpReq.URL.RawQuery = query.Encode()

	httpReq.Header.Set(headerContentType, contentTypeJSON)

	return httpReq, nil
}

// classifyStatusError maps a non-2xx response to one of the static error
// classes, preserving a truncated body excerpt for diagnostics.
func classifyStatusError(resp *http.Response) error {
	excerpt := readBodyExcerpt(resp.Body)

	var kind error

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		kind = ErrInvalidRequest
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		kind = ErrAuthDenied
	case resp.StatusCode == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case resp.StatusCode >= http.StatusInternalServerError:
		kind = ErrServerFailure
	default:
		kind = ErrInvalidRequest
	}

	if excerpt == "" {
		return fmt.Errorf("%w: status %s", kind, resp.Status)
	}

	return fmt.Errorf("%w: status %s: %s", kind, resp.Status, excerpt)
}

func readBodyExcerpt(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

// parseAudioResponse walks candidates[0].content.parts[0].inlineData and
// decodes the base64 PCM payload.
func parseAudioResponse(body io.Reader) (core.PCMAudio, error) {
	var decoded generateResponse

	err := json.NewDecoder(body).Decode(&decoded)
	if err != nil {
		return core.PCMAudio{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if len(decoded.Candidates) == 0 {
		return core.PCMAudio{}, fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}

	parts := decoded.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return core.PCMAudio{}, fmt.Errorf("%w: no content parts", ErrMalformedResponse)
	}

	inline := parts[0].InlineData
	if inline.Data == "" {
		return core.PCMAudio{}, ErrEmptyAudio
	}

	pcm, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return core.PCMAudio{}, fmt.Errorf("%w: invalid base64 audio: %w", ErrMalformedResponse, err)
	}

	if len(pcm) == 0 {
		return core.PCMAudio{}, ErrEmptyAudio
	}

	return core.PCMAudio{
		Data:       pcm,
		SampleRate: ParseSampleRate(inline.MimeType),
	}, nil
}

// ParseSampleRate extracts the sample rate from a mime type such as
// "audio/L16;rate=24000". It falls back to DefaultSampleRate when the rate
// parameter is absent or unparseable.
func ParseSampleRate(mimeType string) int {
	for _, field := range strings.Split(mimeType, ";") {
		field = strings.TrimSpace(field)
		if !strings.HasPrefix(field, mimeRatePrefix) {
			continue
		}

		rate, err := strconv.Atoi(strings.TrimPrefix(field, mimeRatePrefix))
		if err != nil || rate <= 0 {
			return DefaultSampleRate
		}

		return rate
	}

	return DefaultSampleRate
}
