// Package verification asks a Gemini vision model whether a photo shows the
// claimed eco-activity. Results are advisory.
package verification

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"ecotrack/internal/config"
	"ecotrack/internal/models"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

var (
	ErrRateLimited    = errors.New("verification rate limited")
	ErrQuotaExhausted = errors.New("verification quota exhausted")
	ErrUpstream       = errors.New("verification upstream error")
	ErrNotConfigured  = errors.New("verification is not configured")
)

const maxImageSide = 1024

// Result is the model's verdict
type Result struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// SafeDefault lets a submission through when the model gave nothing usable
func SafeDefault() *Result {
	return &Result{
		Match:      true,
		Confidence: 0,
		Reason:     "Verification unavailable, allowed by default.",
	}
}

// ShouldWithhold reports whether the verdict is confident enough to block a submission
func ShouldWithhold(r *Result) bool {
	return r != nil && r.Confidence > 0 && r.Confidence < 0.5
}

var activityDescriptions = map[models.ActivityType]string{
	models.ActivityTreePlantation: "tree planting or plantation activity",
	models.ActivityCleanup:        "cleanup drive or waste collection activity",
	models.ActivityRecycling:      "recycling or waste sorting activity",
	models.ActivityEcoHabit:       "eco-friendly habit such as using reusable items, composting, cycling, or conservation",
}

// Client calls the generateContent endpoint
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	logger     *zap.Logger
}

// NewClient creates a client from configuration
func NewClient(cfg config.VerificationConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Verify sends the image with the activity prompt and interprets the reply
func (c *Client) Verify(ctx context.Context, imageBase64 string, activityType models.ActivityType) (*Result, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	mimeType, data := normalizeImage(imageBase64)
	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt(activityType)},
				{InlineData: &inlineData{MimeType: mimeType, Data: data}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:     1,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1024,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode verification request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, ErrQuotaExhausted
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Verification upstream error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(snippet)))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warn("Undecodable verification response", zap.Error(err))
		return SafeDefault(), nil
	}

	var text string
	if len(decoded.Candidates) > 0 && len(decoded.Candidates[0].Content.Parts) > 0 {
		text = decoded.Candidates[0].Content.Parts[0].Text
	}
	if text == "" {
		return SafeDefault(), nil
	}

	return ParseVerdict(text), nil
}

func prompt(activityType models.ActivityType) string {
	description, ok := activityDescriptions[activityType]
	if !ok {
		description = string(activityType)
	}
	return fmt.Sprintf(`You are an image verification assistant for an environmental volunteering app. Your job is to determine whether an uploaded photo shows evidence of a specific activity type. Be reasonably lenient. The photo doesn't need to be perfect, just clearly related to the activity.

Does this image show evidence of "%s"? Respond with a JSON object containing:
- match: boolean (true if image shows the expected activity)
- confidence: number (confidence score between 0 and 1)
- reason: string (short explanation of your assessment)`, description)
}

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\n(.*?)\\n```")
	bareObject = regexp.MustCompile(`(?s)\{.*\}`)
)

type rawVerdict struct {
	Match      *bool    `json:"match"`
	Confidence *float64 `json:"confidence"`
	Reason     *string  `json:"reason"`
}

// ParseVerdict reads the model text as JSON, then a ```json fence, then the
// outermost braces. Unparseable text yields SafeDefault.
func ParseVerdict(text string) *Result {
	var raw rawVerdict
	parsed := json.Unmarshal([]byte(text), &raw) == nil
	if !parsed {
		if m := fencedJSON.FindStringSubmatch(text); m != nil {
			parsed = json.Unmarshal([]byte(m[1]), &raw) == nil
		}
	}
	if !parsed {
		if m := bareObject.FindString(text); m != "" {
			parsed = json.Unmarshal([]byte(m), &raw) == nil
		}
	}
	if !parsed {
		return SafeDefault()
	}

	result := &Result{Reason: "Unable to verify image"}
	if raw.Match != nil {
		result.Match = *raw.Match
	}
	if raw.Confidence != nil {
		result.Confidence = min(max(*raw.Confidence, 0), 1)
	}
	if raw.Reason != nil && *raw.Reason != "" {
		result.Reason = *raw.Reason
	}
	return result
}

// normalizeImage strips a data URL prefix and shrinks decodable images to fit
// maxImageSide. Anything it cannot decode is passed through as JPEG.
func normalizeImage(imageBase64 string) (mimeType, data string) {
	data = stripDataURL(imageBase64)

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "image/jpeg", data
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "image/jpeg", data
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageSide || bounds.Dy() > maxImageSide {
		img = imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "image/jpeg", data
	}
	return "image/jpeg", base64.StdEncoding.EncodeToString(buf.Bytes())
}

func stripDataURL(s string) string {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		return s[i+1:]
	}
	return s
}

// DecodeImage returns the raw bytes of a base64 image, with or without a
// data URL prefix
func DecodeImage(imageBase64 string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(stripDataURL(imageBase64)))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	return raw, nil
}
