package geminigen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

type (
	generateRequest struct {
		Contents []content `json:"contents"`
	}

	content struct {
		Parts []part `json:"parts"`
	}

	part struct {
		Text string `json:"text"`
	}

	generateResponse struct {
		Candidates []struct {
			Content content `json:"content"`
		} `json:"candidates"`
	}

	apiError struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
)

type service struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

var _ core.ContentGenerator = (*service)(nil)

// NewService returns a core.ContentGenerator backed by the Gemini REST API.
// Call deadlines are carried by the caller's context.
func NewService(conf *core.Config) core.ContentGenerator {
	return &service{
		apiKey:     conf.Generator.APIKey,
		model:      conf.Generator.Model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

// NewServiceWithBaseURL returns a service pointing at a custom base URL (for testing).
func NewServiceWithBaseURL(conf *core.Config, baseURL string) core.ContentGenerator {
	svc := NewService(conf).(*service)
	svc.baseURL = strings.TrimRight(baseURL, "/")
	return svc
}

func (svc *service) GenerateContent(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", errors.Wrap(err, "marshaling generation request")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", svc.baseURL, svc.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "creating generation request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", svc.apiKey)

	res, err := svc.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", core.ErrGenerationTimeout
		}
		return "", errors.Wrap(err, "executing generation request")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		var apiErr apiError
		if dErr := json.NewDecoder(res.Body).Decode(&apiErr); dErr == nil && apiErr.Error.Message != "" {
			return "", errors.Errorf("generation API: %s (HTTP %d)", apiErr.Error.Message, res.StatusCode)
		}
		return "", errors.Errorf("generation API: HTTP %d", res.StatusCode)
	}

	var genRes generateResponse
	if err = json.NewDecoder(res.Body).Decode(&genRes); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", core.ErrGenerationTimeout
		}
		return "", errors.Wrap(err, "decoding generation response")
	}
	if len(genRes.Candidates) == 0 {
		return "", errors.New("generation API returned no candidates")
	}

	var text strings.Builder
	for _, p := range genRes.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}
