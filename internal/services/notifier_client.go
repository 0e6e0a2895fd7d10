package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/de-inherit/backend/internal/models"
	"go.uber.org/zap"
)

// NotifierClient sends the inheritance-claim email to the heir through the
// transactional mailer. Fire-and-forget from the release dispatcher's
// perspective: failures never roll back the released flag.
type NotifierClient struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
	log        *zap.Logger
}

func NewNotifierClient(baseURL, apiKey, from string, log *zap.Logger) *NotifierClient {
	return &NotifierClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type notifyRequestBody struct {
	From        string `json:"from"`
	HeirEmail   string `json:"heir_email"`
	HeirName    string `json:"heir_name,omitempty"`
	OwnerWallet string `json:"owner_wallet"`
	ClaimURL    string `json:"claim_url"`
}

type notifyResponseBody struct {
	MessageID string `json:"message_id"`
}

func (c *NotifierClient) Notify(ctx context.Context, r NotifyRequest) (string, error) {
	body, err := json.Marshal(notifyRequestBody{
		From:        c.from,
		HeirEmail:   r.HeirEmail,
		HeirName:    r.HeirName,
		OwnerWallet: r.OwnerWallet,
		ClaimURL:    r.ClaimURL,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1/inheritance-notice", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: mailer: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: mailer returned %d: %s", models.ErrUpstreamUnavailable, resp.StatusCode, string(b))
	}

	var result notifyResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode mailer response: %v", models.ErrUpstreamUnavailable, err)
	}

	c.log.Info("heir notification sent",
		zap.String("heir_email", r.HeirEmail),
		zap.String("message_id", result.MessageID),
	)
	return result.MessageID, nil
}
