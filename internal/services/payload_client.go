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

// PayloadClient talks to the DataProtector release gateway, the service
// that actually decrypts the protected data inside the confidential
// environment and forwards it to the heir. The backend only ever sends the
// opaque protected-data address.
type PayloadClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewPayloadClient(baseURL, apiKey string, log *zap.Logger) *PayloadClient {
	return &PayloadClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type payloadReleaseRequest struct {
	ProtectedData string `json:"protected_data_address"`
	HeirEmail     string `json:"heir_email"`
}

func (c *PayloadClient) Release(ctx context.Context, protectedDataAddress, heirEmail string) error {
	body, err := json.Marshal(payloadReleaseRequest{
		ProtectedData: protectedDataAddress,
		HeirEmail:     heirEmail,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/release", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: payload gateway: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	// 409 means the gateway already released this payload; idempotent.
	if resp.StatusCode == http.StatusConflict {
		c.log.Info("payload already released", zap.String("protected_data", protectedDataAddress))
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: payload gateway returned %d: %s", models.ErrUpstreamUnavailable, resp.StatusCode, string(b))
	}
	return nil
}
