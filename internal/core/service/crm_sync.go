package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

const crmCallTimeout = 10 * time.Second

// CRMSyncService pushes entity changes to the external CRM over HTTP. Every
// call carries a bounded timeout; failures surface as retryable errors so a
// slow collaborator can never hang a request path.
type CRMSyncService struct {
	endpoint string
	secret   string
	client   *http.Client
	logger   zerolog.Logger
}

func NewCRMSyncService(endpoint, secret string, logger zerolog.Logger) *CRMSyncService {
	return &CRMSyncService{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: crmCallTimeout},
		logger:   logger,
	}
}

func (s *CRMSyncService) Process(ctx context.Context, job ports.SyncJob) error {
	if s.endpoint == "" {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"kind":      string(job.Kind),
		"entity_id": job.EntityID,
		"op":        job.Op,
		"payload":   job.Payload,
	})
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, crmCallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", s.secret)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: crm sync: %v", domain.ErrRetryable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: crm sync: status %d", domain.ErrRetryable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("crm sync rejected: status %d", resp.StatusCode)
	}

	s.logger.Debug().
		Str("kind", string(job.Kind)).
		Str("entity_id", job.EntityID).
		Str("op", job.Op).
		Msg("crm sync delivered")
	return nil
}
