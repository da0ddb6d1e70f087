package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

func syncJob() ports.SyncJob {
	return ports.SyncJob{
		Kind:     domain.KindProject,
		EntityID: "project_1",
		Op:       "rename",
		Payload:  map[string]any{"slug": "new-name"},
	}
}

func TestProcess_DeliversSignedPayload(t *testing.T) {
	var gotSecret string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-Webhook-Secret")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	svc := NewCRMSyncService(srv.URL, "shh", zerolog.Nop())
	if err := svc.Process(context.Background(), syncJob()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if gotSecret != "shh" {
		t.Fatalf("outbound calls carry the shared secret, got %q", gotSecret)
	}
	if gotBody["entity_id"] != "project_1" || gotBody["op"] != "rename" {
		t.Fatalf("payload wrong: %v", gotBody)
	}
}

func TestProcess_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewCRMSyncService(srv.URL, "shh", zerolog.Nop())
	err := svc.Process(context.Background(), syncJob())
	if !errors.Is(err, domain.ErrRetryable) {
		t.Fatalf("5xx must be retryable, got %v", err)
	}
}

func TestProcess_ClientErrorIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	svc := NewCRMSyncService(srv.URL, "shh", zerolog.Nop())
	err := svc.Process(context.Background(), syncJob())
	if err == nil || errors.Is(err, domain.ErrRetryable) {
		t.Fatalf("4xx is a permanent rejection, got %v", err)
	}
}

func TestProcess_NoEndpointConfigured(t *testing.T) {
	svc := NewCRMSyncService("", "shh", zerolog.Nop())
	if err := svc.Process(context.Background(), syncJob()); err != nil {
		t.Fatalf("no endpoint means sync is a no-op, got %v", err)
	}
}

func TestProcess_UnreachableEndpointIsRetryable(t *testing.T) {
	svc := NewCRMSyncService("http://127.0.0.1:1", "shh", zerolog.Nop())
	err := svc.Process(context.Background(), syncJob())
	if !errors.Is(err, domain.ErrRetryable) {
		t.Fatalf("transport failures must be retryable, got %v", err)
	}
}
