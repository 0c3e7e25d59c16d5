package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/locate-ticket-service/internal/api/http"
	"github.com/spec-kit/locate-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/locate-ticket-service/internal/auth"
	"github.com/spec-kit/locate-ticket-service/internal/events"
	"github.com/spec-kit/locate-ticket-service/internal/ingest"
	"github.com/spec-kit/locate-ticket-service/internal/observability"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
	"github.com/spec-kit/locate-ticket-service/internal/service"
	"github.com/spec-kit/locate-ticket-service/internal/store"
)

func newTestApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	docs := store.NewMemoryStore()

	ticketRepo := repository.NewTicketRepository(docs)
	keyRepo := repository.NewAPIKeyRepository(docs)
	dispatcher := events.NewInMemoryDispatcher()

	ingestService := service.NewIngestService(service.IngestDependencies{
		Normalizer:      ingest.NewNormalizer(docs, logger, true),
		TicketRepo:      ticketRepo,
		Dispatcher:      dispatcher,
		Logger:          logger,
		Metrics:         metrics,
		DefaultClientID: "default_client",
	})
	queryService := service.NewQueryService(ticketRepo, dispatcher)

	tokens := auth.NewTokenManager("test-secret", 0)
	keyAuth := auth.NewAPIKeyMiddleware(keyRepo, tokens, nil, 0, logger)

	app := fiber.New(fiber.Config{CaseSensitive: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler("test", "dev", nil, metrics),
		Receive: handlers.NewReceiveHandler(ingestService),
		Tickets: handlers.NewTicketsHandler(queryService),
		Session: handlers.NewSessionHandler(tokens),
		KeyAuth: keyAuth,
	})

	seedKey(t, docs, "admin-key", "admin", "", true)
	seedKey(t, docs, "viewer-key", "viewer", "", true)
	seedKey(t, docs, "client-key", "client", "acme", true)
	seedKey(t, docs, "disabled-key", "viewer", "", false)

	return app, docs
}

func seedKey(t *testing.T, docs *store.MemoryStore, key, role, clientID string, active bool) {
	t.Helper()
	doc := store.Document{"role": role, "active": active, "name": "test-" + role}
	if clientID != "" {
		doc["clientId"] = clientID
	}
	if err := docs.MergeWrite(context.Background(), "api_keys", key, doc); err != nil {
		t.Fatalf("seed key %s: %v", key, err)
	}
}

func doRequest(t *testing.T, app *fiber.App, method, path, apiKey, body string) (int, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, payload
}

func TestReceiveAlwaysAcknowledges(t *testing.T) {
	app, _ := newTestApp(t)

	// malformed body on every receive path still yields 200
	for _, path := range []string{"/receive/Ticket", "/receive/Response", "/receive/Message", "/receive/EODAudit", "/receive/SomethingElse"} {
		status, _ := doRequest(t, app, "POST", path, "", "this is not json")
		if status != fiber.StatusOK {
			t.Errorf("%s: expected 200 for malformed body, got %d", path, status)
		}
	}
}

func TestDefensiveGets(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{"/receive", "/receive/Ticket", "/"} {
		status, _ := doRequest(t, app, "GET", path, "", "")
		if status != fiber.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, status)
		}
	}
}

func TestEndToEndClearScenario(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doRequest(t, app, "POST", "/receive/Ticket", "",
		`{"Ticket":{"TicketNumber":"T-100","Status":"Open","Address":"123 Main"}}`)
	if status != fiber.StatusOK {
		t.Fatalf("ticket delivery: %d", status)
	}

	for _, code := range []string{"5", "4", "1"} {
		status, _ := doRequest(t, app, "POST", "/receive/Response", "",
			`{"Response":{"TicketNumber":"T-100","ResponseCode":"`+code+`"}}`)
		if status != fiber.StatusOK {
			t.Fatalf("response delivery %s: %d", code, status)
		}
	}

	status, body := doRequest(t, app, "GET", "/api/tickets/T-100", "viewer-key", "")
	if status != fiber.StatusOK {
		t.Fatalf("read ticket: %d %s", status, body)
	}

	var result struct {
		Data struct {
			Status    string `json:"status"`
			Responses []struct {
				ResponseCode string `json:"response_code"`
			} `json:"responses"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Data.Status != "Clear" {
		t.Errorf("expected Clear, got %s", result.Data.Status)
	}
	if len(result.Data.Responses) != 3 {
		t.Errorf("expected 3 responses, got %d", len(result.Data.Responses))
	}
}

func TestReadPathAuthentication(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doRequest(t, app, "GET", "/api/tickets", "", "")
	if status != fiber.StatusUnauthorized {
		t.Errorf("no key: expected 401, got %d", status)
	}

	status, _ = doRequest(t, app, "GET", "/api/tickets", "no-such-key", "")
	if status != fiber.StatusForbidden {
		t.Errorf("unknown key: expected 403, got %d", status)
	}

	status, _ = doRequest(t, app, "GET", "/api/tickets", "disabled-key", "")
	if status != fiber.StatusForbidden {
		t.Errorf("disabled key: expected 403, got %d", status)
	}

	status, _ = doRequest(t, app, "GET", "/api/tickets", "viewer-key", "")
	if status != fiber.StatusOK {
		t.Errorf("viewer key: expected 200, got %d", status)
	}
}

func TestListTicketsRejectsBadLimit(t *testing.T) {
	app, _ := newTestApp(t)

	for _, limit := range []string{"abc", "0", "-5"} {
		status, _ := doRequest(t, app, "GET", "/api/tickets?limit="+limit, "viewer-key", "")
		if status != fiber.StatusBadRequest {
			t.Errorf("limit=%s: expected 400, got %d", limit, status)
		}
	}

	status, _ := doRequest(t, app, "GET", "/api/tickets?limit=10", "viewer-key", "")
	if status != fiber.StatusOK {
		t.Errorf("limit=10: expected 200, got %d", status)
	}
}

func TestAdminDelete(t *testing.T) {
	app, _ := newTestApp(t)

	doRequest(t, app, "POST", "/receive/Ticket", "", `{"Ticket":{"TicketNumber":"T-del"}}`)

	status, _ := doRequest(t, app, "DELETE", "/api/tickets/T-del", "viewer-key", "")
	if status != fiber.StatusForbidden {
		t.Errorf("viewer delete: expected 403, got %d", status)
	}

	status, _ = doRequest(t, app, "DELETE", "/api/tickets/T-del", "admin-key", "")
	if status != fiber.StatusNoContent {
		t.Errorf("admin delete: expected 204, got %d", status)
	}

	status, _ = doRequest(t, app, "GET", "/api/tickets/T-del", "admin-key", "")
	if status != fiber.StatusNotFound {
		t.Errorf("read after delete: expected 404, got %d", status)
	}
}

func TestClientTenantScoping(t *testing.T) {
	app, _ := newTestApp(t)

	// ingested tickets default to default_client, not acme
	doRequest(t, app, "POST", "/receive/Ticket", "", `{"Ticket":{"TicketNumber":"T-scope"}}`)

	status, body := doRequest(t, app, "GET", "/api/tickets", "client-key", "")
	if status != fiber.StatusOK {
		t.Fatalf("client list: %d", status)
	}
	var result struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 0 {
		t.Errorf("client saw other tenant's tickets: %s", body)
	}

	status, body = doRequest(t, app, "GET", "/api/tickets", "viewer-key", "")
	if status != fiber.StatusOK {
		t.Fatalf("viewer list: %d", status)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 {
		t.Errorf("viewer should see all tickets, got %d", len(result.Data))
	}
}

func TestPerformedToggleEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	doRequest(t, app, "POST", "/receive/Ticket", "", `{"Ticket":{"TicketNumber":"T-tog"}}`)

	status, _ := doRequest(t, app, "POST", "/api/tickets/T-tog/performed", "viewer-key", "")
	if status != fiber.StatusForbidden {
		t.Errorf("viewer toggle: expected 403, got %d", status)
	}

	status, body := doRequest(t, app, "POST", "/api/tickets/T-tog/performed", "client-key", "")
	if status != fiber.StatusOK {
		t.Fatalf("client toggle: %d", status)
	}
	var result struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Data.Status != "Performed" {
		t.Errorf("expected Performed, got %s", result.Data.Status)
	}
}

func TestSessionTokenFlow(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doRequest(t, app, "POST", "/api/session", "viewer-key", "")
	if status != fiber.StatusOK {
		t.Fatalf("session: %d %s", status, body)
	}
	var result struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Data.Token == "" {
		t.Fatal("empty session token")
	}

	req := httptest.NewRequest("GET", "/api/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+result.Data.Token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("bearer request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("bearer auth: expected 200, got %d", resp.StatusCode)
	}
}

func TestMetricsRequiresAdmin(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doRequest(t, app, "GET", "/api/metrics", "viewer-key", "")
	if status != fiber.StatusForbidden {
		t.Errorf("viewer metrics: expected 403, got %d", status)
	}
	status, _ = doRequest(t, app, "GET", "/api/metrics", "admin-key", "")
	if status != fiber.StatusOK {
		t.Errorf("admin metrics: expected 200, got %d", status)
	}
}

func TestReleaseDisplaysAsOpen(t *testing.T) {
	app, _ := newTestApp(t)

	doRequest(t, app, "POST", "/receive/Ticket", "", `{"Ticket":{"TicketNumber":"T-rel","Status":"Release"}}`)

	status, body := doRequest(t, app, "GET", "/api/tickets/T-rel", "viewer-key", "")
	if status != fiber.StatusOK {
		t.Fatalf("read: %d", status)
	}
	var result struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Data.Status != "Open" {
		t.Errorf("Release should display as Open, got %s", result.Data.Status)
	}
}
