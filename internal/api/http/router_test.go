package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/fieldops/fieldservice/internal/api/http"
	"github.com/fieldops/fieldservice/internal/api/http/handlers"
	"github.com/fieldops/fieldservice/internal/auth"
	"github.com/fieldops/fieldservice/internal/calendar"
	"github.com/fieldops/fieldservice/internal/config"
	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/events"
	"github.com/fieldops/fieldservice/internal/observability"
	"github.com/fieldops/fieldservice/internal/persistence"
	"github.com/fieldops/fieldservice/internal/repository/memstore"
	"github.com/fieldops/fieldservice/internal/route"
	"github.com/fieldops/fieldservice/internal/service"
	"github.com/fieldops/fieldservice/internal/storage"
)

const filesBaseURL = "http://files.test/files"

type harness struct {
	app        *fiber.App
	authSvc    *service.AuthService
	adminToken string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	db := memstore.New()
	store := db.Store()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	objects, err := storage.NewDiskStore(t.TempDir(), filesBaseURL, logger)
	require.NoError(t, err)

	authSvc := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
	}, service.AuthDependencies{UserRepo: store.Users, Logger: logger})
	require.NoError(t, authSvc.EnsureAdmin(context.Background(), "admin@example.com", "admin-password"))

	clients := service.NewClientService(store.Clients)
	catalog := service.NewCatalogService(store.ModuleTypes, store.Modules)
	modules := service.NewModuleService(store.Modules, clients, catalog)
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    store.Tickets,
		ClientService: clients,
		ModuleService: modules,
		Objects:       objects,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	documents := service.NewDocumentService(store.Documents, objects, logger)
	cascade := service.NewCascadeService(service.CascadeDependencies{
		Transactor: db.Transactor(),
		Store:      store,
		Recorder:   metrics,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	session := calendar.NewSession(config.CalendarConfig{}, nil, logger)
	schedule := service.NewScheduleService(service.ScheduleDependencies{
		TicketRepo: store.Tickets,
		Session:    session,
		Links:      route.Builder{},
		Location:   time.UTC,
		Logger:     logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("field-service", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authSvc),
		Clients:        handlers.NewClientsHandler(clients, modules, cascade),
		ModuleTypes:    handlers.NewModuleTypesHandler(catalog),
		Modules:        handlers.NewModulesHandler(modules, cascade),
		Tickets:        handlers.NewTicketsHandler(tickets, 1<<20),
		Documents:      handlers.NewDocumentsHandler(documents, 1<<20),
		Calendar:       handlers.NewCalendarHandler(session, schedule, false, "", logger),
		Routes:         handlers.NewRoutesHandler(schedule),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(store, tickets)),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), store.Users),
		Metrics:        metrics,
	})

	h := &harness{app: app, authSvc: authSvc}
	_, body := h.json(t, fiber.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "admin-password",
	})
	h.adminToken = body["data"].(map[string]any)["token"].(string)
	return h
}

func (h *harness) send(t *testing.T, req *http.Request, token string) (*http.Response, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp, body
}

func (h *harness) json(t *testing.T, method, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return h.send(t, req, token)
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthReportsDisabledDependencies(t *testing.T) {
	h := newHarness(t)

	resp, body := h.json(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])

	resp, body = h.json(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)

	resp, body := h.json(t, fiber.MethodGet, "/api/clients", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	resp, body = h.json(t, fiber.MethodGet, "/api/clients", "not-a-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	h := newHarness(t)
	resp, body := h.json(t, fiber.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "HTTP_ERROR", errorCode(body))
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	h := newHarness(t)
	payload := map[string]string{"name": "Tech", "email": "tech@example.com", "password": "password-1"}

	resp, body := h.json(t, fiber.MethodPost, "/auth/register", "", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	user := data(body)["user"].(map[string]any)
	assert.Equal(t, string(domain.UserRoleTechnician), user["role"])
	assert.NotContains(t, user, "password_hash")

	resp, body = h.json(t, fiber.MethodPost, "/auth/register", "", payload)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(body))

	resp, body = h.json(t, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "tech@example.com", "password": "wrong-pass"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestClientLifecycleWithCascadeDelete(t *testing.T) {
	h := newHarness(t)
	_, body := h.json(t, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name": "Tech", "email": "tech@example.com", "password": "password-1",
	})
	tech := data(body)["token"].(string)

	resp, body := h.json(t, fiber.MethodPost, "/api/clients", tech, map[string]string{"name": "Acme"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	clientID := data(body)["id"].(string)

	resp, body = h.json(t, fiber.MethodPost, "/api/module-types", tech, map[string]string{"name": "Boiler"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	typeID := data(body)["id"].(string)

	resp, body = h.json(t, fiber.MethodPost, "/api/modules", tech, map[string]string{
		"client_id": clientID, "module_type_id": typeID, "serial_number": "SN-1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	moduleID := data(body)["id"].(string)
	assert.Equal(t, "Boiler", data(body)["module_type_name"])

	resp, body = h.json(t, fiber.MethodPost, "/api/tickets", tech, map[string]any{
		"client_id": clientID, "module_id": moduleID, "title": "Leak",
		"latitude": 52.37, "longitude": 4.89,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	ticket := data(body)
	assert.Equal(t, "Acme", ticket["client_name"])
	assert.Equal(t, string(domain.TicketStatusNew), ticket["status"])
	assert.Nil(t, ticket["scheduled_date"])
	ticketID := ticket["id"].(string)

	today := domain.DateOf(time.Now().UTC()).String()
	resp, body = h.json(t, fiber.MethodPost, "/api/tickets/"+ticketID+"/status", tech, map[string]any{
		"status": "SCHEDULED", "scheduled_date": today,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, today, data(body)["scheduled_date"])

	resp, body = h.json(t, fiber.MethodPost, "/api/tickets/"+ticketID+"/status", tech, map[string]any{"status": "SCHEDULED"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	resp, body = h.json(t, fiber.MethodGet, "/api/routes/today", tech, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "ROUTE_TOO_SHORT", errorCode(body))

	resp, body = h.json(t, fiber.MethodGet, "/api/calendar/events", tech, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	evs := data(body)["events"].([]any)
	require.Len(t, evs, 1)
	assert.Equal(t, today, evs[0].(map[string]any)["start"])

	resp, body = h.json(t, fiber.MethodGet, "/api/clients/"+clientID+"/modules", tech, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	resp, body = h.json(t, fiber.MethodGet, "/api/dashboard", tech, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, data(body)["clients"])

	resp, body = h.json(t, fiber.MethodDelete, "/api/clients/"+clientID, tech, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	resp, body = h.json(t, fiber.MethodDelete, "/api/clients/"+clientID, h.adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := data(body)
	assert.Equal(t, string(domain.CascadeFullyDeleted), result["outcome"])
	assert.Equal(t, map[string]any{"tickets": 0.0, "documents": 0.0, "modules": 0.0, "clients": 0.0}, result["remaining"])

	resp, _ = h.json(t, fiber.MethodGet, "/api/clients/"+clientID, tech, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = h.json(t, fiber.MethodGet, "/api/tickets/"+ticketID, tech, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDocumentUploadListDelete(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "Manual"))
	require.NoError(t, w.WriteField("module_type_id", "type-1"))
	part, err := w.CreateFormFile("file", "manual.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/documents", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	resp, body := h.send(t, req, h.adminToken)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	doc := data(body)
	assert.Equal(t, "Manual", doc["name"])
	assert.Equal(t, "type-1", doc["module_type_id"])
	assert.True(t, strings.HasPrefix(doc["file_url"].(string), filesBaseURL+"/documents/module-types/type-1/"))
	assert.EqualValues(t, 8, doc["size_bytes"])

	resp, body = h.json(t, fiber.MethodGet, "/api/documents?module_type_id=type-1", h.adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	resp, _ = h.json(t, fiber.MethodDelete, "/api/documents/"+doc["id"].(string), h.adminToken, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, body = h.json(t, fiber.MethodGet, "/api/documents", h.adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, body["data"])
}

func TestCalendarEndpointsWhenDisabled(t *testing.T) {
	h := newHarness(t)

	resp, body := h.json(t, fiber.MethodGet, "/api/calendar/status", h.adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, data(body)["enabled"])

	resp, body = h.json(t, fiber.MethodGet, "/api/calendar/login", h.adminToken, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "CALENDAR_DISABLED", errorCode(body))

	// the callback is reachable without a bearer token
	resp, body = h.json(t, fiber.MethodGet, "/api/calendar/callback?code=x&state=y", "", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "CALENDAR_DISABLED", errorCode(body))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.json(t, fiber.MethodGet, "/health/live", "", nil)

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "fieldservice_http_requests_total")
}
