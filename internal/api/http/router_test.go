package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/api/http/handlers"
	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/events"
	"github.com/spec-kit/support-insights/internal/llm"
	"github.com/spec-kit/support-insights/internal/observability"
	"github.com/spec-kit/support-insights/internal/service"
	"github.com/spec-kit/support-insights/internal/store"
)

const fixtureCSV = `ticket_id,user,issue,category,timestamp
a,Ann,password reset loops,Login Issue,2024-01-03 10:00:00
b,Bo,card declined,Payment Failed,2024-01-09 10:00:00
c,Cy,crash on launch,App Crash,2024-02-02 10:00:00
d,Di,locked after update,Login Issue,2024-02-20 10:00:00
`

type testEnv struct {
	app       *fiber.App
	dashboard *service.DashboardService
	metrics   *observability.Metrics
}

func newTestEnv(t *testing.T, classifier llm.Classifier, summarizer llm.Summarizer) *testEnv {
	t.Helper()
	table, err := store.ReadCSV(strings.NewReader(fixtureCSV))
	require.NoError(t, err)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	dashboard := service.NewDashboardService(service.DashboardDependencies{
		Table:      table,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	tagging := service.NewTaggingService(service.TaggingDependencies{
		Dashboard:  dashboard,
		Classifier: classifier,
		Summarizer: summarizer,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Retryable:  func(error) bool { return false },
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("support-insights", "test", nil, nil),
		Metrics:   handlers.NewMetricsHandler(metrics),
		Dashboard: handlers.NewDashboardHandler(dashboard),
		Tickets:   handlers.NewTicketsHandler(dashboard, tagging),
		Tagging:   handlers.NewTaggingHandler(tagging),
		Summaries: handlers.NewSummariesHandler(tagging),
	})
	return &testEnv{app: app, dashboard: dashboard, metrics: metrics}
}

func (e *testEnv) do(t *testing.T, method, target, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	return decode(t, raw)["error"].(map[string]any)["code"].(string)
}

func TestHealthLiveAndReady(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	status, _ := env.do(t, "GET", "/health/live", "")
	assert.Equal(t, 200, status)

	status, raw := env.do(t, "GET", "/health/ready", "")
	assert.Equal(t, 200, status)
	deps := decode(t, raw)["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])
}

func TestDashboardEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	status, raw := env.do(t, "GET", "/dashboard", "")
	require.Equal(t, 200, status)
	data := decode(t, raw)["data"].(map[string]any)
	assert.Equal(t, float64(4), data["overview"].(map[string]any)["total_tickets"])
	matrix := data["category_matrix"].(map[string]any)
	assert.Equal(t, []any{"2024-01", "2024-02"}, matrix["periods"])
	assert.Equal(t, []any{"App Crash", "Login Issue", "Payment Failed"}, matrix["columns"])
	assert.Equal(t, float64(2), data["threshold"])

	status, raw = env.do(t, "GET", "/dashboard?categories=", "")
	require.Equal(t, 200, status)
	data = decode(t, raw)["data"].(map[string]any)
	assert.Empty(t, data["category_matrix"].(map[string]any)["periods"])
	assert.Equal(t, float64(0), data["filtered_count"])

	status, raw = env.do(t, "GET", "/dashboard?categories=Nope", "")
	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, raw))

	status, _ = env.do(t, "GET", "/dashboard?threshold=-1", "")
	assert.Equal(t, 400, status)
}

func TestTicketsListAndManualTag(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	status, raw := env.do(t, "GET", "/tickets?categories=Login%20Issue", "")
	require.Equal(t, 200, status)
	items := decode(t, raw)["data"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "d", items[0].(map[string]any)["id"])

	status, raw = env.do(t, "POST", "/tickets/a/tag", `{"tag":"login"}`)
	require.Equal(t, 200, status)
	assert.Equal(t, "login", decode(t, raw)["data"].(map[string]any)["gpt_tag"])

	status, raw = env.do(t, "GET", "/tickets?tags=login", "")
	require.Equal(t, 200, status)
	assert.Len(t, decode(t, raw)["data"].([]any), 1)

	status, raw = env.do(t, "POST", "/tickets/zzz/tag", `{"tag":"login"}`)
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, raw))

	status, _ = env.do(t, "POST", "/tickets/a/tag", `{"tag":""}`)
	assert.Equal(t, 400, status)
}

func TestExportCSVRoundTrips(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	_, err := env.dashboard.Update(func(tbl *store.Table) (*store.Table, error) {
		return tbl.AssignTag("c", "crash")
	})
	require.NoError(t, err)

	status, raw := env.do(t, "GET", "/tickets/export.csv", "")
	require.Equal(t, 200, status)

	table, err := store.ReadCSV(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
	c, ok := table.Get("c")
	require.True(t, ok)
	require.NotNil(t, c.Tag)
	assert.Equal(t, domain.Tag("crash"), *c.Tag)
}

func TestAutoTagEndpoint(t *testing.T) {
	classifier := llm.ClassifierFunc(func(_ context.Context, text string) (string, error) {
		if strings.Contains(text, "card") {
			return "", errors.New("upstream down")
		}
		return "Bug", nil
	})
	env := newTestEnv(t, classifier, nil)

	status, raw := env.do(t, "POST", "/tagging/auto", `{"batch_size":3}`)
	require.Equal(t, 200, status)
	data := decode(t, raw)["data"].(map[string]any)
	assert.Len(t, data["tagged"].([]any), 2)
	assert.Len(t, data["failed"].([]any), 1)
	assert.Len(t, env.dashboard.Table().Tags(), 1)
}

func TestAutoTagDisabledWithoutClassifier(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	status, raw := env.do(t, "POST", "/tagging/auto", "")
	assert.Equal(t, 503, status)
	assert.Equal(t, "FEATURE_DISABLED", errorCode(t, raw))
}

func TestSummariesEndpoint(t *testing.T) {
	summarizer := llm.SummarizerFunc(func(_ context.Context, issues []string) (string, error) {
		return "themes for " + strings.Join(issues, "; "), nil
	})
	env := newTestEnv(t, nil, summarizer)

	status, raw := env.do(t, "POST", "/summaries", `{"categories":["App Crash"],"count":5}`)
	require.Equal(t, 201, status)
	data := decode(t, raw)["data"].(map[string]any)
	assert.Equal(t, "themes for crash on launch", data["text"])
	assert.Equal(t, float64(1), data["issue_count"])

	status, raw = env.do(t, "POST", "/summaries", `{"categories":[]}`)
	require.Equal(t, 201, status)
	assert.Equal(t, "No issues to summarize.", decode(t, raw)["data"].(map[string]any)["text"])

	status, raw = env.do(t, "GET", "/summaries", "")
	require.Equal(t, 200, status)
	assert.Empty(t, decode(t, raw)["data"])
}

func TestUnknownRouteAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	status, raw := env.do(t, "GET", "/nope", "")
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, raw))

	status, raw = env.do(t, "GET", "/metrics", "")
	require.Equal(t, 200, status)
	assert.NotEmpty(t, decode(t, raw)["requests"])
}
