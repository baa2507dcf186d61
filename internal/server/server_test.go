package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	EventBus "github.com/asaskevich/EventBus"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/scanprice/internal/assistant"
	"github.com/smallbiznis/scanprice/internal/blob/blobtest"
	"github.com/smallbiznis/scanprice/internal/catalog"
	"github.com/smallbiznis/scanprice/internal/clock"
	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/smallbiznis/scanprice/internal/importer"
	"github.com/smallbiznis/scanprice/internal/notification/liveevents"
	notificationservice "github.com/smallbiznis/scanprice/internal/notification/service"
	"github.com/smallbiznis/scanprice/internal/observability"
	"github.com/smallbiznis/scanprice/internal/pos"
	productdomain "github.com/smallbiznis/scanprice/internal/product/domain"
	productservice "github.com/smallbiznis/scanprice/internal/product/service"
	"github.com/smallbiznis/scanprice/internal/product/store"
	"github.com/smallbiznis/scanprice/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct{}

func (stubGenerator) Describe(ctx context.Context, name string) (string, error) {
	return "Crisp " + name + " picked this morning.", nil
}

func (stubGenerator) StartVideo(ctx context.Context, req assistant.VideoRequest) (assistant.Operation, error) {
	return assistant.Operation{Name: "operations/1", Done: true, VideoURI: "https://video/1.mp4"}, nil
}

func (stubGenerator) PollVideo(ctx context.Context, op assistant.Operation) (assistant.Operation, error) {
	return op, nil
}

type testServer struct {
	engine *gin.Engine
	kv     *blobtest.Memory
	store  *store.Store
	hub    *liveevents.Hub
}

func newTestServer(t *testing.T, opts ...func(*ServerParams)) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		AppName:       "scanprice",
		PublicBaseURL: "https://shop.example/",
		Blob:          config.BlobConfig{Key: "scanprice_products"},
		Notify:        config.NotifyConfig{Interval: time.Hour},
		Assistant:     config.AssistantConfig{Workers: 2, PollInterval: time.Millisecond},
	}
	log := zap.NewNop()
	bus := EventBus.New()
	kv := blobtest.NewMemory()
	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	st := store.New(store.Params{KV: kv, Config: cfg, Log: log, Bus: bus})
	st.Load(context.Background())

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	products := productservice.New(productservice.Params{Store: st, Log: log, Clock: fc, GenID: node})

	hub := liveevents.NewHub()
	center := notificationservice.New(notificationservice.Params{
		Store:  st,
		Bus:    bus,
		Rules:  config.NewStaticRules(config.DefaultRulesConfig()),
		Config: cfg,
		Clock:  fc,
		Log:    log,
		Hub:    hub,
	})
	require.NoError(t, center.Start(context.Background()))
	t.Cleanup(func() { _ = center.Stop(context.Background()) })

	tasks, err := assistant.NewTasks(assistant.Params{Generator: stubGenerator{}, Config: cfg, Clock: fc, Log: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tasks.Close(context.Background()) })

	engine := NewEngine(observability.Config{Environment: "test"}, nil)
	params := ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		ProductSvc:      products,
		NotificationSvc: center,
		LiveEvents:      hub,
		ImportSvc:       importer.NewService(importer.Params{Products: products, Log: log}),
		PosSvc:          pos.NewService(pos.Params{Products: products, Clock: fc, Log: log}),
		CatalogSvc:      catalog.NewService(catalog.Params{Products: products, Config: cfg, Log: log}),
		AssistantTasks:  tasks,
	}
	for _, opt := range opts {
		opt(&params)
	}
	NewServer(params)

	return testServer{engine: engine, kv: kv, store: st, hub: hub}
}

func (ts testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func (ts testServer) createProduct(t *testing.T, body map[string]any) productResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/products", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Data productResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

func TestCreateProduct_AppliesDefaults(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createProduct(t, map[string]any{"name": "Apple", "price": 2.5})

	assert.True(t, strings.HasPrefix(created.ID, "p"))
	assert.Equal(t, int64(productdomain.DefaultStock), created.Stock)
	assert.Empty(t, created.Description)
	assert.True(t, strings.HasPrefix(created.ImageURL, "https://picsum.photos/seed/"))
	assert.Zero(t, created.Scans)
	assert.Zero(t, created.Discount)
	assert.Equal(t, "https://shop.example/#/product/"+created.ID, created.URL)
	assert.Equal(t, productdomain.StatusCold, created.Status)
}

func TestCreateProduct_RejectsMissingName(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/products", map[string]any{"price": 1})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "name", payload.Errors[0].Field)
}

func TestGetProduct_NotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/products/missing", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Type)
}

func TestUpdateProduct_KeepsOmittedFields(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createProduct(t, map[string]any{"name": "Apple", "price": 2.5, "stock": 40})

	rec := ts.do(t, http.MethodPut, "/api/products/"+created.ID, map[string]any{
		"price":              3,
		"discount":           20,
		"discountExpiration": "2025-06-05",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeData[productResponse](t, rec)
	assert.Equal(t, "Apple", updated.Name)
	assert.Equal(t, 3.0, updated.Price)
	assert.Equal(t, int64(40), updated.Stock)
	assert.Equal(t, 20.0, updated.Discount)
	require.NotNil(t, updated.DiscountExpiration)

	rec = ts.do(t, http.MethodPut, "/api/products/"+created.ID, map[string]any{"discountExpiration": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeData[productResponse](t, rec).DiscountExpiration)
}

func TestProductDates_AcceptImportFormats(t *testing.T) {
	ts := newTestServer(t)
	want := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"2025-06-15", "06/15/2025", "June 15, 2025", "45823"} {
		created := ts.createProduct(t, map[string]any{"name": "Apple", "price": 1, "discount": 10, "discountExpiration": raw})
		require.NotNil(t, created.DiscountExpiration, raw)
		assert.True(t, want.Equal(*created.DiscountExpiration), "%s parsed as %s", raw, created.DiscountExpiration)
	}

	created := ts.createProduct(t, map[string]any{"name": "Pear", "price": 1})
	rec := ts.do(t, http.MethodPut, "/api/products/"+created.ID, map[string]any{"discountExpiration": "June 15, 2025"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData[productResponse](t, rec)
	require.NotNil(t, updated.DiscountExpiration)
	assert.True(t, want.Equal(*updated.DiscountExpiration))

	rec = ts.do(t, http.MethodPost, "/api/products", map[string]any{"name": "Plum", "price": 1, "discountExpiration": "not a date"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "discountExpiration", decodeError(t, rec).Errors[0].Field)

	rec = ts.do(t, http.MethodPut, "/api/products/"+created.ID, map[string]any{"discountExpiration": "not a date"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "discountExpiration", decodeError(t, rec).Errors[0].Field)
}

func TestScanAndDecrement(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createProduct(t, map[string]any{"name": "Apple", "price": 1, "stock": 5})

	rec := ts.do(t, http.MethodPost, "/api/products/"+created.ID+"/scan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	scanned := decodeData[productResponse](t, rec)
	assert.Equal(t, int64(1), scanned.Scans)
	require.NotNil(t, scanned.LastScanned)

	rec = ts.do(t, http.MethodPost, "/api/products/"+created.ID+"/decrement", map[string]any{"quantity": 8})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decodeData[productResponse](t, rec).Stock)

	rec = ts.do(t, http.MethodPost, "/api/products/"+created.ID+"/decrement", map[string]any{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/products/missing/scan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkScanSalesAndBatch(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createProduct(t, map[string]any{"name": "Apple", "price": 1})
	b := ts.createProduct(t, map[string]any{"name": "Pear", "price": 1})

	rec := ts.do(t, http.MethodPost, "/api/products/scans", map[string]any{"ids": []string{a.ID, b.ID, a.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/sales", map[string]any{"entries": []map[string]any{
		{"productId": a.ID, "quantity": 4},
		{"productId": "ghost", "quantity": 9},
	}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/products/batch", map[string]any{"rows": []map[string]any{
		{"id": b.ID, "name": "Pear", "price": 1.2},
		{"id": "X-1", "name": "Fig", "price": 4},
	}})
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeData[[]productdomain.WithStatus](t, rec)
	require.Len(t, items, 3)
	assert.Equal(t, int64(1), items[0].Scans)
	assert.Equal(t, int64(4), items[0].Sales)
	assert.Equal(t, int64(96), items[0].Stock)
	assert.Equal(t, 1.2, items[1].Price)
	assert.Equal(t, int64(1), items[1].Scans)
	assert.Equal(t, "X-1", items[2].ID)

	rec = ts.do(t, http.MethodPost, "/api/products/batch", map[string]any{"rows": []map[string]any{{"id": "", "name": "Nope", "price": 1}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchUpsert_RejectsOutOfRangeRows(t *testing.T) {
	cases := []struct {
		name  string
		row   map[string]any
		field string
	}{
		{name: "discount above 100", row: map[string]any{"discount": 150}, field: "discount"},
		{name: "negative discount", row: map[string]any{"discount": -5}, field: "discount"},
		{name: "negative sales", row: map[string]any{"sales": -1}, field: "sales"},
		{name: "negative stock", row: map[string]any{"stock": -1}, field: "stock"},
		{name: "negative price", row: map[string]any{"price": -2}, field: "price"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			row := map[string]any{"id": "X-1", "name": "Fig", "price": 4}
			for k, v := range tc.row {
				row[k] = v
			}

			rec := ts.do(t, http.MethodPost, "/api/products/batch", map[string]any{"rows": []map[string]any{row}})
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			payload := decodeError(t, rec)
			assert.Equal(t, "validation_error", payload.Type)
			require.Len(t, payload.Errors, 1)
			assert.Equal(t, tc.field, payload.Errors[0].Field)
			assert.Empty(t, ts.store.Snapshot())
		})
	}
}

func TestDeleteProduct(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createProduct(t, map[string]any{"name": "Apple", "price": 1})

	rec := ts.do(t, http.MethodDelete, "/api/products/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreWriteFailure_MapsToInsufficientStorage(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createProduct(t, map[string]any{"name": "Apple", "price": 1})
	ts.kv.SetFailPuts(errors.New("quota exceeded"))

	rec := ts.do(t, http.MethodPost, "/api/products/"+created.ID+"/scan", nil)

	require.Equal(t, http.StatusInsufficientStorage, rec.Code)
	assert.Equal(t, "store_write_failed", decodeError(t, rec).Type)

	rec = ts.do(t, http.MethodGet, "/api/products/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decodeData[productResponse](t, rec).Scans)
}

func TestNotifications_ListAndDismiss(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createProduct(t, map[string]any{"name": "Apple", "price": 1, "stock": 3})

	rec := ts.do(t, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeData[[]map[string]any](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "low-stock-"+created.ID, items[0]["id"])
	assert.Equal(t, "Low stock for Apple! (3 units left)", items[0]["message"])

	rec = ts.do(t, http.MethodDelete, "/api/notifications/low-stock-"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/notifications/low-stock-"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"activeProducts":1`)
}

// lockedRecorder lets the test read the body while the stream is open.
type lockedRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *lockedRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(b)
}

func (r *lockedRecorder) WriteString(s string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.WriteString(s)
}

func (r *lockedRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func TestStreamNotifications_SendsSnapshotAndChanges(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/notifications/stream", nil).WithContext(ctx)
	rec := &lockedRecorder{ResponseRecorder: httptest.NewRecorder()}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ts.engine.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool { return ts.hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, ts.store.Replace(context.Background(), []productdomain.Product{{ID: "p1", Name: "Apple", Stock: 2}}))
	require.Eventually(t, func() bool {
		return strings.Contains(rec.body(), "event: created\n")
	}, time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()

	body := rec.body()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: snapshot\ndata: []")
	assert.Contains(t, body, `"id":"low-stock-p1"`)
	assert.Equal(t, 0, ts.hub.Subscribers())
}

func TestImportProducts_Multipart(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("product_id,name,price,stock\nA1,Apple,2,5\nA2,Pear,oops,1\nA3,Fig,3,\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeData[importer.Summary](t, rec)
	assert.Equal(t, importer.Summary{Accepted: 2, Skipped: 1}, summary)
	assert.Len(t, ts.store.Snapshot(), 2)
}

func TestImportProducts_RequiresFile(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/import/products", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file", decodeError(t, rec).Errors[0].Field)
}

func TestPointOfSale_Checkout(t *testing.T) {
	ts := newTestServer(t)
	apple := ts.createProduct(t, map[string]any{"name": "Apple", "price": 2, "stock": 10})

	rec := ts.do(t, http.MethodPost, "/api/pos/carts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cart := decodeData[pos.View](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/pos/carts/"+cart.ID+"/items", map[string]any{"productId": apple.ID, "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6.0, decodeData[pos.View](t, rec).Total)

	rec = ts.do(t, http.MethodPost, "/api/pos/carts/"+cart.ID+"/items", map[string]any{"productId": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/pos/carts/"+cart.ID+"/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/products/"+apple.ID, nil)
	product := decodeData[productResponse](t, rec)
	assert.Equal(t, int64(3), product.Sales)
	assert.Equal(t, int64(7), product.Stock)

	rec = ts.do(t, http.MethodPost, "/api/pos/carts/"+cart.ID+"/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogRoutes(t *testing.T) {
	ts := newTestServer(t)
	apple := ts.createProduct(t, map[string]any{"name": "Apple", "price": 10, "discount": 25})

	rec := ts.do(t, http.MethodGet, "/public/products/"+apple.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeData[catalog.PublicProduct](t, rec)
	assert.Equal(t, 7.5, view.FinalPrice)
	assert.True(t, view.OnPromotion)

	rec = ts.do(t, http.MethodGet, "/api/products/"+apple.ID+"/qr.png?size=128", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = ts.do(t, http.MethodGet, "/api/products/"+apple.ID+"/qr.png?size=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, size := range []string{"10", "63", "4096"} {
		rec = ts.do(t, http.MethodGet, "/api/products/"+apple.ID+"/qr.png?size="+size, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, size)
		payload := decodeError(t, rec)
		assert.Equal(t, "validation_error", payload.Type)
		assert.Equal(t, "size", payload.Errors[0].Field)
	}

	rec = ts.do(t, http.MethodGet, "/api/catalog/qr.zip?size=10", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/products/"+apple.ID+"/qr.png?size=64", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/catalog/qr.zip", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "scanprice-qr-codes.zip")

	rec = ts.do(t, http.MethodGet, "/public/products/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssistant_DescribeTask(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/assistant/descriptions", map[string]any{"subject": "form-1", "name": "Apple"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	task := decodeData[assistant.Task](t, rec)

	require.Eventually(t, func() bool {
		rec := ts.do(t, http.MethodGet, "/api/assistant/tasks/"+task.ID, nil)
		return decodeData[assistant.Task](t, rec).Status == assistant.StatusSucceeded
	}, time.Second, 5*time.Millisecond)

	rec = ts.do(t, http.MethodGet, "/api/assistant/subjects/form-1/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Crisp Apple picked this morning.", decodeData[assistant.Task](t, rec).Result)

	rec = ts.do(t, http.MethodPost, "/api/assistant/descriptions", map[string]any{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/assistant/tasks/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssistant_RateLimited(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ts := newTestServer(t, func(p *ServerParams) {
		p.AssistantLimiter = ratelimit.NewAssistantLimiterWithClient(client, 0.01, 1)
	})

	rec := ts.do(t, http.MethodPost, "/api/assistant/descriptions", map[string]any{"name": "Apple"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = ts.do(t, http.MethodPost, "/api/assistant/descriptions", map[string]any{"name": "Apple"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decodeError(t, rec).Type)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = ts.do(t, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
