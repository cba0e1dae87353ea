package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	storev1 "github.com/vladislavdragonenkov/storefront/api/store/v1"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/customer"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
	"github.com/vladislavdragonenkov/storefront/internal/service/product"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newStoreClient(t *testing.T) storev1.StoreServiceClient {
	t.Helper()

	listener := bufconn.Listen(1024 * 1024)
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	entry := logger.WithField("component", "loadtest")

	store := memory.NewStore()
	m := metrics.NewStoreMetricsWithRegisterer(prometheus.NewRegistry())
	server := grpc.NewServer()
	storev1.RegisterStoreServiceServer(server, grpcsvc.NewStoreService(
		customer.NewService(store, m, entry),
		product.NewService(store, m, entry),
		order.NewService(store, m, entry),
		store.Idempotency(),
		entry,
	))
	go func() { _ = server.Serve(listener) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return listener.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
	})

	return storev1.NewStoreServiceClient(conn)
}

func testConfig(mode loadMode) config {
	return config{
		total:       20,
		concurrency: 8,
		connections: 1,
		timeout:     5 * time.Second,
		mode:        mode,
		price:       "25.50",
		stock:       1000,
		quantity:    1,
	}
}

func TestParseMode(t *testing.T) {
	for _, value := range []string{"order", " order-replay ", "contention"} {
		_, err := parseMode(value)
		require.NoError(t, err)
	}
	_, err := parseMode("create-pay")
	require.Error(t, err)
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig(nil)
	require.NoError(t, err)
	require.Equal(t, modeOrder, cfg.mode)
	require.Equal(t, 400, cfg.total)
	require.False(t, cfg.totalSet)
	require.Equal(t, int32(1), cfg.quantity)

	cfg, err = parseConfig([]string{"-mode=contention", "-stock=5", "-quantity=2", "-duration=1m", "-total=10", "-price=9.99"})
	require.NoError(t, err)
	require.Equal(t, modeContention, cfg.mode)
	require.Equal(t, int32(5), cfg.stock)
	require.Equal(t, int32(2), cfg.quantity)
	require.Equal(t, time.Minute, cfg.duration)
	require.True(t, cfg.totalSet)
	require.Equal(t, "9.99", cfg.price)

	invalid := [][]string{
		{"-mode=unknown"},
		{"-total=0"},
		{"-duration=1m", "-total=0"},
		{"-concurrency=0"},
		{"-connections=0"},
		{"-timeout=0s"},
		{"-stock=-1"},
		{"-quantity=0"},
		{"-price=abc"},
		{"-price=-1"},
	}
	for _, args := range invalid {
		_, err := parseConfig(args)
		require.Error(t, err, "args %v", args)
	}
}

func TestDispatchJobs(t *testing.T) {
	jobs := make(chan int, 10)
	dispatchJobs(jobs, config{total: 3})

	var got []int
	for id := range jobs {
		got = append(got, id)
	}
	require.Equal(t, []int{0, 1, 2}, got)

	jobs = make(chan int, 100)
	dispatchJobs(jobs, config{duration: 50 * time.Millisecond, total: 5, totalSet: true})
	count := 0
	for range jobs {
		count++
	}
	require.Equal(t, 5, count)
}

func TestCollectorAndReport(t *testing.T) {
	col := newCollector()
	col.record(scenarioMethod, 10*time.Millisecond, codes.OK, true)
	col.record(scenarioMethod, 30*time.Millisecond, codes.Internal, false)
	col.record("CreateOrder", 5*time.Millisecond, codes.FailedPrecondition, true)

	result := col.buildReport(time.Now(), 2*time.Second)
	require.Equal(t, int64(2), result.TotalScenarios)
	require.Equal(t, int64(1), result.SuccessScenarios)
	require.Equal(t, int64(1), result.FailedScenarios)
	require.InDelta(t, 0.5, result.ErrorRate, 1e-9)
	require.InDelta(t, 1.0, result.RPS, 1e-9)
	require.InDelta(t, 20.0, result.ScenarioLatencyMs.Avg, 1e-9)
	require.Equal(t, int64(1), result.Methods["CreateOrder"].Codes[codes.FailedPrecondition.String()])
}

func TestLatencyHelpers(t *testing.T) {
	require.Equal(t, latencySummary{}, buildLatencySummary(nil))
	require.Equal(t, 0.0, percentile(nil, 50))
	require.Equal(t, 7.0, percentile([]float64{7}, 99))
	require.InDelta(t, 2.5, percentile([]float64{1, 2, 3, 4}, 50), 1e-9)

	summary := buildLatencySummary([]float64{3, 1, 2})
	require.Equal(t, 1.0, summary.Min)
	require.Equal(t, 3.0, summary.Max)
	require.Equal(t, 2.0, summary.P50)

	require.Equal(t, 0.0, ratio(1, 0))
	require.Equal(t, "count:3", runTarget(config{total: 3}))
	require.Equal(t, "duration:1s", runTarget(config{duration: time.Second}))
	require.Equal(t, "duration:1s,max-total:3", runTarget(config{duration: time.Second, total: 3, totalSet: true}))
}

func TestWriteJSONReport(t *testing.T) {
	require.Error(t, writeJSONReport(".", report{}))
	require.Error(t, writeJSONReport("../outside.json", report{}))

	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })

	require.NoError(t, writeJSONReport("report.json", report{TotalScenarios: 3}))
	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"total_scenarios": 3`)
}

func TestExecute_OrderMode(t *testing.T) {
	client := newStoreClient(t)
	cfg := testConfig(modeOrder)

	result, err := execute(context.Background(), []storev1.StoreServiceClient{client}, cfg)
	require.NoError(t, err)
	require.Equal(t, int64(20), result.TotalScenarios)
	require.Zero(t, result.FailedScenarios)
	require.Equal(t, int64(20), result.Methods["CreateCustomer"].Success)
	require.Equal(t, int64(20), result.Methods["CreateOrder"].Success)
	require.Nil(t, result.Stock)
}

func TestExecute_OrderReplayMode(t *testing.T) {
	client := newStoreClient(t)
	cfg := testConfig(modeOrderReplay)
	cfg.total = 10

	result, err := execute(context.Background(), []storev1.StoreServiceClient{client}, cfg)
	require.NoError(t, err)
	require.Zero(t, result.FailedScenarios)
	require.Equal(t, int64(20), result.Methods["CreateOrder"].Calls)
}

func TestExecute_ContentionKeepsStockConsistent(t *testing.T) {
	client := newStoreClient(t)
	cfg := testConfig(modeContention)
	cfg.stock = 5

	result, err := execute(context.Background(), []storev1.StoreServiceClient{client}, cfg)
	require.NoError(t, err)
	require.Zero(t, result.FailedScenarios)
	require.NotNil(t, result.Stock)
	require.True(t, result.Stock.Consistent)
	require.Equal(t, int32(0), result.Stock.FinalStock)
	require.Equal(t, int64(5), result.Stock.OrderedUnits)
	require.Equal(t, int64(15), result.Stock.RejectedOrders)

	var out bytes.Buffer
	printReport(&out, result, cfg)
	require.True(t, strings.Contains(out.String(), "consistent=true"))
	require.Contains(t, out.String(), "CreateOrder: calls=20")
}

func TestExecute_NoClients(t *testing.T) {
	_, err := execute(context.Background(), nil, testConfig(modeOrder))
	require.Error(t, err)
}
