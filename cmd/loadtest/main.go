package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	storev1 "github.com/vladislavdragonenkov/storefront/api/store/v1"
)

type loadMode string

const (
	// modeOrder — новый клиент и заказ на каждый сценарий.
	modeOrder loadMode = "order"
	// modeOrderReplay — то же и повтор CreateOrder с тем же idempotency-key.
	modeOrderReplay loadMode = "order-replay"
	// modeContention — все сценарии выкупают один товар; отказ по остатку не ошибка.
	modeContention loadMode = "contention"
)

type config struct {
	addr        string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	connections int
	timeout     time.Duration
	mode        loadMode
	price       string
	stock       int32
	quantity    int32
	outputPath  string
}

func parseConfig(args []string) (config, error) {
	var (
		cfg       config
		modeValue string
		stock     int
		quantity  int
	)

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.addr, "addr", "localhost:50051", "gRPC target address")
	fs.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	fs.DurationVar(&cfg.duration, "duration", 0, "optional time-based run duration (e.g. 10m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	fs.IntVar(&cfg.connections, "connections", 20, "number of gRPC client connections")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-RPC timeout")
	fs.StringVar(&modeValue, "mode", string(modeOrder), "load mode: order | order-replay | contention")
	fs.StringVar(&cfg.price, "price", "25.50", "unit price of the load test product")
	fs.IntVar(&stock, "stock", 1_000_000, "initial stock of the load test product")
	fs.IntVar(&quantity, "quantity", 1, "units per order")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	mode, err := parseMode(modeValue)
	if err != nil {
		return config{}, err
	}
	cfg.mode = mode

	switch {
	case cfg.duration < 0:
		return config{}, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return config{}, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return config{}, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return config{}, errors.New("concurrency must be > 0")
	case cfg.connections <= 0:
		return config{}, errors.New("connections must be > 0")
	case cfg.timeout <= 0:
		return config{}, errors.New("timeout must be > 0")
	case stock < 0 || stock > 1<<31-1:
		return config{}, errors.New("stock must be between 0 and 2147483647")
	case quantity <= 0 || quantity > 1<<31-1:
		return config{}, errors.New("quantity must be > 0")
	}
	cfg.stock = int32(stock)
	cfg.quantity = int32(quantity)

	cfg.price = strings.TrimSpace(cfg.price)
	price, err := decimal.NewFromString(cfg.price)
	if err != nil || price.IsNegative() {
		return config{}, fmt.Errorf("price must be a non-negative decimal: %q", cfg.price)
	}

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modeOrder, modeOrderReplay, modeContention:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	clients := make([]storev1.StoreServiceClient, 0, cfg.connections)
	for i := 0; i < cfg.connections; i++ {
		conn, dialErr := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if dialErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to create grpc client connection: %v\n", dialErr)
			os.Exit(1)
		}
		defer conn.Close()
		clients = append(clients, storev1.NewStoreServiceClient(conn))
	}

	result, err := execute(context.Background(), clients, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load test failed: %v\n", err)
		os.Exit(1)
	}

	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 || (result.Stock != nil && !result.Stock.Consistent) {
		os.Exit(1)
	}
}

// execute создаёт фикстуры, прогоняет сценарии и собирает отчёт.
func execute(ctx context.Context, clients []storev1.StoreServiceClient, cfg config) (report, error) {
	if len(clients) == 0 {
		return report{}, errors.New("at least one client is required")
	}

	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())

	fx, err := setupFixtures(ctx, clients[0], cfg, runID)
	if err != nil {
		return report{}, err
	}

	r := &runner{cfg: cfg, runID: runID, fx: fx, col: newCollector()}

	jobs := make(chan int, cfg.concurrency*2)
	var wg sync.WaitGroup
	for workerID := 0; workerID < cfg.concurrency; workerID++ {
		wg.Add(1)
		go func(client storev1.StoreServiceClient) {
			defer wg.Done()
			for id := range jobs {
				_ = r.runScenario(client, id)
			}
		}(clients[workerID%len(clients)])
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	result := r.col.buildReport(startedAt, time.Since(startedAt))
	if cfg.mode == modeContention {
		check, err := r.verifyStock(ctx, clients[0])
		if err != nil {
			return result, err
		}
		result.Stock = check
	}
	return result, nil
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}
		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}
