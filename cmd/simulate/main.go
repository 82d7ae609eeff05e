package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/blood-donation-coordination/internal/auth"
	"github.com/hackgods/blood-donation-coordination/internal/config"
	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

type SimConfig struct {
	APIBaseURL    string        `env:"SIM_API_BASE_URL" envDefault:"http://localhost:8080"`
	Duration      time.Duration `env:"SIM_DURATION" envDefault:"30s"`
	Workers       int           `env:"SIM_WORKERS" envDefault:"20"`
	HospitalLimit int           `env:"SIM_HOSPITAL_LIMIT" envDefault:"3"`
	MaxDelta      int           `env:"SIM_MAX_DELTA" envDefault:"3"`
	// Share of adjustments that withdraw stock.
	WithdrawRatio float64 `env:"SIM_WITHDRAW_RATIO" envDefault:"0.6"`
}

type stockKey struct {
	hospital  uuid.UUID
	bloodType domain.BloodType
}

// Ledger tracks accepted deltas per stock row as seen by the clients.
type Ledger struct {
	mu       sync.Mutex
	initial  map[stockKey]int
	accepted map[stockKey]int
}

func (l *Ledger) Accept(k stockKey, delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accepted[k] += delta
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, low, high, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	low = latencies[0]
	high = latencies[len(latencies)-1]
	p50 = latencies[min(len(latencies)*50/100, len(latencies)-1)]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, low, high, p50, p95
}

type Metrics struct {
	Deposit  OperationMetrics
	Withdraw OperationMetrics
}

type hospitalSession struct {
	id    uuid.UUID
	token string
}

type Simulator struct {
	config    SimConfig
	hospitals []hospitalSession
	client    *http.Client
	ledger    *Ledger
	negative  atomic.Int64
	metrics   Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}
	var cfg SimConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d hospitals=%d max_delta=%d withdraw=%.2f",
		cfg.Duration, cfg.Workers, cfg.HospitalLimit, cfg.MaxDelta, cfg.WithdrawRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, baseCfg.PostgresDSN, 2)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	hospitals, err := loadHospitals(ctx, pgPool, cfg.HospitalLimit, baseCfg.JWTSecret)
	if err != nil {
		log.Fatalf("load hospitals: %v", err)
	}

	sim := &Simulator{
		config:    cfg,
		hospitals: hospitals,
		client:    &http.Client{Timeout: 10 * time.Second},
		ledger: &Ledger{
			initial:  map[stockKey]int{},
			accepted: map[stockKey]int{},
		},
	}

	if err := sim.snapshot(ctx, sim.ledger.initial); err != nil {
		log.Fatalf("initial stock: %v", err)
	}

	sim.Run()
	sim.PrintReport()

	if !sim.Verify() {
		log.Fatal("stock invariant violated")
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.MaxDelta <= 0 {
		return fmt.Errorf("SIM_MAX_DELTA must be > 0")
	}
	return nil
}

// loadHospitals picks seeded hospitals and mints an admin token for each.
func loadHospitals(ctx context.Context, pool *pgxpool.Pool, limit int, secret string) ([]hospitalSession, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM hospitals ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query hospitals: %w", err)
	}
	defer rows.Close()

	var out []hospitalSession
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		token, err := auth.IssueToken(domain.Actor{UserID: id, Role: domain.RoleHospitalAdmin}, secret, time.Hour)
		if err != nil {
			return nil, err
		}
		out = append(out, hospitalSession{id: id, token: token})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no hospitals found, run seed first")
	}
	return out, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		h := s.hospitals[rng.Intn(len(s.hospitals))]
		bt := domain.BloodTypes[rng.Intn(len(domain.BloodTypes))]
		delta := rng.Intn(s.config.MaxDelta) + 1
		if rng.Float64() < s.config.WithdrawRatio {
			delta = -delta
		}
		s.doAdjust(h, bt, delta)
	}
}

// doAdjust is not bound to the run deadline so every request gets a known outcome.
func (s *Simulator) doAdjust(h hospitalSession, bt domain.BloodType, delta int) {
	body, _ := json.Marshal(map[string]any{"blood_type": bt, "delta": delta})
	req, err := http.NewRequest(http.MethodPost, s.config.APIBaseURL+"/inventory/adjust", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.token)

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success, conflict := false, false
	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			success = true
			var out struct {
				NewStock int `json:"new_stock"`
			}
			if json.NewDecoder(resp.Body).Decode(&out) == nil && out.NewStock < 0 {
				s.negative.Add(1)
			}
			s.ledger.Accept(stockKey{hospital: h.id, bloodType: bt}, delta)
		case http.StatusConflict:
			conflict = true
		}
	}

	if delta > 0 {
		s.metrics.Deposit.Record(latency, success, conflict)
	} else {
		s.metrics.Withdraw.Record(latency, success, conflict)
	}
}

func (s *Simulator) snapshot(ctx context.Context, into map[stockKey]int) error {
	for _, h := range s.hospitals {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/inventory", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+h.token)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		var entries []struct {
			BloodType    domain.BloodType `json:"blood_type"`
			UnitsInStock int              `json:"units_in_stock"`
		}
		err = json.NewDecoder(resp.Body).Decode(&entries)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("list inventory for %s: status %d", h.id, resp.StatusCode)
		}
		if err != nil {
			return err
		}
		for _, e := range entries {
			into[stockKey{hospital: h.id, bloodType: e.BloodType}] = e.UnitsInStock
		}
	}
	return nil
}

// Verify checks that each final stock equals the initial stock plus every
// accepted delta and that no response ever reported negative stock.
func (s *Simulator) Verify() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	final := map[stockKey]int{}
	if err := s.snapshot(ctx, final); err != nil {
		log.Printf("final stock: %v", err)
		return false
	}

	ok := true
	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()
	for k, got := range final {
		want := s.ledger.initial[k] + s.ledger.accepted[k]
		if got != want {
			log.Printf("MISMATCH hospital=%s blood_type=%s stock=%d expected=%d", k.hospital, k.bloodType, got, want)
			ok = false
		}
		if got < 0 {
			log.Printf("NEGATIVE hospital=%s blood_type=%s stock=%d", k.hospital, k.bloodType, got)
			ok = false
		}
	}
	if n := s.negative.Load(); n > 0 {
		log.Printf("%d responses reported negative stock", n)
		ok = false
	}
	if ok {
		log.Printf("stock invariant holds for %d rows", len(final))
	}
	return ok
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Hospitals: %d\n", len(s.hospitals))
	fmt.Println()

	printOperationReport("Deposit", &s.metrics.Deposit)
	printOperationReport("Withdraw", &s.metrics.Withdraw)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, low, high, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), low.Round(time.Millisecond), high.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}
