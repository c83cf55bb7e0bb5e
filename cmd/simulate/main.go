package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medbook/clinic-api/internal/booking"
	"github.com/medbook/clinic-api/internal/db"
)

// simulate hammers the public booking endpoints with concurrent fake patients
// to observe slot contention behavior: every slot should be won exactly once,
// losers should see conflicts, never double bookings.

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	DaysAhead   int
	PostgresDSN string
}

type DataPool struct {
	TypeIDs   []uuid.UUID
	DoctorIDs []uuid.UUID
	MultiMode bool
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[minInt(len(latencies)*95/100, len(latencies)-1)]
	return avg, min, max, p50, p95
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	slots   OperationMetrics
	booking OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	log.Printf("config: duration=%s workers=%d days_ahead=%d base_url=%s",
		cfg.Duration, cfg.Workers, cfg.DaysAhead, cfg.APIBaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d appointment types, %d doctors, multi_doctor=%v",
		len(dataPool.TypeIDs), len(dataPool.DoctorIDs), dataPool.MultiMode)

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		DaysAhead:   getInt("SIM_DAYS_AHEAD", 14),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM appointment_types WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("load appointment types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.TypeIDs = append(dataPool.TypeIDs, id)
	}

	rows, err = pool.Query(ctx, `SELECT id FROM doctors WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.DoctorIDs = append(dataPool.DoctorIDs, id)
	}

	err = pool.QueryRow(ctx, `SELECT multi_doctor_mode FROM clinic_settings LIMIT 1`).
		Scan(&dataPool.MultiMode)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if len(dataPool.TypeIDs) == 0 {
		return nil, fmt.Errorf("no appointment types loaded, run the seed first")
	}
	if dataPool.MultiMode && len(dataPool.DoctorIDs) == 0 {
		return nil, fmt.Errorf("multi-doctor mode with no doctors, run the seed first")
	}

	return dataPool, nil
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

	for {
		select {
		case <-ctx.Done():
			return
		default:
			s.tryBooking(ctx, rng)
		}
	}
}

// tryBooking fetches the slot list for a random upcoming date and races for
// one of the offered slots.
func (s *Simulator) tryBooking(ctx context.Context, rng *rand.Rand) {
	date := time.Now().AddDate(0, 0, 1+rng.Intn(s.config.DaysAhead)).Format(booking.DateLayout)

	var doctorID *uuid.UUID
	if s.pool.MultiMode {
		id := s.pool.DoctorIDs[rng.Intn(len(s.pool.DoctorIDs))]
		doctorID = &id
	}

	slots, ok := s.fetchSlots(ctx, date, doctorID)
	if !ok || len(slots) == 0 {
		return
	}

	slot := slots[rng.Intn(len(slots))]
	typeID := s.pool.TypeIDs[rng.Intn(len(s.pool.TypeIDs))]

	payload := map[string]any{
		"name":                gofakeit.Name(),
		"phone":               gofakeit.Phone(),
		"email":               gofakeit.Email(),
		"appointment_type_id": typeID.String(),
		"preferred_date":      date,
		"preferred_time":      slot,
		"language":            []string{"en", "ar", "fr"}[rng.Intn(3)],
	}
	if doctorID != nil {
		payload["doctor_id"] = doctorID.String()
	}
	body, _ := json.Marshal(payload)

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.APIBaseURL+"/api/v1/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusCreated
		conflict = resp.StatusCode == http.StatusConflict
	}

	s.booking.Record(latency, success, conflict)
}

func (s *Simulator) fetchSlots(ctx context.Context, date string, doctorID *uuid.UUID) ([]string, bool) {
	url := s.config.APIBaseURL + "/api/v1/slots?date=" + date
	if doctorID != nil {
		url += "&doctor_id=" + doctorID.String()
	}

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		s.slots.Record(latency, false, false)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.slots.Record(latency, false, false)
		return nil, false
	}

	var parsed struct {
		Slots []string `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		s.slots.Record(latency, false, false)
		return nil, false
	}

	s.slots.Record(latency, true, false)
	return parsed.Slots, true
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Slot lookup", &s.slots)
	printOperationReport("Booking", &s.booking)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
