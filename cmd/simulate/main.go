package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepmatch/mentor-booking/internal/config"
	"github.com/prepmatch/mentor-booking/internal/db"
)

// The simulator hammers a small set of mentors with concurrent package
// bookings so every worker fights over the same calendar. Conflicts are
// expected output, not failures: the interesting number is how many
// bookings succeed versus how many lose the race cleanly.

type SimConfig struct {
	APIBaseURL     string
	Duration       time.Duration
	Workers        int
	BookingRatio   float64
	AcceptRatio    float64
	ReadRatio      float64
	MentorLimit    int
	CandidateLimit int
	PostgresDSN    string
}

type slotPayload struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type daySlots struct {
	Slots []slotPayload `json:"slots"`
}

type DataPool struct {
	Mentors    []uuid.UUID
	Candidates []uuid.UUID

	mu       sync.RWMutex
	slots    map[uuid.UUID][]slotPayload
	sessions []uuid.UUID
}

func (dp *DataPool) SetSlots(mentorID uuid.UUID, slots []slotPayload) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.slots[mentorID] = slots
}

func (dp *DataPool) TwoSlots(mentorID uuid.UUID, rng *rand.Rand) (slotPayload, slotPayload, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	slots := dp.slots[mentorID]
	if len(slots) < 2 {
		return slotPayload{}, slotPayload{}, false
	}
	i := rng.Intn(len(slots))
	j := rng.Intn(len(slots))
	for j == i {
		j = rng.Intn(len(slots))
	}
	return slots[i], slots[j], true
}

func (dp *DataPool) AddSessions(ids []uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.sessions = append(dp.sessions, ids...)
}

func (dp *DataPool) RandomSession(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.sessions) == 0 {
		return uuid.Nil, false
	}
	return dp.sessions[rng.Intn(len(dp.sessions))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
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
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIdx(len(latencies), 50)]
	p95 = latencies[percentileIdx(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIdx(n, pct int) int {
	idx := n * pct / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking   OperationMetrics
	Accept    OperationMetrics
	SlotRead  OperationMetrics
	StateRead OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f accept=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.AcceptRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d mentors, %d candidates", len(dataPool.Mentors), len(dataPool.Candidates))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	// Prime the slot cache once; bookings race over this shared view so
	// most of them are expected to hit slot_conflict or mentor_busy.
	sim.refreshSlots(ctx)

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:     getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:       getDuration("SIM_DURATION", 30*time.Second),
		Workers:        getInt("SIM_WORKERS", 10),
		BookingRatio:   getFloat("SIM_BOOKING_RATIO", 0.5),
		AcceptRatio:    getFloat("SIM_ACCEPT_RATIO", 0.2),
		ReadRatio:      getFloat("SIM_READ_RATIO", 0.3),
		MentorLimit:    getInt("SIM_MENTOR_LIMIT", 5),
		CandidateLimit: getInt("SIM_CANDIDATE_LIMIT", 500),
		PostgresDSN:    baseCfg.PostgresDSN,
	}

	total := cfg.BookingRatio + cfg.AcceptRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.AcceptRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{slots: make(map[uuid.UUID][]slotPayload)}

	rows, err := pool.Query(ctx, `
		SELECT m.id FROM mentors m
		WHERE EXISTS (
			SELECT 1 FROM availability_windows w
			WHERE w.mentor_id = m.id AND w.active
		)
		LIMIT $1
	`, cfg.MentorLimit)
	if err != nil {
		return nil, fmt.Errorf("load mentors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Mentors = append(dataPool.Mentors, id)
	}

	rows, err = pool.Query(ctx, `
		SELECT id FROM candidates LIMIT $1
	`, cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Candidates = append(dataPool.Candidates, id)
	}

	if len(dataPool.Mentors) == 0 {
		return nil, fmt.Errorf("no mentors with active availability loaded")
	}
	if len(dataPool.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates loaded")
	}

	return dataPool, nil
}

func (s *Simulator) refreshSlots(ctx context.Context) {
	for _, mentorID := range s.pool.Mentors {
		req, _ := http.NewRequestWithContext(ctx, "GET",
			fmt.Sprintf("%s/mentors/%s/slots", s.config.APIBaseURL, mentorID), nil)

		resp, err := s.client.Do(req)
		if err != nil {
			log.Printf("slot refresh for mentor %s: %v", mentorID, err)
			continue
		}

		var days []daySlots
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err := json.Unmarshal(body, &days); err != nil {
			log.Printf("slot refresh decode for mentor %s: %v", mentorID, err)
			continue
		}

		var flat []slotPayload
		for _, d := range days {
			flat = append(flat, d.Slots...)
		}
		s.pool.SetSlots(mentorID, flat)
	}
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
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.AcceptRatio:
				s.doAccept(ctx, rng)
			default:
				if rng.Intn(2) == 0 {
					s.doSlotRead(ctx, rng)
				} else {
					s.doStateRead(ctx, rng)
				}
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	mentorID := s.pool.Mentors[rng.Intn(len(s.pool.Mentors))]
	candidateID := s.pool.Candidates[rng.Intn(len(s.pool.Candidates))]

	slotA, slotB, ok := s.pool.TwoSlots(mentorID, rng)
	if !ok {
		return
	}

	start := time.Now()

	body, _ := json.Marshal(map[string]any{
		"mentor_id":      mentorID.String(),
		"candidate_id":   candidateID.String(),
		"target_profile": "Backend SWE",
		"slot_a":         slotA,
		"slot_b":         slotB,
	})

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
			var bookResp struct {
				Sessions []struct {
					ID uuid.UUID `json:"id"`
				} `json:"sessions"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if json.Unmarshal(bodyBytes, &bookResp) == nil {
				ids := make([]uuid.UUID, 0, len(bookResp.Sessions))
				for _, sess := range bookResp.Sessions {
					if sess.ID != uuid.Nil {
						ids = append(ids, sess.ID)
					}
				}
				s.pool.AddSessions(ids)
			}
		case http.StatusConflict:
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doAccept(ctx context.Context, rng *rand.Rand) {
	sessionID, ok := s.pool.RandomSession(rng)
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/sessions/%s/accept", s.config.APIBaseURL, sessionID), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			success = true
		case http.StatusConflict:
			conflict = true
		}
	}

	s.metrics.Accept.Record(latency, success, conflict)
}

func (s *Simulator) doSlotRead(ctx context.Context, rng *rand.Rand) {
	mentorID := s.pool.Mentors[rng.Intn(len(s.pool.Mentors))]

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/mentors/%s/slots", s.config.APIBaseURL, mentorID), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.SlotRead.Record(latency, success, false)
}

func (s *Simulator) doStateRead(ctx context.Context, rng *rand.Rand) {
	sessionID, ok := s.pool.RandomSession(rng)
	if !ok {
		return
	}

	viewer := "candidate"
	if rng.Intn(2) == 0 {
		viewer = "mentor"
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/sessions/%s/state?viewer=%s", s.config.APIBaseURL, sessionID, viewer), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.StateRead.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Accept", &s.metrics.Accept)
	printOperationReport("Slot Read", &s.metrics.SlotRead)
	printOperationReport("State Read", &s.metrics.StateRead)
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

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
