// Command posauth-smoke exercises the engine end to end against a stub
// backend: repeated login, hydrate, capability check, and logout cycles with
// latency percentiles. It targets a real Redis when one is configured and
// falls back to an embedded miniredis otherwise.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	posauth "github.com/retailcore/posauth"
	"github.com/retailcore/posauth/permission"
)

type stubBackend struct {
	delay time.Duration
}

func (b *stubBackend) Authenticate(ctx context.Context, username, password string) (posauth.AuthResponse, error) {
	b.sleep(ctx)
	if password != "secret" {
		return posauth.AuthResponse{}, posauth.ErrInvalidCredentials
	}
	return posauth.AuthResponse{
		Token:    "tok-" + username,
		Username: username,
		Role:     "CASHIER",
	}, nil
}

func (b *stubBackend) FetchIdentity(ctx context.Context) (posauth.IdentityRecord, error) {
	b.sleep(ctx)
	return posauth.IdentityRecord{ID: 1, Username: "smoke", Roles: []string{"CASHIER"}}, nil
}

func (b *stubBackend) FetchPermissions(ctx context.Context) ([]string, error) {
	b.sleep(ctx)
	return []string{"SALES:CREATE", "REPORTS:VIEW"}, nil
}

func (b *stubBackend) FetchBusinessProfile(ctx context.Context, userID int64) (posauth.BusinessProfile, error) {
	b.sleep(ctx)
	return posauth.BusinessProfile{
		BusinessID: strconv.FormatInt(userID*100, 10),
		Name:       "Smoke Mart",
	}, nil
}

func (b *stubBackend) FetchBinary(ctx context.Context, url string) ([]byte, string, error) {
	b.sleep(ctx)
	return []byte{0x89, 'P', 'N', 'G'}, "image/png", nil
}

func (b *stubBackend) sleep(ctx context.Context) {
	if b.delay <= 0 {
		return
	}
	timer := time.NewTimer(b.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func main() {
	var (
		cycles       = flag.Int("cycles", 10000, "login/hydrate/can/logout cycles to run")
		concurrency  = flag.Int("concurrency", 64, "number of concurrent capability checkers")
		checks       = flag.Int("checks", 200000, "capability checks in the concurrent phase")
		backendDelay = flag.Duration("backend-delay", 0, "artificial backend latency per call")
		redisAddr    = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix       = flag.String("prefix", "posauth", "session key namespace")
	)
	flag.Parse()

	if *cycles <= 0 || *concurrency <= 0 || *checks <= 0 {
		fmt.Fprintln(os.Stderr, "cycles, concurrency, and checks must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := posauth.Config{}
	cfg = defaultedConfig(cfg, *prefix)

	engine, err := posauth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithBackend(&stubBackend{delay: *backendDelay}).
		WithRoleGrants(map[string][]permission.Grant{
			"CASHIER": {{Resource: "SALES", Action: "CREATE"}},
			"MANAGER": {{Resource: "*"}},
		}).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	cycleStats := runCyclePhase(ctx, engine, *cycles)
	checkStats := runCheckPhase(engine, *checks, *concurrency)

	fmt.Println("---- results ----")
	printStats("cycle", cycleStats)
	printStats("can", checkStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("logins=%d logouts=%d denied=%d stale=%d storage_failures=%d\n",
		snap.Counters[posauth.MetricLoginSuccess],
		snap.Counters[posauth.MetricLogout],
		snap.Counters[posauth.MetricAccessDenied],
		snap.Counters[posauth.MetricStaleResultDiscarded],
		snap.Counters[posauth.MetricStorageFailure],
	)
}

func defaultedConfig(cfg posauth.Config, namespace string) posauth.Config {
	cfg.Store.Namespace = namespace
	cfg.Token.RejectExpired = true
	cfg.Token.Leeway = 30 * time.Second
	cfg.Permission.AdminRoles = []string{"ADMIN"}
	cfg.Hydration.LookupTimeout = 10 * time.Second
	cfg.Hydration.RetryAttempts = 1
	cfg.Hydration.RetryBackoff = 50 * time.Millisecond
	cfg.Metrics.Enabled = true
	return cfg
}

func runCyclePhase(ctx context.Context, engine *posauth.Engine, cycles int) phaseStats {
	latencies := make([]time.Duration, 0, cycles)
	var failures int64

	start := time.Now()
	for i := 0; i < cycles; i++ {
		t0 := time.Now()
		if err := engine.Login(ctx, "smoke", "secret"); err != nil {
			failures++
			continue
		}
		if !engine.Can("SALES", "CREATE") {
			failures++
		}
		engine.Logout(ctx)
		latencies = append(latencies, time.Since(t0))
	}
	return computeStats(time.Since(start), latencies, failures)
}

func runCheckPhase(engine *posauth.Engine, checks, concurrency int) phaseStats {
	if err := engine.Login(context.Background(), "smoke", "secret"); err != nil {
		fmt.Fprintf(os.Stderr, "login for check phase failed: %v\n", err)
		os.Exit(1)
	}

	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, checks)
		mu        sync.Mutex
	)

	resources := []string{"SALES", "REPORTS", "INVENTORY"}
	actions := []string{"CREATE", "VIEW", "DELETE"}

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= checks {
					return
				}
				t0 := time.Now()
				engine.Can(resources[r.Intn(len(resources))], actions[r.Intn(len(actions))])
				d := time.Since(t0)

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	engine.Logout(context.Background())
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
