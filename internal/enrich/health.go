package enrich

import (
	"errors"
	"sort"
	"strings"
	"time"

	"mediaradar/catalogservice/internal/metrics"
)

const (
	resolverFailureThreshold = 3
	resolverBlockBase        = 2 * time.Minute
	resolverBlockMax         = 15 * time.Minute
)

type resolverHealth struct {
	consecutiveFailures int
	blockedUntil        time.Time
	lastError           string
	lastSuccessAt       time.Time
	lastFailureAt       time.Time
	lastLatency         time.Duration
	totalRequests       int64
	totalFailures       int64
}

// ResolverDiagnostics is the externally visible health snapshot of one
// metadata source.
type ResolverDiagnostics struct {
	Name                string     `json:"name"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	BlockedUntil        *time.Time `json:"blockedUntil,omitempty"`
	LastError           string     `json:"lastError,omitempty"`
	LastSuccessAt       *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *time.Time `json:"lastFailureAt,omitempty"`
	LastLatencyMS       int64      `json:"lastLatencyMs,omitempty"`
	TotalRequests       int64      `json:"totalRequests,omitempty"`
	TotalFailures       int64      `json:"totalFailures,omitempty"`
}

func (s *Service) isResolverBlocked(name string, now time.Time) bool {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	state := s.health[name]
	if state == nil {
		return false
	}
	return !state.blockedUntil.IsZero() && now.Before(state.blockedUntil)
}

func (s *Service) recordResolverResult(name string, err error, latency time.Duration, now time.Time) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	state := s.health[name]
	if state == nil {
		state = &resolverHealth{}
		s.health[name] = state
	}
	state.totalRequests++
	if latency > 0 {
		state.lastLatency = latency
		metrics.ResolverRequestDuration.WithLabelValues(name).Observe(latency.Seconds())
	}

	// A clean miss still proves the source is reachable.
	if err == nil || errors.Is(err, ErrNoMatch) {
		state.consecutiveFailures = 0
		state.blockedUntil = time.Time{}
		state.lastError = ""
		state.lastSuccessAt = now
		status := "ok"
		if err != nil {
			status = "miss"
		}
		metrics.ResolverRequestsTotal.WithLabelValues(name, status).Inc()
		metrics.ResolverAvailable.WithLabelValues(name).Set(1)
		return
	}

	state.consecutiveFailures++
	state.totalFailures++
	state.lastFailureAt = now
	state.lastError = err.Error()
	metrics.ResolverRequestsTotal.WithLabelValues(name, "error").Inc()

	if state.consecutiveFailures >= resolverFailureThreshold {
		state.blockedUntil = now.Add(exponentialBlockDuration(state.consecutiveFailures))
		metrics.ResolverAvailable.WithLabelValues(name).Set(0)
	}
}

// exponentialBlockDuration grows the block window with each failure past
// the threshold: base × 2^(failures − threshold), capped.
func exponentialBlockDuration(consecutiveFailures int) time.Duration {
	exponent := consecutiveFailures - resolverFailureThreshold
	if exponent < 0 {
		exponent = 0
	}
	d := resolverBlockBase
	for i := 0; i < exponent; i++ {
		d *= 2
		if d > resolverBlockMax {
			return resolverBlockMax
		}
	}
	return d
}

func (s *Service) Diagnostics() []ResolverDiagnostics {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	items := make([]ResolverDiagnostics, 0, len(s.resolvers))
	for _, resolver := range s.resolvers {
		name := strings.ToLower(strings.TrimSpace(resolver.Name()))
		item := ResolverDiagnostics{Name: resolver.Name()}
		if state := s.health[name]; state != nil {
			item.ConsecutiveFailures = state.consecutiveFailures
			if !state.blockedUntil.IsZero() {
				blockedUntil := state.blockedUntil
				item.BlockedUntil = &blockedUntil
			}
			item.LastError = state.lastError
			if !state.lastSuccessAt.IsZero() {
				lastSuccessAt := state.lastSuccessAt
				item.LastSuccessAt = &lastSuccessAt
			}
			if !state.lastFailureAt.IsZero() {
				lastFailureAt := state.lastFailureAt
				item.LastFailureAt = &lastFailureAt
			}
			item.LastLatencyMS = state.lastLatency.Milliseconds()
			item.TotalRequests = state.totalRequests
			item.TotalFailures = state.totalFailures
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items
}
