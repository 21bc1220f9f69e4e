package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"
)

// Counter names published by the chat server.
const (
	ActiveClients     = "ActiveClients"
	ActiveRooms       = "ActiveRooms"
	MessagesPersisted = "MessagesPersisted"
)

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
	Run()
}

// StatsUpdater publishes counters through expvar. Updates flow through a
// buffered channel so callers never block on the expvar map.
type StatsUpdater struct {
	vars       *expvar.Map
	updateChan chan metricsUpdateReq
}

type metricsUpdateReq struct {
	name  string
	delta int64
}

// statsMap returns the process-wide expvar map. expvar panics on duplicate
// registration, so reuse the map if it already exists.
func statsMap() *expvar.Map {
	if v := expvar.Get("workchat-stats"); v != nil {
		return v.(*expvar.Map)
	}
	return expvar.NewMap("workchat-stats")
}

// NewStatsUpdater creates a stats updater and mounts its JSON snapshot
// handler on mux.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		vars:       statsMap(),
		updateChan: make(chan metricsUpdateReq, 512),
	}
	mux.Handle("GET /debug/vars", http.HandlerFunc(su.snapshotHandler))

	startTime := time.Now()
	su.vars.Set("UptimeMs", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))

	return su
}

func (su *StatsUpdater) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	snapshot := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		snapshot[kv.Key] = value
	})

	json.NewEncoder(w).Encode(snapshot)
}

func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, new(expvar.Int))
}

func (su *StatsUpdater) Incr(name string) {
	su.updateChan <- metricsUpdateReq{name: name, delta: 1}
}

func (su *StatsUpdater) Decr(name string) {
	su.updateChan <- metricsUpdateReq{name: name, delta: -1}
}

func (su *StatsUpdater) Run() {
	go func() {
		for req := range su.updateChan {
			su.vars.Add(req.name, req.delta)
		}
	}()
}

func (su *StatsUpdater) Stop() {
	close(su.updateChan)
}
