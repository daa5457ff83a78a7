// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/guard"
	"github.com/stxworks/osksite/internal/store"
)

// fakeTables emulates the gateway's tabular REST surface with in-memory
// tables and eq-filter support. Enough PostgREST semantics for the services
// under test.
type fakeTables struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
	nextID int

	deletes int // count of DELETE requests actually received

	srv *httptest.Server
}

func newFakeTables(t *testing.T) *fakeTables {
	t.Helper()
	f := &fakeTables{tables: make(map[string][]map[string]any)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeTables) client() *gateway.Client {
	return gateway.New(f.srv.URL, "anon-key")
}

// seed inserts a row directly, bypassing HTTP.
func (f *fakeTables) seed(table string, row map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := "id-" + strconv.Itoa(f.nextID)
	row["id"] = id
	f.tables[table] = append(f.tables[table], row)
	return id
}

func (f *fakeTables) rows(table string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.tables[table]...)
}

func (f *fakeTables) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deletes
}

func matches(row map[string]any, filters map[string]string) bool {
	for col, want := range filters {
		if fmt.Sprint(row[col]) != want {
			return false
		}
	}
	return true
}

func (f *fakeTables) handle(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	if table == r.URL.Path || strings.Contains(table, "/") {
		http.NotFound(w, r)
		return
	}

	filters := make(map[string]string)
	limit := 0
	for key, vals := range r.URL.Query() {
		switch key {
		case "select", "order":
		case "limit":
			limit, _ = strconv.Atoi(vals[0])
		default:
			if strings.HasPrefix(vals[0], "eq.") {
				filters[key] = strings.TrimPrefix(vals[0], "eq.")
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		out := []map[string]any{}
		for _, row := range f.tables[table] {
			if matches(row, filters) {
				out = append(out, row)
				if limit > 0 && len(out) == limit {
					break
				}
			}
		}
		_ = json.NewEncoder(w).Encode(out)

	case http.MethodPost:
		var rows []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, row := range rows {
			f.nextID++
			row["id"] = "id-" + strconv.Itoa(f.nextID)
			f.tables[table] = append(f.tables[table], row)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rows)

	case http.MethodPatch:
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		updated := []map[string]any{}
		for _, row := range f.tables[table] {
			if matches(row, filters) {
				for k, v := range patch {
					row[k] = v
				}
				updated = append(updated, row)
			}
		}
		_ = json.NewEncoder(w).Encode(updated)

	case http.MethodDelete:
		f.deletes++
		kept := f.tables[table][:0]
		for _, row := range f.tables[table] {
			if !matches(row, filters) {
				kept = append(kept, row)
			}
		}
		f.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// testGuard returns a guard with admin@osk.pl full-access and basic@osk.pl
// basic-tier.
func testGuard() *guard.Guard {
	allow := guard.NewAllowlist(
		[]string{"admin@osk.pl", "basic@osk.pl"},
		[]string{"admin@osk.pl"},
	)
	return guard.New(gateway.New("", ""), store.NewMemoryKV(), allow, nil, "", nil)
}

func fullAccessUser() *gateway.User { return &gateway.User{ID: "u1", Email: "admin@osk.pl"} }
func basicUser() *gateway.User      { return &gateway.User{ID: "u2", Email: "basic@osk.pl"} }
