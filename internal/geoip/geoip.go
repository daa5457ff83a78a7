// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client IPs to ISO country codes for login-attempt
// telemetry, backed by a MaxMind GeoLite2-Country database. A missing or
// unreadable database disables lookups instead of failing the caller.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

var privateCIDRs []*net.IPNet

func init() {
	for _, block := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",
		"fe80::/10",
	} {
		_, cidr, err := net.ParseCIDR(block)
		if err == nil {
			privateCIDRs = append(privateCIDRs, cidr)
		}
	}
}

// Resolver maps IP addresses to country codes. The zero value is disabled;
// use Open.
type Resolver struct {
	mu      sync.RWMutex
	db      *maxminddb.Reader
	path    string
	modTime time.Time
	enabled bool
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open creates a resolver for the database at path. An empty path yields a
// disabled resolver and no error, so deployments without the database keep
// working with blank countries in the telemetry.
func Open(path string) (*Resolver, error) {
	r := &Resolver{path: path}
	if path == "" {
		return r, nil
	}
	if err := r.load(); err != nil {
		return r, err
	}
	return r, nil
}

// load opens or refreshes the database. Caller holds no lock.
func (r *Resolver) load() error {
	info, err := os.Stat(r.path)
	if err != nil {
		r.mu.Lock()
		r.enabled = false
		r.mu.Unlock()
		return fmt.Errorf("geoip database %s: %w", r.path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil && info.ModTime().Equal(r.modTime) {
		return nil
	}

	db, err := maxminddb.Open(r.path)
	if err != nil {
		r.enabled = false
		return fmt.Errorf("open geoip database: %w", err)
	}

	if r.db != nil {
		_ = r.db.Close()
	}
	r.db = db
	r.modTime = info.ModTime()
	r.enabled = true
	return nil
}

// Reload re-opens the database if the file changed on disk. Safe to call
// from a periodic job.
func (r *Resolver) Reload() error {
	if r.path == "" {
		return nil
	}
	return r.load()
}

// Country returns the 2-letter ISO country code for ip, "LOCAL" for private
// and loopback addresses, and "" when the resolver is disabled or the IP is
// invalid or unknown.
func (r *Resolver) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || isPrivate(parsed) {
		return "LOCAL"
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.enabled || r.db == nil {
		return ""
	}

	var rec countryRecord
	if err := r.db.Lookup(parsed, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Enabled reports whether database lookups are available.
func (r *Resolver) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Close releases the database. The resolver is disabled afterwards.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.enabled = false
	return err
}

func isPrivate(ip net.IP) bool {
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
