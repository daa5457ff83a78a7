// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stxworks/osksite/internal/middleware"
)

// authApp wires the auth handler behind session and guard middleware the
// way the router does.
func authApp(t *testing.T) (*fakeBackend, http.Handler) {
	t.Helper()
	backend := newFakeBackend(t)
	gw := backend.client()
	g := testGuard(gw)
	sm := scs.New()

	h := NewAuthHandler(sm, g, gw, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/login", h.Login)
	mux.HandleFunc("POST /admin/logout", h.Logout)
	mux.Handle("GET /admin/session", middleware.RequireAdmin(sm, g)(http.HandlerFunc(h.Session)))

	return backend, sm.LoadAndSave(mux)
}

func postJSON(t *testing.T, app http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func TestLoginSuccess(t *testing.T) {
	_, app := authApp(t)

	w := postJSON(t, app, "/admin/login", `{"email":" Admin@OSK.pl ","password":"correct-horse"}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "admin@osk.pl", body["email"])
	assert.Equal(t, true, body["full_access"])
	require.NotEmpty(t, w.Result().Cookies(), "login must establish a session")
}

func TestLoginWrongPassword(t *testing.T) {
	_, app := authApp(t)

	w := postJSON(t, app, "/admin/login", `{"email":"admin@osk.pl","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Nieprawidłowy email lub hasło")
}

func TestLoginUnlistedEmailGetsGenericError(t *testing.T) {
	_, app := authApp(t)

	w := postJSON(t, app, "/admin/login", `{"email":"stranger@osk.pl","password":"correct-horse"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// Same message as a wrong password so the allowlist never leaks.
	assert.Contains(t, w.Body.String(), "Nieprawidłowy email lub hasło")
}

func TestLoginMissingInput(t *testing.T) {
	_, app := authApp(t)

	w := postJSON(t, app, "/admin/login", `{"email":"","password":""}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Wprowadź email i hasło")
}

func TestSessionStatusAfterLogin(t *testing.T) {
	_, app := authApp(t)

	login := postJSON(t, app, "/admin/login", `{"email":"admin@osk.pl","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, login.Code)
	cookie := login.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/admin/session", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "admin@osk.pl", body["email"])
	assert.NotEmpty(t, body["warn_at"])
	assert.NotEmpty(t, body["expires_at"])
}

func TestLogoutDestroysSession(t *testing.T) {
	_, app := authApp(t)

	login := postJSON(t, app, "/admin/login", `{"email":"admin@osk.pl","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, login.Code)
	cookie := login.Result().Cookies()[0]

	logout := postJSON(t, app, "/admin/logout", "", cookie)
	require.Equal(t, http.StatusOK, logout.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/session", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
