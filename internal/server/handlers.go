package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/krezak/searchdeck/internal/auth"
	"github.com/krezak/searchdeck/internal/catalog"
	"github.com/krezak/searchdeck/internal/credentials"
	"github.com/krezak/searchdeck/internal/export"
	"github.com/krezak/searchdeck/internal/group"
	"github.com/krezak/searchdeck/internal/search"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type homeData struct {
	Role       string
	LoggedIn   bool
	Engines    []string
	HasCatalog bool
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := homeData{
		Engines:    s.backend.Rotator().Engines(),
		HasCatalog: len(s.backend.Catalog().Categories) > 0,
	}
	if role, ok := s.auth.Role(r); ok {
		data.LoggedIn = true
		data.Role = string(role)
	}
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.log.Error().Err(err).Msg("render home")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}
	role, err := s.auth.Login(w, r, r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("login")
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": string(role)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(w, r); err != nil {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchResponse struct {
	Groups       []group.Group `json:"groups"`
	NextStart    *int          `json:"next_start"`
	TotalResults int64         `json:"total_results"`
	SearchTime   float64       `json:"search_time"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "no search query provided")
		return
	}
	engine := r.URL.Query().Get("engine")
	sortBy := r.URL.Query().Get("sort_by")
	all := r.URL.Query().Get("all") == "1"

	rot := s.backend.Rotator()
	resp := searchResponse{}

	if all {
		combined, err := search.FetchAll(r.Context(), rot, engine, q, sortBy, s.maxQueries)
		if err != nil {
			s.searchError(w, q, err)
			return
		}
		resp.Groups = group.ByDomain(combined.Results)
		resp.TotalResults = combined.TotalResults
		resp.SearchTime = combined.SearchTime
	} else {
		start := 1
		if v, err := strconv.Atoi(r.URL.Query().Get("start")); err == nil && v > 0 {
			start = v
		}
		page, err := rot.Search(r.Context(), engine, q, start, sortBy)
		if err != nil {
			s.searchError(w, q, err)
			return
		}
		resp.Groups = group.ByDomain(page.Results)
		resp.TotalResults = page.TotalResults
		resp.SearchTime = page.SearchTime
		if page.NextStart > 0 && page.NextStart <= search.MaxStart {
			next := page.NextStart
			resp.NextStart = &next
		}
	}
	if resp.Groups == nil {
		resp.Groups = []group.Group{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) searchError(w http.ResponseWriter, query string, err error) {
	if errors.Is(err, search.ErrCredentialsExhausted) {
		s.log.Warn().Str("query", query).Msg("search unavailable, credentials exhausted")
		writeError(w, http.StatusServiceUnavailable, "search is temporarily unavailable")
		return
	}
	s.log.Error().Err(err).Str("query", query).Msg("search failed")
	writeError(w, http.StatusBadGateway, "search failed")
}

type previewCategory struct {
	Name     string            `json:"name"`
	Websites []catalog.Website `json:"websites"`
	MaxLimit int               `json:"max_limit"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	cat := s.backend.Catalog()
	out := make([]previewCategory, 0, len(cat.Categories))
	for _, c := range cat.Categories {
		out = append(out, previewCategory{
			Name:     c.Name,
			Websites: c.Websites,
			MaxLimit: len(c.Websites),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "no search query provided")
		return
	}
	engine := r.URL.Query().Get("engine")
	combined, err := search.FetchAll(r.Context(), s.backend.Rotator(), engine, q,
		r.URL.Query().Get("sort_by"), s.maxQueries)
	if err != nil {
		s.searchError(w, q, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="results.pdf"`)
	if err := export.WriteResults(w, q, group.ByDomain(combined.Results)); err != nil {
		s.log.Error().Err(err).Str("query", q).Msg("pdf export failed")
	}
}

func (s *Server) handleAdminCredentials(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Keys    credentials.ChangeSet `json:"keys"`
		Engines credentials.ChangeSet `json:"engines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed change set")
		return
	}
	if err := s.backend.ApplyCredentialChanges(body.Keys, body.Engines); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdminDomains(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Add []string `json:"add"`
		Upd []struct {
			Original string `json:"original"`
			Name     string `json:"name"`
		} `json:"upd"`
		Del []string `json:"del"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed change set")
		return
	}
	rename := make(map[string]string, len(body.Upd))
	for _, u := range body.Upd {
		rename[u.Original] = u.Name
	}
	if err := s.backend.ApplyDomainChanges(body.Add, rename, body.Del); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
