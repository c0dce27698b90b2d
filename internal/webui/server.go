// Package webui serves the browser surface: a single page rendering the
// history list and the filtered view of one result, plus proxy handlers
// that stream downloads and exports from the backend. The page is
// stateless; every request carries the full selection in its query
// string and goes through the same pure filter engine as the terminal
// UI.
package webui

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/tablescope/tablescope/internal/filter"
	"github.com/tablescope/tablescope/internal/gateway"
	"github.com/tablescope/tablescope/internal/render"
	"github.com/tablescope/tablescope/internal/result"
)

// Server is the local web view.
type Server struct {
	router chi.Router
	gw     *gateway.Client
	log    *slog.Logger
	md     goldmark.Markdown
	tmpl   *template.Template
}

func NewServer(gw *gateway.Client, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		gw:   gw,
		log:  log,
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
		tmpl: template.Must(template.New("page").Parse(pageTemplate)),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Get("/download/{id}.json", s.handleDownloadJSON)
	r.Get("/export/{id}/table.csv", s.handleExportCSV)
	r.Get("/export/{id}/all.zip", s.handleExportZip)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type pageData struct {
	History      []gateway.HistoryItem
	Notice       string
	ResultID     string
	Filename     string
	Filter       filter.State
	Mode         string
	Pages        []int
	TableIndices []int
	Text         string
	Tables       template.HTML
	CSVHref      string
	ZipHref      string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	st := filter.State{Page: 0, TableIndex: -1, Query: q.Get("q")}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			st.Page = n
		}
	}
	if v := q.Get("table_index"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			st.TableIndex = n
		}
	}
	mode := render.ModePretty
	if q.Get("mode") == "compact" {
		mode = render.ModeCompact
	}

	data := pageData{Mode: mode.String(), Filter: st}

	history, err := s.gw.History(r.Context())
	if err != nil {
		data.Notice = fmt.Sprintf("history unavailable: %v", err)
	}
	data.History = history

	id := q.Get("id")
	if id != "" {
		doc, err := s.gw.Result(r.Context(), id)
		switch {
		case errors.Is(err, result.ErrMalformed):
			doc = result.Empty()
		case err != nil:
			data.Notice = err.Error()
		}
		if doc != nil {
			st = st.Clamp(doc)
			view := filter.BuildFilteredView(doc, st)

			data.ResultID = id
			data.Filename = doc.Filename()
			data.Filter = st
			data.Pages = filter.AvailablePages(doc)
			data.TableIndices = filter.AvailableTableIndices(doc, st.Page)
			data.Text = render.Text(view, mode)
			data.Tables = s.tablesHTML(view)
			if st.Page != 0 && st.TableIndex != -1 {
				data.CSVHref = fmt.Sprintf("/export/%s/table.csv?page=%d&table_index=%d", id, st.Page, st.TableIndex)
			}
			data.ZipHref = fmt.Sprintf("/export/%s/all.zip", id)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.log.Error("render page", "error", err)
	}
}

// tablesHTML converts the filtered view's pipe-table markdown to HTML.
func (s *Server) tablesHTML(view *result.Document) template.HTML {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(render.Markdown(view)), &buf); err != nil {
		s.log.Error("markdown convert", "error", err)
		return ""
	}
	return template.HTML(buf.String())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	useLLM := r.FormValue("use_llm") != ""
	resp, err := s.gw.Upload(r.Context(), header.Filename, file, useLLM)
	if err != nil {
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, "/?id="+resp.ID, http.StatusSeeOther)
}

func (s *Server) handleDownloadJSON(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tables_%s.json", id))
	if err := s.gw.DownloadJSON(r.Context(), id, w); err != nil {
		s.log.Warn("download proxy failed", "id", id, "error", err)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	tableIndex := -1
	if v := r.URL.Query().Get("table_index"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			tableIndex = n
		}
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=tables_%s_p%d_t%d.csv", id, page, tableIndex))
	err := s.gw.DownloadCSV(r.Context(), id, page, tableIndex, w)
	if errors.Is(err, gateway.ErrSelectionRequired) {
		w.Header().Del("Content-Disposition")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.Warn("csv proxy failed", "id", id, "error", err)
	}
}

func (s *Server) handleExportZip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tables_%s.zip", id))
	if err := s.gw.DownloadZip(r.Context(), id, w); err != nil {
		s.log.Warn("zip proxy failed", "id", id, "error", err)
	}
}
