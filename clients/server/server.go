// Package server provides the MDLChef HTTP API and a small web editor.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/xob0t/mdlchef/pkg/caption"
	"github.com/xob0t/mdlchef/pkg/chef"
	"github.com/xob0t/mdlchef/pkg/config"
	"github.com/xob0t/mdlchef/pkg/formats"
	"github.com/xob0t/mdlchef/pkg/generator"
	"github.com/xob0t/mdlchef/pkg/mdl"
	"github.com/xob0t/mdlchef/pkg/preview"
)

//go:embed web/*
var webContent embed.FS

// maxBody caps MDL request bodies.
const maxBody = 1 << 20

// ── Preview cache ──

// previewCache keeps rendered format previews; formats are read-only while
// the server runs, so entries never go stale.
type previewCache struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func newPreviewCache() *previewCache {
	return &previewCache{items: make(map[string][]byte)}
}

func (pc *previewCache) get(id string) ([]byte, bool) {
	pc.mu.RLock()
	data, ok := pc.items[id]
	pc.mu.RUnlock()
	return data, ok
}

func (pc *previewCache) add(id string, data []byte) {
	pc.mu.Lock()
	pc.items[id] = data
	pc.mu.Unlock()
}

func (pc *previewCache) len() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.items)
}

// ── Server ──

type srv struct {
	svc      *chef.Service
	repo     *formats.Repository
	previews *previewCache
}

// NewHandler returns the API and web editor routes.
func NewHandler(svc *chef.Service, repo *formats.Repository) (http.Handler, error) {
	s := &srv{svc: svc, repo: repo, previews: newPreviewCache()}
	return s.routes()
}

func (s *srv) routes() (http.Handler, error) {
	webFS, err := fs.Sub(webContent, "web")
	if err != nil {
		return nil, fmt.Errorf("embed web: %w", err)
	}

	mux := http.NewServeMux()

	// API routes.
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /api/formats", s.handleListFormats)
	mux.HandleFunc("GET /api/formats/{id}", s.handleGetFormat)
	mux.HandleFunc("GET /api/formats/{id}/preview", s.handlePreview)
	mux.HandleFunc("GET /api/example", s.handleExample)

	// Static files.
	mux.Handle("/", http.FileServer(http.FS(webFS)))
	return mux, nil
}

// RunServe starts the HTTP server and blocks until it is interrupted.
func RunServe(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	cf := config.BindFlags(flags)
	var open bool
	flags.BoolVar(&open, "open", false, "Open the web editor in a browser")
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfg, err := cf.Resolve()
	if err != nil {
		return err
	}
	caption.SetLogger(cfg.Logger(os.Stderr))
	log := caption.Logger()

	svc, repo, err := chef.Open(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	handler, err := NewHandler(svc, repo)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	url := "http://" + browserHost(cfg.Listen)
	log.Info("MDLChef API listening", "url", url, "formats", repo.Len())
	if open {
		go openBrowser(url)
	}

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ── Render ──

// handleRender renders an MDL document from the request body. With
// ?message=1 the body is free text and the MDL inside it is rendered.
func (s *srv) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "Request Too Large", err)
		return
	}

	var data []byte
	if r.URL.Query().Get("message") != "" {
		var ok bool
		data, ok, err = s.svc.RenderMessage(string(body))
		if err == nil && !ok {
			writeJSONError(w, http.StatusBadRequest, "No MDL Found", errors.New("the message contains no MDL document"))
			return
		}
	} else {
		data, _, err = s.svc.RenderMDL(string(body))
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// ── Formats ──

type insertJSON struct {
	Name   string   `json:"name"`
	Coords [][2]int `json:"coords"`
}

type formatJSON struct {
	ID      string       `json:"id"`
	Width   int          `json:"width,omitempty"`
	Height  int          `json:"height,omitempty"`
	Inserts []insertJSON `json:"inserts"`
}

func toFormatJSON(f *formats.Format) formatJSON {
	out := formatJSON{ID: f.ID, Inserts: make([]insertJSON, 0, len(f.Inserts))}
	for _, name := range f.InsertNames() {
		c := f.Inserts[name]
		out.Inserts = append(out.Inserts, insertJSON{
			Name:   name,
			Coords: [][2]int{{c.From.X, c.From.Y}, {c.To.X, c.To.Y}},
		})
	}
	return out
}

func (s *srv) handleListFormats(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.List(r.URL.Query().Get("pattern"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid Pattern", err)
		return
	}
	out := make([]formatJSON, 0, len(list))
	for _, f := range list {
		out = append(out, toFormatJSON(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *srv) handleGetFormat(w http.ResponseWriter, r *http.Request) {
	f, err := s.repo.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := toFormatJSON(f)
	if img, err := f.LoadImage(); err == nil {
		out.Width, out.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *srv) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, ok := s.previews.get(id)
	if !ok {
		f, err := s.repo.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		data, err = renderPreview(f)
		if err != nil {
			writeError(w, err)
			return
		}
		s.previews.add(id, data)
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func renderPreview(f *formats.Format) ([]byte, error) {
	base, err := f.LoadImage()
	if err != nil {
		return nil, &chef.GenerationError{Err: err}
	}
	img, err := preview.Render(base, f.Geometry(), preview.Options{Bands: true})
	if err != nil {
		return nil, &chef.GenerationError{Err: err}
	}
	return caption.Encode(img)
}

func (s *srv) handleExample(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, generator.ExampleMDL(s.repo.Name))
}

// ── Helpers ──

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, mdl.ErrParse), errors.Is(err, mdl.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, formats.ErrUnknownFormat):
		return http.StatusNotFound
	case errors.Is(err, caption.ErrUnknownInsert):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		caption.Logger().Error("request failed", "err", err)
	}
	writeJSONError(w, status, chef.Title(err), err)
}

func writeJSONError(w http.ResponseWriter, status int, title string, err error) {
	writeJSON(w, status, map[string]string{"title": title, "error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// browserHost turns a listen address into something a browser can open.
func browserHost(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
