// Package web implements the browser-facing command editor: CRUD over the
// commands file behind HTTP basic auth. It never touches the live command
// store; it rewrites commands.json and lets the watcher's next poll tick
// pick up the change.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"groupmebot/internal/commands"
	"groupmebot/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the command editor pages.
type Handler struct {
	path string // commands.json location
	tmpl *template.Template
	log  *slog.Logger
}

// NewHandler creates the editor over the commands file at path.
func NewHandler(path string, log *slog.Logger) *Handler {
	return &Handler{
		path: path,
		tmpl: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		log:  log.With("component", "web_admin"),
	}
}

// Register mounts the editor routes behind basic auth.
func (h *Handler) Register(r chi.Router, username, password string) {
	r.Route("/commands", func(r chi.Router) {
		r.Use(middleware.BasicAuth("commands", map[string]string{username: password}))
		r.Get("/", h.list)
		r.Get("/add", h.addForm)
		r.Post("/add", h.add)
		r.Get("/edit/{command}", h.editForm)
		r.Post("/edit/{command}", h.save)
		r.Post("/delete", h.delete)
	})
}

// commandView is a trigger with its response lines rendered for display.
type commandView struct {
	Trigger string
	Lines   []string
}

// listData feeds the commands.html template.
type listData struct {
	Commands []commandView
	Message  string
}

// formData feeds the add/edit templates.
type formData struct {
	Trigger string
	Lines   []string
	Error   string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	table, err := commands.LoadFile(h.path)
	if err != nil {
		h.log.Error("Failed to load commands file", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]commandView, 0, len(table))
	for trigger, raw := range table {
		views = append(views, commandView{Trigger: trigger, Lines: displayLines(raw)})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Trigger < views[j].Trigger })

	h.render(w, "commands.html", listData{
		Commands: views,
		Message:  r.URL.Query().Get("msg"),
	})
}

func (h *Handler) addForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "add_command.html", formData{Lines: []string{""}})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	trigger := strings.TrimSpace(r.FormValue("new_command"))
	lines := r.Form["response[]"]

	if trigger == "" {
		h.render(w, "add_command.html", formData{Lines: lines, Error: "Command name cannot be empty."})
		return
	}

	table, err := commands.LoadFile(h.path)
	if err != nil {
		h.log.Error("Failed to load commands file", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, exists := table[trigger]; exists {
		h.render(w, "add_command.html", formData{
			Trigger: trigger,
			Lines:   lines,
			Error:   "Command '" + trigger + "' already exists.",
		})
		return
	}

	if err := h.store(table, trigger, lines); err != nil {
		h.log.Error("Failed to save commands file", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.redirect(w, r, "Command '"+trigger+"' added successfully!")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	trigger := urlParamCommand(r)

	table, err := commands.LoadFile(h.path)
	if err != nil {
		h.log.Error("Failed to load commands file", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	raw, ok := table[trigger]
	if !ok {
		h.redirect(w, r, "Command '"+trigger+"' not found.")
		return
	}

	h.render(w, "edit_command.html", formData{Trigger: trigger, Lines: displayLines(raw)})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	trigger := urlParamCommand(r)

	table, err := commands.LoadFile(h.path)
	if err != nil {
		h.log.Error("Failed to load commands file", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, ok := table[trigger]; !ok {
		h.redirect(w, r, "Command '"+trigger+"' not found.")
		return
	}

	if err := h.store(table, trigger, r.Form["response[]"]); err != nil {
		h.log.Error("Failed to save commands file", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.redirect(w, r, "Command '"+trigger+"' updated successfully!")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	trigger := r.FormValue("command")
	if trigger == "" {
		h.redirect(w, r, "No command specified.")
		return
	}

	table, err := commands.LoadFile(h.path)
	if err != nil {
		h.log.Error("Failed to load commands file", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, ok := table[trigger]; !ok {
		h.redirect(w, r, "Command '"+trigger+"' not found.")
		return
	}

	delete(table, trigger)
	if err := config.WriteJSONFile(h.path, table); err != nil {
		h.log.Error("Failed to save commands file", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.redirect(w, r, "Command '"+trigger+"' deleted successfully!")
}

// store sets the trigger to the non-blank form lines and writes the table back.
func (h *Handler) store(table commands.Table, trigger string, formLines []string) error {
	records := make([]commands.Line, 0, len(formLines))
	for _, line := range formLines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		records = append(records, commands.Line{Text: line})
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	table[trigger] = raw
	return config.WriteJSONFile(h.path, table)
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("Failed to render template", "template", name, "error", err)
	}
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/commands/?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}

func urlParamCommand(r *http.Request) string {
	raw := chi.URLParam(r, "command")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// displayLines renders a raw table value as editable lines, tolerating the
// legacy bare-string shape and anything unexpected.
func displayLines(raw json.RawMessage) []string {
	var records []commands.Line
	if err := json.Unmarshal(raw, &records); err == nil {
		lines := make([]string, len(records))
		for i, rec := range records {
			lines[i] = rec.Text
		}
		return lines
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}

	return []string{string(raw)}
}
