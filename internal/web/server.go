// Package web serves the browser front-end: the profile form, the daily plan
// with its recipe details, and the advisor chat widget.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"fitlife-ai/internal/app"
	"fitlife-ai/internal/locale"
	"fitlife-ai/internal/metrics"
	"fitlife-ai/internal/planner"
	"fitlife-ai/internal/profile"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options configures a Server. Collectors, Health and Webhook are optional.
type Options struct {
	Registry   *app.Registry
	Sessions   *SessionManager
	Collectors *metrics.Collectors
	Health     func() metrics.SysHealth
	Logger     *zap.Logger

	// WebhookPath mounts Webhook, typically the Telegram update handler.
	WebhookPath string
	Webhook     http.Handler
}

// Server is the HTTP front-end.
type Server struct {
	opts      Options
	logger    *zap.Logger
	messages  locale.Messages
	templates *template.Template
	router    chi.Router
}

// NewServer parses the embedded templates and builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		opts:      opts,
		logger:    opts.Logger.Named("web"),
		messages:  locale.Default(),
		templates: tmpl,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(sentryHub)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Collectors != nil {
		r.Handle("/metrics", s.opts.Collectors.Handler())
	}
	if s.opts.Webhook != nil && s.opts.WebhookPath != "" {
		r.Handle(s.opts.WebhookPath, s.opts.Webhook)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/", s.handleIndex)
		r.Get("/api/state", s.handleState)
		r.Post("/plan", s.handleSubmit)
		r.Post("/reset", s.handleReset)
		r.Post("/meals/close", s.handleCloseMeal)
		r.Post("/meals/{slot}", s.handleSelectMeal)
		r.Post("/chat/toggle", s.handleToggleChat)
		r.Post("/chat/messages", s.handleChatMessage)
	})

	return r
}

// mealCard is the view model of one meal.
type mealCard struct {
	Slot  planner.MealSlot
	Title string
	Meal  planner.Meal
}

type recipeView struct {
	M    locale.Messages
	Card *mealCard
}

type pageData struct {
	M          locale.Messages
	Snap       app.Snapshot
	Genders    []profile.Gender
	Activities []profile.ActivityLevel
	Meals      []mealCard
	Selected   *mealCard
	Subtitle   string
	Alert      string
}

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"measure": profile.FormatMeasure,
		"number": func(f float64) string {
			return strconv.FormatFloat(f, 'f', -1, 64)
		},
		"recipeData": func(p pageData, card *mealCard) recipeView {
			return recipeView{M: p.M, Card: card}
		},
	}
	return template.New("web").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

func (s *Server) newPageData(snap app.Snapshot) pageData {
	data := pageData{
		M:          s.messages,
		Snap:       snap,
		Genders:    profile.Genders(),
		Activities: profile.ActivityLevels(),
	}
	if snap.Plan == nil {
		return data
	}

	for _, slot := range planner.Slots() {
		m, _ := snap.Plan.Meal(slot)
		card := mealCard{Slot: slot, Title: slot.Title(), Meal: m}
		data.Meals = append(data.Meals, card)
		if slot == snap.SelectedMeal {
			selected := card
			data.Selected = &selected
		}
	}
	if snap.Profile != nil {
		data.Subtitle = s.messages.Subtitle(snap.Profile.HeightCM, snap.Profile.WeightKG)
	}
	return data
}
