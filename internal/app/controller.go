package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fitlife-ai/internal/chat"
	"fitlife-ai/internal/llm"
	"fitlife-ai/internal/planner"
	"fitlife-ai/internal/profile"
	"fitlife-ai/internal/shared"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrBusy is returned by Submit while a generation is outstanding.
	ErrBusy = errors.New("a plan is already being generated")
	// ErrNotReady is returned by operations that need a plan.
	ErrNotReady = errors.New("no plan available")
	// ErrSuperseded is returned by Submit when a Reset or a newer submission
	// overtook it; its result was dropped.
	ErrSuperseded = errors.New("submission superseded")
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PlanGenerator is satisfied by *planner.Planner.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, p profile.Profile) (*planner.DailyPlan, shared.AgentMeta, error)
}

// Observer receives the outcome of every call to the language model.
type Observer interface {
	PlanGenerated(meta shared.AgentMeta, err error)
	ChatExchanged(meta shared.AgentMeta, err error)
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Planner  PlanGenerator
	Chat     llm.ChatStarter
	Observer Observer
	Logger   *zap.Logger
}

// Snapshot is an immutable view of a controller.
type Snapshot struct {
	State        State              `json:"state"`
	Profile      *profile.Profile   `json:"profile,omitempty"`
	FormValues   profile.Profile    `json:"formValues"`
	Plan         *planner.DailyPlan `json:"plan,omitempty"`
	SelectedMeal planner.MealSlot   `json:"selectedMeal,omitempty"`
	ChatOpen     bool               `json:"chatOpen"`
	Messages     []chat.Message     `json:"messages"`
	Typing       bool               `json:"typing"`
}

// Controller holds all state of one user's session: profile, plan, chat
// session, selected meal and chat-open flag. Plan and chat session are always
// installed and cleared together.
type Controller struct {
	deps Deps

	mu         sync.Mutex
	state      State
	epoch      uint64
	profile    *profile.Profile
	formValues profile.Profile
	plan       *planner.DailyPlan
	session    *chat.Session
	transcript *chat.Transcript
	selected   planner.MealSlot
	chatOpen   bool
	lastUsed   time.Time
}

// NewController returns an idle controller.
func NewController(deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Controller{
		deps:       deps,
		formValues: profile.Default(),
		transcript: chat.NewTranscript(),
		lastUsed:   time.Now(),
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:        c.state,
		FormValues:   c.formValues,
		Plan:         c.plan,
		SelectedMeal: c.selected,
		ChatOpen:     c.chatOpen,
		Messages:     c.transcript.Messages(),
		Typing:       c.transcript.Typing(),
	}
	if c.profile != nil {
		p := *c.profile
		snap.Profile = &p
	}
	return snap
}

// Submit generates a plan and opens a chat session for p, concurrently, and
// waits for both. On success the controller is Ready; on failure it is Idle
// with nothing retained and the *planner.GenerationError is returned.
func (c *Controller) Submit(ctx context.Context, p profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state == StateLoading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.epoch++
	epoch := c.epoch
	c.clearLocked()
	prof := p
	c.profile = &prof
	c.formValues = p
	c.state = StateLoading
	c.lastUsed = time.Now()
	c.mu.Unlock()

	var (
		plan    *planner.DailyPlan
		meta    shared.AgentMeta
		session *chat.Session
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plan, meta, err = c.deps.Planner.GeneratePlan(gctx, p)
		return err
	})
	g.Go(func() error {
		session = chat.NewSession(c.deps.Chat, p)
		return nil
	})
	err := g.Wait()

	if c.deps.Observer != nil {
		c.deps.Observer.PlanGenerated(meta, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		c.deps.Logger.Info("dropping result of superseded submission", zap.Error(err))
		return ErrSuperseded
	}
	if err != nil {
		c.deps.Logger.Error("plan generation failed", zap.Error(err))
		c.clearLocked()
		return err
	}

	c.plan = plan
	c.session = session
	c.transcript = chat.NewTranscript()
	c.state = StateReady
	c.deps.Logger.Info("plan ready",
		zap.Int("total_tokens", meta.Usage.TotalTokens),
		zap.Duration("latency", meta.Latency),
	)
	return nil
}

// Reset returns to Idle from any state. A submission still in flight is
// dropped when it completes.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.clearLocked()
	c.formValues = profile.Default()
	c.lastUsed = time.Now()
}

func (c *Controller) clearLocked() {
	c.state = StateIdle
	c.profile = nil
	c.plan = nil
	c.session = nil
	c.transcript = chat.NewTranscript()
	c.selected = ""
	c.chatOpen = false
}

// SelectMeal focuses the recipe detail of slot and returns that meal, read
// under the same lock so a concurrent Reset cannot leave it without a plan.
func (c *Controller) SelectMeal(slot planner.MealSlot) (planner.Meal, error) {
	if _, err := planner.ParseSlot(string(slot)); err != nil {
		return planner.Meal{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	if c.state != StateReady || c.plan == nil {
		return planner.Meal{}, ErrNotReady
	}
	meal, _ := c.plan.Meal(slot)
	c.selected = slot
	return meal, nil
}

// CloseMeal clears the recipe focus.
func (c *Controller) CloseMeal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	c.selected = ""
}

func (c *Controller) SetChatOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	c.chatOpen = open
}

func (c *Controller) ToggleChat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	c.chatOpen = !c.chatOpen
}

// SendChat sends text through the current session and returns the model
// message appended for it: the reply, or the apology when the exchange failed.
// A failed exchange is also returned as a *chat.ChatError; it never affects
// the plan.
func (c *Controller) SendChat(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	session, transcript := c.session, c.transcript
	c.lastUsed = time.Now()
	c.mu.Unlock()

	reply, meta, err := transcript.Send(ctx, session, text)
	if errors.Is(err, chat.ErrEmptyMessage) || errors.Is(err, chat.ErrNoSession) || errors.Is(err, chat.ErrSendInFlight) {
		return "", err
	}
	if c.deps.Observer != nil {
		c.deps.Observer.ChatExchanged(meta, err)
	}
	if err != nil {
		c.deps.Logger.Warn("chat message failed", zap.Error(err))
	}
	return reply, err
}

func (c *Controller) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}
