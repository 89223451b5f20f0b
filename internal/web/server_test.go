package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fitlife-ai/internal/app"
	"fitlife-ai/internal/llm"
	"fitlife-ai/internal/metrics"
	"fitlife-ai/internal/planner"
	"fitlife-ai/internal/profile"
	"fitlife-ai/internal/shared"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockPlanGenerator struct {
	Err     error
	entered chan struct{}
	release chan struct{}
}

func (m *MockPlanGenerator) GeneratePlan(ctx context.Context, p profile.Profile) (*planner.DailyPlan, shared.AgentMeta, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}
	if m.Err != nil {
		return nil, shared.AgentMeta{}, &planner.GenerationError{Stage: planner.StageRequest, Err: m.Err}
	}
	meal := func(name string) planner.Meal {
		return planner.Meal{
			Name:         name,
			Calories:     350,
			Protein:      "25g",
			Ingredients:  []string{"鸡蛋 2个", "燕麦 40g"},
			CookingTime:  "10分钟",
			Instructions: []string{"烧水", "煮燕麦", "加鸡蛋"},
			Description:  "营养早餐",
		}
	}
	return &planner.DailyPlan{
		Breakfast: meal("燕麦鸡蛋"),
		Lunch:     meal("鸡胸沙拉"),
		Dinner:    meal("清蒸鲈鱼"),
		Tips:      "晚餐后散步30分钟",
	}, shared.AgentMeta{AgentName: "Planner"}, nil
}

type MockChatSession struct {
	Reply string
	Err   error
}

func (m *MockChatSession) SendMessage(ctx context.Context, text string) (llm.ContentResponse, error) {
	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	return llm.ContentResponse{Content: m.Reply}, nil
}

type MockChatStarter struct {
	Session *MockChatSession
}

func (m *MockChatStarter) StartChat(string) llm.ChatSession {
	return m.Session
}

type testEnv struct {
	srv      *httptest.Server
	client   *http.Client
	registry *app.Registry
}

func newTestEnv(t *testing.T, gen app.PlanGenerator, session *MockChatSession) *testEnv {
	t.Helper()
	if session == nil {
		session = &MockChatSession{Reply: "多吃蔬菜"}
	}
	registry := app.NewRegistry(app.Deps{
		Planner: gen,
		Chat:    &MockChatStarter{Session: session},
		Logger:  zap.NewNop(),
	})
	sessions, err := NewSessionManager("test-secret", time.Hour, false)
	require.NoError(t, err)

	collectors := metrics.NewCollectors()
	dataDir := t.TempDir()
	s, err := NewServer(Options{
		Registry:   registry,
		Sessions:   sessions,
		Collectors: collectors,
		Health: func() metrics.SysHealth {
			return metrics.GetSysHealth(dataDir, registry.Len(), true)
		},
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{srv: srv, client: &http.Client{Jar: jar}, registry: registry}
}

func (e *testEnv) get(t *testing.T, path string) *goquery.Document {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

// post submits a form and follows the redirect back to the page.
func (e *testEnv) post(t *testing.T, path string, form url.Values) *goquery.Document {
	t.Helper()
	resp, err := e.client.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func defaultForm() url.Values {
	return url.Values{
		"age":           {"25"},
		"height":        {"170"},
		"weight":        {"70"},
		"gender":        {"female"},
		"activityLevel": {"light"},
		"goal":          {"减脂增肌，变得更健康"},
	}
}

func TestIndexRendersForm(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{}, nil)
	doc := env.get(t, "/")

	assert.Equal(t, 1, doc.Find("#profile-form").Length())
	assert.Equal(t, 0, doc.Find("#plan").Length())
	age, _ := doc.Find(`input[name="age"]`).Attr("value")
	assert.Equal(t, "25", age)
	assert.Equal(t, "female", doc.Find(`select[name="gender"] option[selected]`).AttrOr("value", ""))
	assert.Equal(t, "生成减脂食谱", strings.TrimSpace(doc.Find("#submit").Text()))
	assert.Equal(t, 0, doc.Find("#chat-open").Length())
}

func TestSubmitRendersPlan(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{}, nil)
	doc := env.post(t, "/plan", defaultForm())

	cards := doc.Find(".meal-card")
	require.Equal(t, 3, cards.Length())
	assert.Equal(t, "breakfast", cards.First().AttrOr("data-slot", ""))
	assert.Contains(t, cards.First().Find("h3").Text(), "早餐 Breakfast")
	assert.Equal(t, "燕麦鸡蛋", cards.First().Find(".meal-name").Text())
	assert.Equal(t, "350 kcal", cards.First().Find(".kcal").Text())
	assert.Contains(t, cards.First().Find(".macros").Text(), "蛋白质 25g")
	assert.Contains(t, doc.Find("#tip").Text(), "晚餐后散步30分钟")
	assert.Contains(t, doc.Find("#plan-subtitle").Text(), "170cm / 70kg")
	assert.Equal(t, 0, doc.Find("#recipe-modal").Length())
	assert.Equal(t, 1, doc.Find("#chat-open").Length())
	assert.Equal(t, 1, doc.Find("#reset").Length())
}

func TestRecipeModalKeepsInstructionOrder(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{}, nil)
	env.post(t, "/plan", defaultForm())

	doc := env.post(t, "/meals/breakfast", nil)
	modal := doc.Find("#recipe-modal")
	require.Equal(t, 1, modal.Length())

	var steps []string
	modal.Find("ol.instructions li").Each(func(_ int, s *goquery.Selection) {
		steps = append(steps, s.Text())
	})
	assert.Equal(t, []string{"烧水", "煮燕麦", "加鸡蛋"}, steps)
	assert.Equal(t, 2, modal.Find("ul.ingredients li").Length())
	assert.Contains(t, modal.Find(".kcal").Text(), "350")

	doc = env.post(t, "/meals/close", nil)
	assert.Equal(t, 0, doc.Find("#recipe-modal").Length())
	assert.Equal(t, 3, doc.Find(".meal-card").Length())
}

func TestUnknownMealSlot(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{}, nil)
	resp, err := env.client.PostForm(env.srv.URL+"/meals/brunch", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitFailureShowsAlert(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{Err: errors.New("quota exceeded")}, nil)

	form := defaultForm()
	form.Set("goal", "三个月减5公斤")
	doc := env.post(t, "/plan", form)

	assert.Contains(t, doc.Find("#alert").Text(), "生成食谱失败，请检查网络或稍后再试。")
	assert.Equal(t, 1, doc.Find("#profile-form").Length())
	assert.Equal(t, 0, doc.Find(".meal-card").Length())
	goal, _ := doc.Find(`input[name="goal"]`).Attr("value")
	assert.Equal(t, "三个月减5公斤", goal)
}

func TestSubmitInvalidForm(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{}, nil)

	form := defaultForm()
	form.Set("age", "0")
	resp, err := env.client.PostForm(env.srv.URL+"/plan", form)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoadingDisablesSubmit(t *testing.T) {
	gen := &MockPlanGenerator{entered: make(chan struct{}, 1), release: make(chan struct{})}
	env := newTestEnv(t, gen, nil)
	env.get(t, "/")

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := env.client.PostForm(env.srv.URL+"/plan", defaultForm())
		if err == nil {
			resp.Body.Close()
		}
	}()

	<-gen.entered
	doc := env.get(t, "/")
	submit := doc.Find("#submit")
	_, disabled := submit.Attr("disabled")
	assert.True(t, disabled)
	assert.Equal(t, "AI正在生成食谱...", strings.TrimSpace(submit.Text()))

	close(gen.release)
	<-done
	assert.Equal(t, 3, env.get(t, "/").Find(".meal-card").Length())
}

func TestChatWidget(t *testing.T) {
	t.Run("conversation", func(t *testing.T) {
		env := newTestEnv(t, &MockPlanGenerator{}, &MockChatSession{Reply: "多吃蔬菜"})
		env.post(t, "/plan", defaultForm())

		doc := env.post(t, "/chat/toggle", nil)
		msgs := doc.Find("#chat-messages .msg")
		require.Equal(t, 1, msgs.Length())
		assert.Contains(t, msgs.Text(), "你好！我是你的专属减脂助手")

		doc = env.post(t, "/chat/messages", url.Values{"message": {"   "}})
		assert.Equal(t, 1, doc.Find("#chat-messages .msg").Length())

		doc = env.post(t, "/chat/messages", url.Values{"message": {"晚餐能吃水果吗？"}})
		msgs = doc.Find("#chat-messages .msg")
		require.Equal(t, 3, msgs.Length())
		assert.True(t, msgs.Eq(1).HasClass("msg-user"))
		assert.Equal(t, "晚餐能吃水果吗？", msgs.Eq(1).Text())
		assert.True(t, msgs.Eq(2).HasClass("msg-model"))
		assert.Equal(t, "多吃蔬菜", msgs.Eq(2).Text())

		doc = env.post(t, "/chat/toggle", nil)
		assert.Equal(t, 0, doc.Find("#chat-window").Length())
		assert.Equal(t, 1, doc.Find("#chat-open").Length())
	})

	t.Run("failure appends apology", func(t *testing.T) {
		env := newTestEnv(t, &MockPlanGenerator{}, &MockChatSession{Err: errors.New("503")})
		env.post(t, "/plan", defaultForm())
		env.post(t, "/chat/toggle", nil)

		doc := env.post(t, "/chat/messages", url.Values{"message": {"hi"}})
		msgs := doc.Find("#chat-messages .msg")
		require.Equal(t, 3, msgs.Length())
		assert.Equal(t, "网络好像有点问题，请稍后再试。", msgs.Eq(2).Text())
		assert.Equal(t, 3, doc.Find(".meal-card").Length())
		assert.Equal(t, 0, doc.Find("#alert").Length())
	})
}

func TestReset(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{}, nil)
	env.post(t, "/plan", defaultForm())
	env.post(t, "/meals/lunch", nil)
	env.post(t, "/chat/toggle", nil)

	doc := env.post(t, "/reset", nil)
	assert.Equal(t, 1, doc.Find("#profile-form").Length())
	assert.Equal(t, 0, doc.Find("#recipe-modal").Length())
	assert.Equal(t, 0, doc.Find("#chat-window").Length())
	assert.Equal(t, 0, doc.Find("#chat-open").Length())
}

func TestStateAPI(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{}, nil)
	env.post(t, "/plan", defaultForm())
	env.post(t, "/meals/dinner", nil)

	resp, err := env.client.Get(env.srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var state struct {
		State        string `json:"state"`
		SelectedMeal string `json:"selectedMeal"`
		Plan         struct {
			Breakfast planner.Meal `json:"breakfast"`
		} `json:"plan"`
		Profile struct {
			Age int `json:"age"`
		} `json:"profile"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, "ready", state.State)
	assert.Equal(t, "dinner", state.SelectedMeal)
	assert.Equal(t, 350.0, state.Plan.Breakfast.Calories)
	assert.Equal(t, []string{"烧水", "煮燕麦", "加鸡蛋"}, state.Plan.Breakfast.Instructions)
	assert.Equal(t, 25, state.Profile.Age)
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{}, nil)
	env.post(t, "/plan", defaultForm())

	// A second browser without the cookie starts from the form.
	other := &http.Client{}
	resp, err := other.Get(env.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("#profile-form").Length())
	assert.Equal(t, 1, env.registry.Len())
}

func TestReadsDoNotCreateSessions(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{}, nil)

	for i := 0; i < 5; i++ {
		crawler := &http.Client{}
		for _, path := range []string{"/", "/api/state"} {
			resp, err := crawler.Get(env.srv.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
	}
	assert.Equal(t, 0, env.registry.Len())

	env.post(t, "/chat/toggle", nil)
	assert.Equal(t, 1, env.registry.Len())
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, &MockPlanGenerator{}, nil)
	env.get(t, "/")

	resp, err := env.client.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	var health metrics.SysHealth
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.ActiveSessions)

	resp, err = env.client.Get(env.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fitlife_http_requests_total{code="200",route="/"}`)
}
