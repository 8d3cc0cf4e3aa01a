package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/dicepool/auth"
	"github.com/use-agent/dicepool/config"
	"github.com/use-agent/dicepool/dice"
	"github.com/use-agent/dicepool/history"
	"github.com/use-agent/dicepool/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode, AllowedOrigins: []string{"*"}},
		Auth:      config.AuthConfig{Enabled: true, SecretKey: "test-secret", TokenTTL: time.Hour},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	hist := history.New(10, time.Hour)
	t.Cleanup(hist.Close)
	return NewRouter(cfg, Deps{
		Issuer:  auth.NewIssuer(cfg.Auth.SecretKey, cfg.Auth.TokenTTL, nil),
		History: hist,
	}, time.Now())
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler, user string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/login", "", models.LoginRequest{UserID: user})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return w.Body.String()
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func seed(v uint64) *uint64 { return &v }

func TestRoll(t *testing.T) {
	r := newTestRouter(t, testConfig())
	token := login(t, r, "alice")

	w := do(r, http.MethodPost, "/roll", token, models.RollRequest{NumDice: 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.DiceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 12)
	assert.IsNonIncreasing(t, resp.Results)
	assert.Equal(t, resp.Raises, len(resp.Combinations))
	for _, combo := range resp.Combinations {
		sum := 0
		for _, v := range combo {
			sum += v
		}
		assert.GreaterOrEqual(t, sum, dice.Threshold)
	}
}

func TestRoll_InvalidCount(t *testing.T) {
	r := newTestRouter(t, testConfig())
	token := login(t, r, "alice")

	for _, n := range []int{0, 101, -3} {
		w := do(r, http.MethodPost, "/roll", token, models.RollRequest{NumDice: n})
		assert.Equal(t, http.StatusBadRequest, w.Code, "num_dadi=%d", n)
		assert.Equal(t, models.ErrCodeInvalidArgument, errorCode(t, w))
	}
}

func TestRoll_SeedIsReproducible(t *testing.T) {
	r := newTestRouter(t, testConfig())
	token := login(t, r, "alice")

	a := do(r, http.MethodPost, "/roll", token, models.RollRequest{NumDice: 30, Seed: seed(11)})
	b := do(r, http.MethodPost, "/roll", token, models.RollRequest{NumDice: 30, Seed: seed(11)})
	require.Equal(t, http.StatusOK, a.Code)
	assert.JSONEq(t, a.Body.String(), b.Body.String())
}

func TestRoll_RequiresToken(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := do(r, http.MethodPost, "/roll", "", models.RollRequest{NumDice: 3})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, models.ErrCodeUnauthorized, errorCode(t, w))

	w = do(r, http.MethodPost, "/roll", "not-a-token", models.RollRequest{NumDice: 3})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoll_AuthDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = false
	r := newTestRouter(t, cfg)

	w := do(r, http.MethodPost, "/roll", "", models.RollRequest{NumDice: 3})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRollWithReroll(t *testing.T) {
	r := newTestRouter(t, testConfig())
	token := login(t, r, "alice")

	w := do(r, http.MethodPost, "/roll_with_reroll", token, models.RollWithRerollRequest{NumDice: 8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"rilanciato":null`)

	var resp models.RollWithRerollResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.OriginalResults, 8)
	assert.ElementsMatch(t, resp.OriginalResults, resp.UpdatedResults)
	assert.IsNonIncreasing(t, resp.UpdatedResults)
}

// With enough dice a 1 is practically certain; the updated pool differs
// from the original in exactly the rerolled die.
func TestRollWithReroll_RerollsFirstOne(t *testing.T) {
	r := newTestRouter(t, testConfig())
	token := login(t, r, "alice")

	w := do(r, http.MethodPost, "/roll_with_reroll", token, models.RollWithRerollRequest{NumDice: 100, RerollOne: true, Seed: seed(3)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.RollWithRerollResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Rerolled)
	require.Contains(t, resp.OriginalResults, 1)

	expected := append([]int(nil), resp.OriginalResults...)
	for i, v := range expected {
		if v == 1 {
			expected[i] = *resp.Rerolled
			break
		}
	}
	assert.ElementsMatch(t, expected, resp.UpdatedResults)
}

func TestReroll(t *testing.T) {
	r := newTestRouter(t, testConfig())
	token := login(t, r, "alice")

	w := do(r, http.MethodPost, "/reroll", token, models.RerollRequest{Results: []int{1, 9, 4}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.DiceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 3)
	assert.Contains(t, resp.Results, 9)
	assert.Contains(t, resp.Results, 4)
	assert.IsNonIncreasing(t, resp.Results)
}

func TestReroll_Failures(t *testing.T) {
	r := newTestRouter(t, testConfig())
	token := login(t, r, "alice")

	tests := []struct {
		name string
		pool []int
		code string
	}{
		{"no one", []int{7, 3, 2}, models.ErrCodeNoRerollTarget},
		{"empty", []int{}, models.ErrCodeNoRerollTarget},
		{"bad face", []int{1, 11}, models.ErrCodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/reroll", token, models.RerollRequest{Results: tt.pool})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestHistory(t *testing.T) {
	r := newTestRouter(t, testConfig())
	alice := login(t, r, "alice")
	bob := login(t, r, "bob")

	do(r, http.MethodPost, "/roll", alice, models.RollRequest{NumDice: 2})
	do(r, http.MethodPost, "/reroll", alice, models.RerollRequest{Results: []int{1}})

	w := do(r, http.MethodGet, "/history", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.UserID)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "reroll", resp.Entries[0].Kind)
	assert.Equal(t, "roll", resp.Entries[1].Kind)

	w = do(r, http.MethodGet, "/history", bob, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Entries)
}

func TestLogin(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := do(r, http.MethodPost, "/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/login", "", models.LoginRequest{UserID: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cfg := testConfig()
	cfg.Auth.SecretKey = ""
	noSecret := newTestRouter(t, cfg)
	w = do(noSecret, http.MethodPost, "/login", "", models.LoginRequest{UserID: "alice"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	w = do(noSecret, http.MethodPost, "/roll", "whatever", models.RollRequest{NumDice: 1})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	r := newTestRouter(t, cfg)
	token := login(t, r, "alice")

	first := do(r, http.MethodPost, "/roll", token, models.RollRequest{NumDice: 1})
	assert.Equal(t, http.StatusOK, first.Code)
	second := do(r, http.MethodPost, "/roll", token, models.RollRequest{NumDice: 1})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, models.ErrCodeRateLimited, errorCode(t, second))

	other := login(t, r, "bob")
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/roll", other, models.RollRequest{NumDice: 1}).Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, testConfig())
	w := do(r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/roll", nil)
	req.Header.Set("Origin", "https://table.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
