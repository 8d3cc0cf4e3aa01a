package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// diceResponse mirrors the dicepool roll / reroll response.
type diceResponse struct {
	Results      []int   `json:"risultati"`
	Raises       int     `json:"raises"`
	Combinations [][]int `json:"combinazioni"`
}

// rollWithRerollResponse mirrors the dicepool roll_with_reroll response.
type rollWithRerollResponse struct {
	OriginalResults []int   `json:"risultati_originali"`
	Rerolled        *int    `json:"rilanciato"`
	UpdatedResults  []int   `json:"risultati_aggiornati"`
	Raises          int     `json:"raises"`
	Combinations    [][]int `json:"combinazioni"`
}

// errorResponse mirrors the dicepool error body.
type errorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	_ = godotenv.Load()

	apiURL := os.Getenv("DICEPOOL_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	userID := os.Getenv("DICEPOOL_USER_ID")
	if userID == "" {
		fmt.Fprintln(os.Stderr, "DICEPOOL_USER_ID is required")
		os.Exit(1)
	}

	c := newClient(apiURL, userID)

	s := server.NewMCPServer(
		"dicepool",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	rollTool := mcp.NewTool("roll_dice",
		mcp.WithDescription("Roll a pool of ten-sided dice and count the raises: disjoint groups of dice whose faces sum to 10 or more."),
		mcp.WithNumber("num_dice",
			mcp.Required(),
			mcp.Description("Number of dice to roll (1-100)"),
		),
	)
	s.AddTool(rollTool, handleRoll(c))

	rollWithRerollTool := mcp.NewTool("roll_with_reroll",
		mcp.WithDescription("Roll a pool of ten-sided dice, optionally reroll the first die showing 1, then count the raises."),
		mcp.WithNumber("num_dice",
			mcp.Required(),
			mcp.Description("Number of dice to roll (1-100)"),
		),
		mcp.WithBoolean("reroll_one",
			mcp.Description("Reroll the first die showing 1 before scoring (default: false)"),
		),
	)
	s.AddTool(rollWithRerollTool, handleRollWithReroll(c))

	rerollTool := mcp.NewTool("reroll_dice",
		mcp.WithDescription("Reroll the first die showing 1 in an existing pool and count the raises again. Fails when no die shows 1."),
		mcp.WithArray("results",
			mcp.Required(),
			mcp.Description("The existing pool of face values (1-10)"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
	)
	s.AddTool(rerollTool, handleReroll(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// client talks to the dicepool HTTP API, logging in lazily and again
// whenever the token is rejected.
type client struct {
	apiURL string
	userID string
	http   *http.Client

	mu    sync.Mutex
	token string
}

func newClient(apiURL, userID string) *client {
	return &client{
		apiURL: strings.TrimRight(apiURL, "/"),
		userID: userID,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("API returned status %d", e.Status)
}

func (c *client) login(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{"user_id": c.userID})
	if err != nil {
		return "", fmt.Errorf("marshal login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp.StatusCode, raw)
	}
	c.token = strings.TrimSpace(string(raw))
	return c.token, nil
}

func (c *client) forgetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// post sends payload to path and decodes a successful answer into out.
func (c *client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		token, err := c.login(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("API request failed: %w", err)
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized && attempt == 0:
			c.forgetToken()
			continue
		case resp.StatusCode != http.StatusOK:
			return decodeError(resp.StatusCode, raw)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
		return nil
	}
}

func decodeError(status int, raw []byte) error {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error != nil {
		return &apiError{Status: status, Code: er.Error.Code, Message: er.Error.Message}
	}
	return &apiError{Status: status}
}

func handleRoll(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := request.RequireInt("num_dice")
		if err != nil {
			return mcp.NewToolResultError("num_dice is required"), nil
		}

		var resp diceResponse
		if err := c.post(ctx, "/roll", map[string]int{"num_dadi": n}, &resp); err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(formatScore(resp.Results, resp.Raises, resp.Combinations)), nil
	}
}

func handleRollWithReroll(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := request.RequireInt("num_dice")
		if err != nil {
			return mcp.NewToolResultError("num_dice is required"), nil
		}
		rerollOne := request.GetBool("reroll_one", false)

		payload := map[string]any{"num_dadi": n, "rilancia_uno": rerollOne}
		var resp rollWithRerollResponse
		if err := c.post(ctx, "/roll_with_reroll", payload, &resp); err != nil {
			return toolError(err), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Rolled: %v\n", resp.OriginalResults)
		switch {
		case resp.Rerolled != nil:
			fmt.Fprintf(&sb, "Rerolled a 1 into: %d\n", *resp.Rerolled)
		case rerollOne:
			sb.WriteString("No die showed 1, nothing rerolled\n")
		}
		sb.WriteString(formatScore(resp.UpdatedResults, resp.Raises, resp.Combinations))
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleReroll(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		results, err := requireInts(request, "results")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp diceResponse
		if err := c.post(ctx, "/reroll", map[string][]int{"risultati": results}, &resp); err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(formatScore(resp.Results, resp.Raises, resp.Combinations)), nil
	}
}

// requireInts reads an array argument of whole numbers.
func requireInts(request mcp.CallToolRequest, name string) ([]int, error) {
	raw, ok := request.GetArguments()[name].([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of integers", name)
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok || f != float64(int(f)) {
			return nil, fmt.Errorf("%s must contain only integers", name)
		}
		out = append(out, int(f))
	}
	return out, nil
}

func formatScore(pool []int, raises int, combos [][]int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pool (sorted): %v\n", pool)
	fmt.Fprintf(&sb, "Raises: %d\n", raises)
	for i, combo := range combos {
		sum := 0
		for _, v := range combo {
			sum += v
		}
		fmt.Fprintf(&sb, "  %d. %v = %d\n", i+1, combo, sum)
	}
	return sb.String()
}

func toolError(err error) *mcp.CallToolResult {
	var ae *apiError
	if errors.As(err, &ae) {
		return mcp.NewToolResultError(ae.Error())
	}
	return mcp.NewToolResultError(err.Error())
}
