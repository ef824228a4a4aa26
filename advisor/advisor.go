// Package advisor talks to an external AI assistant for trade
// confirmation and strategy feedback, degrading gracefully when the
// assistant is unreachable.
package advisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"oscbot/logger"
	"oscbot/strategy"
)

// OfflineSentinel is returned from Chat when the assistant was detected
// as unavailable at startup.
const OfflineSentinel = "AI Assistant is offline"

const (
	healthTimeout = 2 * time.Second
	chatTimeout   = 30 * time.Second
)

// Advisor is an HTTP client for the assistant API. Availability is
// probed once at construction; a probe failure puts the advisor into
// fallback mode for the lifetime of the process.
type Advisor struct {
	apiURL  string
	enabled bool
	client  *http.Client
}

// Status reports advisor availability.
type Status struct {
	Enabled       bool   `json:"enabled"`
	APIURL        string `json:"api_url"`
	ServiceStatus string `json:"service_status"`
}

// New creates an advisor and probes the API root for liveness.
func New(apiURL string) *Advisor {
	a := &Advisor{
		apiURL: strings.TrimRight(apiURL, "/"),
		client: &http.Client{Timeout: chatTimeout},
	}
	a.enabled = a.healthCheck()

	if a.enabled {
		logger.Infof("[Advisor] initialized with API: %s", a.apiURL)
	} else {
		logger.Info("[Advisor] initialized in fallback mode (API unavailable)")
	}
	return a
}

func (a *Advisor) healthCheck() bool {
	probe := &http.Client{Timeout: healthTimeout}
	resp, err := probe.Get(a.apiURL + "/")
	if err != nil {
		logger.Warnf("[Advisor] health check failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warnf("[Advisor] health check failed: status %d", resp.StatusCode)
		return false
	}
	return true
}

// Enabled reports whether the assistant was reachable at startup.
func (a *Advisor) Enabled() bool {
	return a.enabled
}

// GetStatus returns the advisor status snapshot.
func (a *Advisor) GetStatus() Status {
	st := Status{Enabled: a.enabled, APIURL: a.apiURL, ServiceStatus: "offline"}
	if a.enabled {
		st.ServiceStatus = "online"
	}
	return st
}

// ollama chat payloads; port 11434 identifies an Ollama endpoint
type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
}

type simpleRequest struct {
	Message string `json:"message"`
}

type simpleResponse struct {
	Response string `json:"response"`
}

// Chat sends one message and returns the assistant's reply. Returns the
// offline sentinel when the advisor is in fallback mode, and an error on
// transport or decode failure.
func (a *Advisor) Chat(message string) (string, error) {
	if !a.enabled {
		return OfflineSentinel, nil
	}

	isOllama := strings.Contains(a.apiURL, ":11434")

	var payload any
	if isOllama {
		payload = ollamaRequest{
			Model:    "llama3.1:latest",
			Messages: []ollamaMessage{{Role: "user", Content: message}},
			Stream:   false,
		}
	} else {
		payload = simpleRequest{Message: message}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	resp, err := a.client.Post(a.apiURL+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat request: unexpected status %d", resp.StatusCode)
	}

	if isOllama {
		var out ollamaResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode chat response: %w", err)
		}
		return out.Message.Content, nil
	}

	var out simpleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return out.Response, nil
}

// AnalyzeTrade asks the assistant about a pending BUY or SELL and
// returns its recommendation. HOLD signals are never analyzed.
func (a *Advisor) AnalyzeTrade(signal strategy.Signal, price float64, stats strategy.Stats) (string, error) {
	if signal == strategy.SignalHold {
		return "", nil
	}

	prompt := tradeAnalysisPrompt(signal, price, stats)
	logger.Infof("[Advisor] asking about %s trade at $%.2f", signal, price)

	resp, err := a.Chat(prompt)
	if err != nil {
		return "", err
	}
	if resp != "" {
		summary := resp
		if len(summary) > 200 {
			summary = summary[:200] + "..."
		}
		logger.Infof("[Advisor] response: %s", summary)
	}
	return resp, nil
}

// ConfirmTrade runs the analysis and parses the reply into a verdict.
// Any failure to obtain or read a reply declines the trade.
func (a *Advisor) ConfirmTrade(signal strategy.Signal, price float64, stats strategy.Stats) Verdict {
	resp, err := a.AnalyzeTrade(signal, price, stats)
	if err != nil {
		logger.Warnf("[Advisor] confirmation unavailable, declining: %v", err)
		return Verdict{}
	}
	v := ParseConfirmation(resp)
	logger.Infof("[Advisor] verdict for %s: approved=%v (positive=%d negative=%d)",
		signal, v.Approved, v.PositiveCount, v.NegativeCount)
	return v
}

// SendDailySummary reports session results for the assistant to retain.
func (a *Advisor) SendDailySummary(stats strategy.Stats, quoteBalance, baseBalance float64) (string, error) {
	logger.Info("[Advisor] sending daily summary")
	resp, err := a.Chat(dailySummaryPrompt(stats, quoteBalance, baseBalance))
	if err != nil {
		return "", err
	}
	if resp != "" {
		logger.Infof("[Advisor] feedback: %s", resp)
	}
	return resp, nil
}

// AskForSuggestions requests grid spacing advice given current results.
func (a *Advisor) AskForSuggestions(buyThreshold, sellThreshold float64, stats strategy.Stats) (string, error) {
	logger.Info("[Advisor] asking for strategy suggestions")
	resp, err := a.Chat(suggestionsPrompt(buyThreshold, sellThreshold, stats))
	if err != nil {
		return "", err
	}
	if resp != "" {
		logger.Infof("[Advisor] suggestions: %s", resp)
	}
	return resp, nil
}
