package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/expvault/expvault/internal/analytics"
	"github.com/expvault/expvault/internal/feedback"
	"github.com/expvault/expvault/internal/index"
	"github.com/expvault/expvault/internal/ledger"
	"github.com/expvault/expvault/internal/search"
	"github.com/expvault/expvault/internal/store"
	"github.com/expvault/expvault/pkg/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	st := store.New(filepath.Join(dir, "experience.jsonl"))
	fb := feedback.NewLog(filepath.Join(dir, "feedback-tools.jsonl"))
	idx := index.NewManager(st, filepath.Join(dir, "experience-index.json"), config.PolicyIncremental, nil)
	engine := search.NewEngine(st, idx, nil, 5, 50, nil)
	return NewServer(Deps{
		Store:     st,
		Feedback:  fb,
		Index:     idx,
		Engine:    engine,
		Ledger:    ledger.New(st, idx, nil),
		Collector: analytics.NewCollector(nil, 0),
	})
}

func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) CallToolResult {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	params, err := json.Marshal(CallToolParams{Name: name, Arguments: argsJSON})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	resp := s.handleRequest(context.Background(), &Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatalf("no response for tools/call %s", name)
	}
	if resp.Error != nil {
		t.Fatalf("tools/call %s failed: %+v", name, resp.Error)
	}
	result, ok := resp.Result.(CallToolResult)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	return result
}

func firstText(t *testing.T, result CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatalf("result has no content")
	}
	return result.Content[0].Text
}

func TestInitialize(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &Request{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	if resp == nil || resp.Error != nil {
		t.Fatalf("initialize failed: %+v", resp)
	}
	init, ok := resp.Result.(InitializeResult)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	if init.ServerInfo.Name != "expvault" {
		t.Errorf("server name = %q", init.ServerInfo.Name)
	}
	if init.Capabilities.Tools == nil {
		t.Errorf("tools capability not advertised")
	}
}

func TestListTools(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &Request{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	list, ok := resp.Result.(ListToolsResult)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	want := []string{toolRecordExperience, toolSearchExperience, toolVoteExperience, toolRecordToolFeedback}
	if len(list.Tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(list.Tools), len(want))
	}
	for i, tool := range list.Tools {
		if tool.Name != want[i] {
			t.Errorf("tool %d = %s, want %s", i, tool.Name, want[i])
		}
		if tool.InputSchema == nil {
			t.Errorf("tool %s has no input schema", tool.Name)
		}
	}
}

func TestRecordThenSearch(t *testing.T) {
	s := newTestServer(t)

	result := callTool(t, s, toolRecordExperience, map[string]interface{}{
		"title":    "Fix flaky websocket reconnect",
		"problem":  "client dropped messages during reconnect",
		"solution": "buffer outbound frames until the session resumes",
		"keywords": "websocket,reconnect",
	})
	if result.IsError {
		t.Fatalf("record_experience failed: %s", firstText(t, result))
	}
	var recorded struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(firstText(t, result)), &recorded); err != nil {
		t.Fatalf("record payload not JSON: %v", err)
	}
	if recorded.ID == "" {
		t.Fatalf("no id assigned")
	}

	result = callTool(t, s, toolSearchExperience, map[string]interface{}{
		"query": "websocket reconnect",
	})
	if result.IsError {
		t.Fatalf("search_experience failed: %s", firstText(t, result))
	}
	var searched struct {
		Results []struct {
			ID    string `json:"id"`
			Score int    `json:"score"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(firstText(t, result)), &searched); err != nil {
		t.Fatalf("search payload not JSON: %v", err)
	}
	if len(searched.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(searched.Results))
	}
	if searched.Results[0].ID != recorded.ID {
		t.Errorf("result id = %s, want %s", searched.Results[0].ID, recorded.ID)
	}
	if searched.Results[0].Score < 1 {
		t.Errorf("score = %d, want >= 1", searched.Results[0].Score)
	}
}

func TestRecordExperienceValidation(t *testing.T) {
	s := newTestServer(t)
	result := callTool(t, s, toolRecordExperience, map[string]interface{}{
		"title": "no problem or solution",
	})
	if !result.IsError {
		t.Fatalf("missing required fields accepted")
	}
	text := firstText(t, result)
	if !strings.Contains(text, "problem") || !strings.Contains(text, "solution") {
		t.Errorf("error %q does not name the missing fields", text)
	}
}

func TestVoteFlow(t *testing.T) {
	s := newTestServer(t)
	result := callTool(t, s, toolRecordExperience, map[string]interface{}{
		"title":    "Tune GC pauses",
		"problem":  "p99 latency spikes",
		"solution": "set GOGC and soft memory limit",
	})
	var recorded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(firstText(t, result)), &recorded); err != nil {
		t.Fatalf("record payload not JSON: %v", err)
	}

	result = callTool(t, s, toolVoteExperience, map[string]interface{}{"id": recorded.ID})
	if got := firstText(t, result); !strings.Contains(got, `"voted"`) {
		t.Errorf("vote result = %s, want voted", got)
	}

	result = callTool(t, s, toolVoteExperience, map[string]interface{}{"id": "exp-missing"})
	if got := firstText(t, result); !strings.Contains(got, `"not_found"`) {
		t.Errorf("vote result = %s, want not_found", got)
	}
}

func TestRecordToolFeedback(t *testing.T) {
	s := newTestServer(t)

	result := callTool(t, s, toolRecordToolFeedback, map[string]interface{}{
		"tool_name": "search_experience",
		"rating":    5,
		"feedback":  "found the answer on the first query",
	})
	if result.IsError {
		t.Fatalf("feedback rejected: %s", firstText(t, result))
	}
	if got := firstText(t, result); !strings.Contains(got, "search_experience") || !strings.Contains(got, "5/5") {
		t.Errorf("ack = %q", got)
	}

	result = callTool(t, s, toolRecordToolFeedback, map[string]interface{}{
		"tool_name": "search_experience",
		"rating":    9,
		"feedback":  "out of range",
	})
	if !result.IsError {
		t.Fatalf("out-of-range rating accepted")
	}
	if got := firstText(t, result); !strings.Contains(got, "between 1 and 5") {
		t.Errorf("error = %q", got)
	}
}

func TestUnknownToolAndMethod(t *testing.T) {
	s := newTestServer(t)

	params, _ := json.Marshal(CallToolParams{Name: "no_such_tool", Arguments: json.RawMessage("{}")})
	resp := s.handleRequest(context.Background(), &Request{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	if resp.Error == nil {
		t.Errorf("unknown tool did not produce an error")
	}

	resp = s.handleRequest(context.Background(), &Request{JSONRPC: "2.0", ID: 2, Method: "resources/list"})
	if resp.Error == nil {
		t.Errorf("unknown method did not produce an error")
	}

	resp = s.handleRequest(context.Background(), &Request{JSONRPC: "2.0", Method: "notifications/initialized"})
	if resp != nil {
		t.Errorf("notification produced a response: %+v", resp)
	}
}

func TestRunOverPipes(t *testing.T) {
	s := newTestServer(t)

	var in bytes.Buffer
	lines := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`not json at all`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}
	for _, l := range lines {
		fmt.Fprintln(&in, l)
	}
	var out bytes.Buffer
	s.in = &in
	s.out = &out

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	responses := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(responses) != 3 {
		t.Fatalf("got %d responses, want 3 (init, parse error, list)", len(responses))
	}
	var parseErr Response
	if err := json.Unmarshal([]byte(responses[1]), &parseErr); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if parseErr.Error == nil || parseErr.Error.Code != -32700 {
		t.Errorf("malformed input response = %+v, want parse error", parseErr)
	}
}
