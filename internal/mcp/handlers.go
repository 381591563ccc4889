package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/expvault/expvault/internal/analytics"
	"github.com/expvault/expvault/internal/experience"
	"github.com/expvault/expvault/internal/feedback"
	"github.com/expvault/expvault/internal/ledger"
	"github.com/expvault/expvault/internal/tokenizer"
)

func (s *Server) recordExperience(ctx context.Context, req *recordExperienceRequest) CallToolResult {
	if err := experience.ValidateNew(req.Title, req.Problem, req.Solution); err != nil {
		return errorResult(err.Error())
	}

	rec := experience.New(req.Title, req.Problem, req.Solution, req.Keywords, req.Context)
	if err := s.deps.Store.Append(rec); err != nil {
		s.logger.Error("experience append failed", "error", err)
		return errorResult(fmt.Sprintf("Error: %v", err))
	}
	if err := s.deps.Index.Record(rec); err != nil {
		// The record is durable; the next query rebuilds the index.
		s.logger.Error("incremental index update failed", "id", rec.ID, "error", err)
	}
	s.deps.Engine.InvalidateCache(ctx)

	if s.deps.Metrics != nil {
		s.deps.Metrics.ExperiencesRecordedTotal.Inc()
	}
	s.emit(analytics.ExperienceEvent{
		Type:       analytics.EventExperienceRecorded,
		RecordID:   rec.ID,
		TokenCount: len(tokenizer.Tokenize(rec.SearchText())),
		Timestamp:  time.Now(),
	})
	s.logger.Info("experience recorded", "id", rec.ID, "title", rec.Title)

	payload, err := json.Marshal(map[string]string{"id": rec.ID, "title": rec.Title})
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err))
	}
	return textResult(
		string(payload),
		fmt.Sprintf("Experience recorded: '%s' - stored for future reference", rec.Title),
	)
}

func (s *Server) searchExperience(ctx context.Context, req *searchExperienceRequest) CallToolResult {
	start := time.Now()
	results, err := s.deps.Engine.Search(ctx, req.Query, req.Limit)
	if err != nil {
		s.logger.Error("search failed", "query", req.Query, "error", err)
		return errorResult(fmt.Sprintf("Error: %v", err))
	}

	eventType := analytics.EventSearch
	if len(results) == 0 {
		eventType = analytics.EventZeroResult
	}
	s.emit(analytics.SearchEvent{
		Type:      eventType,
		Query:     req.Query,
		Terms:     tokenizer.Tokenize(req.Query),
		Returned:  len(results),
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now(),
	})

	payload, err := json.Marshal(map[string]interface{}{"results": results})
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err))
	}
	return textResult(string(payload))
}

func (s *Server) voteExperience(ctx context.Context, req *voteExperienceRequest) CallToolResult {
	if req.ID == "" {
		return errorResult("id is required")
	}

	status, err := s.deps.Ledger.Vote(req.ID)
	if err != nil {
		s.logger.Error("vote failed", "id", req.ID, "error", err)
		return errorResult(fmt.Sprintf("Error: %v", err))
	}
	if status == ledger.StatusVoted {
		s.deps.Engine.InvalidateCache(ctx)
	}
	s.emit(analytics.VoteEvent{
		Type:      analytics.EventVote,
		RecordID:  req.ID,
		Status:    string(status),
		Timestamp: time.Now(),
	})

	payload, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err))
	}
	return textResult(string(payload))
}

func (s *Server) recordToolFeedback(req *recordToolFeedbackRequest) CallToolResult {
	entry := feedback.New(req.ToolName, req.Rating, req.Feedback, req.Context)
	if err := entry.Validate(); err != nil {
		return errorResult(err.Error())
	}
	if err := s.deps.Feedback.Append(entry); err != nil {
		s.logger.Error("feedback append failed", "error", err)
		return errorResult(fmt.Sprintf("Error: %v", err))
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.FeedbackRatings.Observe(float64(req.Rating))
	}
	s.emit(analytics.FeedbackEvent{
		Type:      analytics.EventFeedback,
		ToolName:  req.ToolName,
		Rating:    req.Rating,
		Timestamp: time.Now(),
	})

	preview := req.Feedback
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return textResult(fmt.Sprintf("Feedback recorded for '%s': %d/5 - %s", req.ToolName, req.Rating, preview))
}

func (s *Server) emit(event interface{}) {
	if s.deps.Collector != nil {
		s.deps.Collector.Emit(event)
	}
}
