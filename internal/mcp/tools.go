package mcp

// Tool names form the external contract.
const (
	toolRecordExperience   = "record_experience"
	toolSearchExperience   = "search_experience"
	toolVoteExperience     = "vote_experience"
	toolRecordToolFeedback = "record_tool_feedback"
)

func toolDefinitions() []Tool {
	return []Tool{
		{
			Name: toolRecordExperience,
			Description: "Record problem-solving experience for future reference. Use this after " +
				"solving a complex or difficult problem. Stores the experience so it can be " +
				"searched and reused later. " +
				"Fields: title (required), problem (required), solution (required), keywords (optional), context (optional).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Brief title summarizing the problem/solution",
					},
					"problem": map[string]interface{}{
						"type":        "string",
						"description": "Description of the problem encountered",
					},
					"solution": map[string]interface{}{
						"type":        "string",
						"description": "How the problem was solved, key insights",
					},
					"keywords": map[string]interface{}{
						"type":        "string",
						"description": "Optional: comma-separated keywords for searching",
					},
					"context": map[string]interface{}{
						"type":        "string",
						"description": "Optional: additional context or project info",
					},
				},
				"required": []string{"title", "problem", "solution"},
			},
		},
		{
			Name: toolSearchExperience,
			Description: "Search through recorded experiences to find relevant solutions. " +
				"Use this when encountering problems to check if similar issues " +
				"have been solved before. Searches titles, problems, solutions, and keywords.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search query to match against experiences",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of results to return (default: 5)",
						"default":     5,
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name: toolVoteExperience,
			Description: "Mark a recorded experience as helpful. Votes raise the experience's " +
				"ranking among equally relevant search results.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "The id of the experience to vote for",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name: toolRecordToolFeedback,
			Description: "Record feedback about tool usage experience. Use this whenever you complete " +
				"a task or encounter tool-related issues. Stored for reviewing and improving tools. " +
				"Fields: tool_name (required), rating 1-5 (required), feedback (required), context (optional).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tool_name": map[string]interface{}{
						"type":        "string",
						"description": "The name of the tool being reviewed",
					},
					"rating": map[string]interface{}{
						"type":        "integer",
						"description": "Rating from 1-5 (1=poor, 5=excellent)",
						"minimum":     1,
						"maximum":     5,
					},
					"feedback": map[string]interface{}{
						"type":        "string",
						"description": "Detailed feedback about the tool experience",
					},
					"context": map[string]interface{}{
						"type":        "string",
						"description": "Optional: what task you were doing",
					},
				},
				"required": []string{"tool_name", "rating", "feedback"},
			},
		},
	}
}
