package mcp

import (
	"encoding/json"

	pkgerrors "github.com/expvault/expvault/pkg/errors"
)

// toolRequest is the closed set of operations the server accepts. Each tool
// name decodes into its own typed argument struct; dispatch is an exhaustive
// type switch, never a string comparison past this boundary.
type toolRequest interface {
	isToolRequest()
}

type recordExperienceRequest struct {
	Title    string `json:"title"`
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
	Keywords string `json:"keywords"`
	Context  string `json:"context"`
}

type searchExperienceRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type voteExperienceRequest struct {
	ID string `json:"id"`
}

type recordToolFeedbackRequest struct {
	ToolName string `json:"tool_name"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
	Context  string `json:"context"`
}

func (*recordExperienceRequest) isToolRequest()   {}
func (*searchExperienceRequest) isToolRequest()   {}
func (*voteExperienceRequest) isToolRequest()     {}
func (*recordToolFeedbackRequest) isToolRequest() {}

// decodeToolRequest maps a tool name and raw arguments to a typed request.
func decodeToolRequest(name string, args json.RawMessage) (toolRequest, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	var (
		req toolRequest
		err error
	)
	switch name {
	case toolRecordExperience:
		r := &recordExperienceRequest{}
		err = json.Unmarshal(args, r)
		req = r
	case toolSearchExperience:
		r := &searchExperienceRequest{}
		err = json.Unmarshal(args, r)
		req = r
	case toolVoteExperience:
		r := &voteExperienceRequest{}
		err = json.Unmarshal(args, r)
		req = r
	case toolRecordToolFeedback:
		r := &recordToolFeedbackRequest{}
		err = json.Unmarshal(args, r)
		req = r
	default:
		return nil, pkgerrors.Newf(pkgerrors.ErrUnknownTool,
			pkgerrors.CodeMethodNotFound, "unknown tool: %s", name)
	}
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.ErrInvalidInput,
			pkgerrors.CodeInvalidParams, "invalid arguments for %s: %v", name, err)
	}
	return req, nil
}
