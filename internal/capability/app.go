package capability

import (
	"context"

	"github.com/dioko-ai/bob/internal/orchestrator"
	"github.com/dioko-ai/bob/internal/sessionstore"
)

// TextResult is the {text} response shape shared by every app.prepare_*
// capability.
type TextResult struct {
	Text string `json:"text"`
}

func openServiceForSession(sessionID string) (*sessionstore.Handle, *orchestrator.Service, *Error) {
	h, err := sessionstore.Open(sessionID)
	if err != nil {
		return nil, nil, translateSessionOpenErr(err)
	}
	return h, orchestrator.NewService(h, nil, nil), nil
}

type AppPrepareMasterPromptPayload struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type appPrepareMasterPromptCapability struct{}

func (appPrepareMasterPromptCapability) Name() string          { return "app.prepare_master_prompt" }
func (appPrepareMasterPromptCapability) Operation() OperationType { return OpRead }
func (appPrepareMasterPromptCapability) Handle(ctx context.Context, req RequestEnvelope) ResponseEnvelope {
	p, ok := req.Payload.(AppPrepareMasterPromptPayload)
	if !ok {
		return Err(req, InvalidRequest("app.prepare_master_prompt requires an AppPrepareMasterPromptPayload"))
	}
	h, svc, capErr := openServiceForSession(p.SessionID)
	if capErr != nil {
		return Err(req, capErr)
	}
	defer h.Close()
	defer svc.Close()

	text, err := svc.PrepareMasterPrompt(ctx, p.Message)
	if err != nil {
		return Err(req, IOFailure(err.Error()))
	}
	return Ok(req, TextResult{Text: text})
}

type AppPreparePlannerPromptPayload struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type appPreparePlannerPromptCapability struct{}

func (appPreparePlannerPromptCapability) Name() string          { return "app.prepare_planner_prompt" }
func (appPreparePlannerPromptCapability) Operation() OperationType { return OpRead }
func (appPreparePlannerPromptCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	p, ok := req.Payload.(AppPreparePlannerPromptPayload)
	if !ok {
		return Err(req, InvalidRequest("app.prepare_planner_prompt requires an AppPreparePlannerPromptPayload"))
	}
	h, svc, capErr := openServiceForSession(p.SessionID)
	if capErr != nil {
		return Err(req, capErr)
	}
	defer h.Close()
	defer svc.Close()

	plannerMD, err := h.ReadPlanner()
	if err != nil {
		return Err(req, IOFailure(err.Error()))
	}
	projectInfoMD, err := h.ReadProjectInfo()
	if err != nil {
		return Err(req, IOFailure(err.Error()))
	}

	text := svc.PreparePlannerPrompt(p.Message, plannerMD, projectInfoMD)
	return Ok(req, TextResult{Text: text})
}

type appPrepareAttachDocsPromptCapability struct{}

func (appPrepareAttachDocsPromptCapability) Name() string          { return "app.prepare_attach_docs_prompt" }
func (appPrepareAttachDocsPromptCapability) Operation() OperationType { return OpRead }
func (appPrepareAttachDocsPromptCapability) Handle(_ context.Context, req RequestEnvelope) ResponseEnvelope {
	sessionID, ok := sessionIDFromPayload(req)
	if !ok {
		return Err(req, InvalidRequest("app.prepare_attach_docs_prompt requires a SessionIDPayload"))
	}
	h, svc, capErr := openServiceForSession(sessionID)
	if capErr != nil {
		return Err(req, capErr)
	}
	defer h.Close()
	defer svc.Close()

	text, err := svc.PrepareAttachDocsPrompt()
	if err != nil {
		return Err(req, IOFailure(err.Error()))
	}
	return Ok(req, TextResult{Text: text})
}

// RegisterAppCapabilities registers every app.prepare_* capability.
func RegisterAppCapabilities() {
	Register(appPrepareMasterPromptCapability{})
	Register(appPreparePlannerPromptCapability{})
	Register(appPrepareAttachDocsPromptCapability{})
}
