package handlers

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/julienschmidt/httprouter"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"omvsetup/constants"
	"omvsetup/flow"
	"omvsetup/i18n"
	"omvsetup/logger"
)

// FlowHandler drives setup and options flows over HTTP.
type FlowHandler struct {
	manager  *flow.Manager
	sessions *scs.SessionManager
}

// NewFlowHandler creates a new FlowHandler
func NewFlowHandler(manager *flow.Manager, sessions *scs.SessionManager) *FlowHandler {
	return &FlowHandler{manager: manager, sessions: sessions}
}

// RegisterRoutes registers the flow routes
func (h *FlowHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/setup", h.StartSetupHandler)
	router.POST("/api/setup/import", h.ImportHandler)
	router.POST("/api/entries/:id/options", h.StartOptionsHandler)
	router.GET("/api/flows/:flow_id", h.CurrentHandler)
	router.POST("/api/flows/:flow_id", h.ConfigureHandler)
	router.DELETE("/api/flows/:flow_id", h.AbortHandler)
}

type fieldView struct {
	Name     string      `json:"name"`
	Label    string      `json:"label"`
	Type     string      `json:"type"`
	Required bool        `json:"required"`
	Default  interface{} `json:"default"`
}

type resultView struct {
	FlowID   string                 `json:"flow_id"`
	Handler  string                 `json:"handler"`
	Type     string                 `json:"type"`
	StepID   string                 `json:"step_id,omitempty"`
	Fields   []fieldView            `json:"fields,omitempty"`
	Errors   map[string]string      `json:"errors,omitempty"`
	Messages map[string]string      `json:"messages,omitempty"`
	LastStep bool                   `json:"last_step,omitempty"`
	Title    *string                `json:"title,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	EntryID  string                 `json:"entry_id,omitempty"`
}

func newResultView(res *flow.Result, localizer *goi18n.Localizer) resultView {
	v := resultView{
		FlowID:  res.FlowID,
		Handler: res.Handler,
		Type:    string(res.Type),
	}
	if res.Form != nil {
		v.StepID = res.Form.StepID
		v.LastStep = res.Form.LastStep
		v.Errors = res.Form.Errors
		if len(res.Form.Errors) > 0 {
			v.Messages = i18n.FormErrors(localizer, res.Form.Errors)
		}
		for _, fd := range res.Form.Fields {
			def := fd.Default
			// The password default is the submitted secret on a re-render; never echo it.
			if fd.Name == constants.ConfPassword {
				def = nil
			}
			v.Fields = append(v.Fields, fieldView{
				Name:     fd.Name,
				Label:    i18n.FieldLabel(localizer, fd.Name),
				Type:     string(fd.Type),
				Required: fd.Required,
				Default:  def,
			})
		}
	}
	if res.Terminal() {
		title := res.Title
		v.Title = &title
		v.EntryID = res.EntryID
		v.Data = redact(res.Data)
	}
	return v
}

func redact(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for k, val := range data {
		out[k] = val
	}
	if _, ok := out[constants.ConfPassword]; ok {
		out[constants.ConfPassword] = "**REDACTED**"
	}
	return out
}

// respond writes a step result and keeps the session binding in sync.
func (h *FlowHandler) respond(w http.ResponseWriter, r *http.Request, res *flow.Result, status int) {
	key := flowKeyPrefix + res.FlowID
	if res.Terminal() {
		h.sessions.Remove(r.Context(), key)
	} else {
		h.sessions.Put(r.Context(), key, true)
	}
	writeJSON(w, status, newResultView(res, i18n.GetLocalizer(r)))
}

// owns reports whether the caller's session started flowID.
func (h *FlowHandler) owns(r *http.Request, flowID string) bool {
	return h.sessions.GetBool(r.Context(), flowKeyPrefix+flowID)
}

// StartSetupHandler starts a setup flow. A body is treated as the first submission.
func (h *FlowHandler) StartSetupHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	input, err := decodeInput(r)
	if err != nil {
		RespondWithError(w, r, ErrBadRequest, err.Error())
		return
	}
	res, err := h.manager.InitSetup(r.Context(), constants.StepUser, input)
	if err != nil {
		respondWithFlowError(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

// ImportHandler re-runs a setup from a complete record.
func (h *FlowHandler) ImportHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	input, err := decodeInput(r)
	if err != nil {
		RespondWithError(w, r, ErrBadRequest, err.Error())
		return
	}
	if input == nil {
		RespondWithError(w, r, ErrBadRequest, "import requires a record")
		return
	}
	res, err := h.manager.InitSetup(r.Context(), constants.StepImport, input)
	if err != nil {
		respondWithFlowError(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

// StartOptionsHandler opens the options flow of an entry.
func (h *FlowHandler) StartOptionsHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.manager.InitOptions(r.Context(), ps.ByName("id"))
	if err != nil {
		respondWithFlowError(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

// CurrentHandler re-renders the form a flow is waiting on.
func (h *FlowHandler) CurrentHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	flowID := ps.ByName("flow_id")
	if !h.owns(r, flowID) {
		RespondWithError(w, r, ErrUnknownFlow, "")
		return
	}
	res, err := h.manager.Current(flowID)
	if err != nil {
		respondWithFlowError(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

// ConfigureHandler submits a step.
func (h *FlowHandler) ConfigureHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	flowID := ps.ByName("flow_id")
	if !h.owns(r, flowID) {
		RespondWithError(w, r, ErrUnknownFlow, "")
		return
	}
	input, err := decodeInput(r)
	if err != nil {
		RespondWithError(w, r, ErrBadRequest, err.Error())
		return
	}
	res, err := h.manager.Configure(r.Context(), flowID, input)
	if err != nil {
		respondWithFlowError(w, r, err)
		return
	}
	h.respond(w, r, res, http.StatusOK)
}

// AbortHandler drops a flow without side effects.
func (h *FlowHandler) AbortHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	flowID := ps.ByName("flow_id")
	if !h.owns(r, flowID) {
		RespondWithError(w, r, ErrUnknownFlow, "")
		return
	}
	if err := h.manager.Abort(flowID); err != nil {
		respondWithFlowError(w, r, err)
		return
	}
	h.sessions.Remove(r.Context(), flowKeyPrefix+flowID)
	logger.Get().Debug().Str("flow_id", flowID).Msg("Flow aborted by client")
	w.WriteHeader(http.StatusNoContent)
}
