package chat

import (
	"net/http"

	"github.com/focusloop/focusbot/internal/httputil"
	"github.com/focusloop/focusbot/internal/svc"
	"github.com/focusloop/focusbot/internal/types"
)

// ChatHandler routes one message through the conversational agent and
// returns the reply. Same path a Slack message takes, minus the transport.
func ChatHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if req.Message == "" {
			httputil.BadRequest(w, "message is required")
			return
		}
		if req.ChannelID == "" {
			req.ChannelID = "api"
		}

		reply := svcCtx.Agent.HandleMessage(r.Context(), req.Message, req.ChannelID)
		httputil.OkJSON(w, types.ChatResponse{Reply: reply})
	}
}
