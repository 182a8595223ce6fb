package telegram

import (
	"encoding/json"
	"log"
	"net/http"

	"portfolio/utils"
)

// WebhookHandler receives Telegram updates. It always answers 200 so
// Telegram does not retry updates we chose to drop.
func WebhookHandler(co *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			log.Printf("[Handoff] malformed webhook payload: %v", err)
			utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "ignored"})
			return
		}

		co.HandleUpdate(&update)
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "ok"})
	}
}
