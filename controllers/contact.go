package controllers

import (
	"log"
	"net/http"
	"strings"

	"portfolio/database"
	"portfolio/middleware"
	"portfolio/models"
	"portfolio/utils"
)

// ContactRequest is a direct contact-form submission.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,nameok"`
	Email   string `json:"email" validate:"required,emailok"`
	Message string `json:"message" validate:"required,msgmax"`
}

// ContactHandler persists a contact-form submission and fires the email
// notification. Success is reported once the record is saved; a failed email
// only adds a warning.
func ContactHandler(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	msg, err := models.SaveContactMessage(database.DB, req.Name, req.Email, req.Message, models.ContactSourceForm)
	if err != nil {
		log.Printf("[Contact] failed to save message: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to save your message. Please try again.",
		})
		return
	}

	emailed := true
	if _, err := utils.SendContactEmail(req.Name, req.Email, req.Message, models.ContactSourceForm); err != nil {
		emailed = false
		log.Printf("[Contact] email failed (record %d saved): %v", msg.ID, err)
	}

	resp := utils.APIResponse{
		Success: true,
		Message: "Message received",
		Data:    map[string]any{"id": msg.ID, "emailed": emailed},
	}
	if !emailed {
		resp.Message = "Message received (notification delayed)"
	}
	utils.WriteJSON(w, http.StatusCreated, resp)
}
