package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const ResendBaseURL = "https://api.resend.com"

// ResendError represents a Resend API error
type ResendError struct {
	Message  string
	HTTPCode int
}

func (e *ResendError) Error() string {
	return fmt.Sprintf("resend error [%d]: %s", e.HTTPCode, e.Message)
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// SendContactEmail notifies the site owner about a new contact message via the
// Resend API. source distinguishes the plain contact form from the AI chat
// tool. The returned email id is informational only; callers treat any error
// as non-fatal because the message is already persisted.
func SendContactEmail(name, email, message, source string) (string, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("RESEND_API_KEY not set")
	}

	from := os.Getenv("CONTACT_EMAIL_FROM")
	if from == "" {
		from = "Portfolio Contact <noreply@localhost>"
	}
	to := os.Getenv("CONTACT_EMAIL_TO")
	if to == "" {
		return "", fmt.Errorf("CONTACT_EMAIL_TO not set")
	}

	subject := fmt.Sprintf("New contact message - %s", name)
	if source == "ai_chat" {
		subject = fmt.Sprintf("AI chat message - %s", name)
		message = "[sent via AI chat]\n\n" + message
	}

	reqBody := resendRequest{
		From:    from,
		To:      strings.Split(to, ","),
		Subject: subject,
		HTML:    buildContactEmailHTML(name, email, message),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", ResendBaseURL+"/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", &ResendError{Message: string(bodyBytes), HTTPCode: resp.StatusCode}
	}

	var out resendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.ID, nil
}

func buildContactEmailHTML(name, email, message string) string {
	now := time.Now().Format("02.01.2006 15:04")
	var b strings.Builder
	b.WriteString("<h2>New portfolio message</h2>")
	b.WriteString(fmt.Sprintf("<p><b>Name:</b> %s</p>", html.EscapeString(name)))
	b.WriteString(fmt.Sprintf("<p><b>Email:</b> %s</p>", html.EscapeString(email)))
	b.WriteString(fmt.Sprintf("<p><b>Received:</b> %s</p>", now))
	b.WriteString("<hr>")
	b.WriteString("<p>" + strings.ReplaceAll(html.EscapeString(message), "\n", "<br>") + "</p>")
	return b.String()
}
