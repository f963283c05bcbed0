package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// PushResult is the per-token outcome of a multicast send.
type PushResult struct {
	Token string `json:"token"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PushSender delivers one payload to many device tokens in a single call.
type PushSender interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) ([]PushResult, error)
}

// ExpoPushClient sends push notifications through the Expo Push API.
// It is constructed once and injected into the notification service.
type ExpoPushClient struct {
	url    string
	client *http.Client
}

func NewExpoPushClient(url string) *ExpoPushClient {
	return &ExpoPushClient{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type expoMessage struct {
	To        []string               `json:"to"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Sound     string                 `json:"sound"`
	Priority  string                 `json:"priority"`
	ChannelID string                 `json:"channelId"`
}

type expoTicket struct {
	Status  string `json:"status"` // ok | error
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type expoResponse struct {
	Data []expoTicket `json:"data"`
}

// SendMulticast addresses all tokens in one Expo request. The Expo API
// returns one ticket per recipient in request order.
func (e *ExpoPushClient) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) ([]PushResult, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	payload := expoMessage{
		To:        tokens,
		Title:     title,
		Body:      body,
		Data:      data,
		Sound:     "default",
		Priority:  "high",
		ChannelID: "hr_updates",
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		log.Printf("❌ Expo request failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		log.Printf("❌ Expo push send failed: %s - %s", resp.Status, string(respBody))
		return nil, fmt.Errorf("expo push failed: %s", resp.Status)
	}

	var parsed expoResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		log.Printf("⚠️ Could not parse Expo response, assuming delivered: %v", err)
		results := make([]PushResult, len(tokens))
		for i, t := range tokens {
			results[i] = PushResult{Token: t, OK: true}
		}
		return results, nil
	}

	results := make([]PushResult, 0, len(tokens))
	for i, t := range tokens {
		if i < len(parsed.Data) {
			ticket := parsed.Data[i]
			ok := ticket.Status == "ok"
			errMsg := ""
			if !ok {
				errMsg = ticket.Details.Error
				if errMsg == "" {
					errMsg = ticket.Message
				}
				// Permanent failures (DeviceNotRegistered) are logged so
				// tokens can be pruned; see NotificationService.
				log.Printf("⚠️ Push to token %s rejected: %s", t, errMsg)
			}
			results = append(results, PushResult{Token: t, OK: ok, Error: errMsg})
		} else {
			results = append(results, PushResult{Token: t, OK: true})
		}
	}
	return results, nil
}
