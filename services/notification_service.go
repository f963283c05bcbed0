package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"regexp"

	"ehrm-server/models"
	"ehrm-server/types"
)

// NotificationStore is the persistence surface the dispatcher needs.
type NotificationStore interface {
	GetTemplate(ctx context.Context, trigger string) (*models.NotificationTemplate, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListActivePushTokens(ctx context.Context, userID uint) ([]models.PushToken, error)
	DeactivatePushToken(ctx context.Context, token string) error
}

// EventPublisher receives a copy of every persisted notification, e.g. to
// feed the admin panel's live WebSocket stream.
type EventPublisher interface {
	PublishNotification(n *models.Notification)
}

// DispatchResult reports the outcome of one dispatch attempt.
type DispatchResult struct {
	Delivered bool   `json:"delivered"`
	Reason    string `json:"reason,omitempty"`
}

// Dispatch triggers understood by the built-in fallback table.
const (
	TriggerPengajuanDibuat      = "pengajuan_dibuat"
	TriggerPengajuanDisetujui   = "pengajuan_disetujui"
	TriggerPengajuanDitolak     = "pengajuan_ditolak"
	TriggerPengajuanNaikLevel   = "pengajuan_naik_level"
	TriggerPengingatPersetujuan = "pengingat_persetujuan"
)

type builtinMessage struct {
	Title string
	Body  string
}

// builtinMessages is used when no active database template exists for a
// trigger. Placeholders follow the same {key} substitution rule as stored
// templates.
var builtinMessages = map[string]builtinMessage{
	TriggerPengajuanDibuat: {
		Title: "Pengajuan Baru",
		Body:  "{nama} mengajukan {kategori} dan menunggu persetujuan Anda.",
	},
	TriggerPengajuanDisetujui: {
		Title: "Pengajuan Disetujui",
		Body:  "Pengajuan {kategori} Anda telah disetujui.",
	},
	TriggerPengajuanDitolak: {
		Title: "Pengajuan Ditolak",
		Body:  "Pengajuan {kategori} Anda ditolak. Catatan: {catatan}",
	},
	TriggerPengajuanNaikLevel: {
		Title: "Pengajuan Diproses",
		Body:  "Pengajuan {kategori} Anda disetujui di level {level} dan menunggu persetujuan berikutnya.",
	},
	TriggerPengingatPersetujuan: {
		Title: "Pengingat Persetujuan",
		Body:  "Pengajuan {kategori} dari {nama} masih menunggu keputusan Anda.",
	},
}

var genericMessage = builtinMessage{
	Title: "Pemberitahuan",
	Body:  "Ada pembaruan untuk Anda di aplikasi E-HRM.",
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// FormatMessage substitutes {placeholder} tokens with matching keys from
// data. Unmatched placeholders are left literal.
func FormatMessage(template string, data map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		if val, ok := data[key]; ok {
			return val
		}
		return match
	})
}

// NotificationService formats a message for an event trigger, persists the
// in-app notification exactly once per dedupe key, and fans it out to the
// user's registered push tokens.
type NotificationService struct {
	store     NotificationStore
	push      PushSender
	publisher EventPublisher
}

func NewNotificationService(store NotificationStore, push PushSender) *NotificationService {
	return &NotificationService{store: store, push: push}
}

// SetPublisher attaches a live event publisher. Optional.
func (s *NotificationService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

// Dispatch never returns an error to the caller: decisions must not roll
// back because a notification failed. All failures are logged and reported
// through the result.
func (s *NotificationService) Dispatch(ctx context.Context, trigger string, userID uint, data map[string]string, dedupeKey string) DispatchResult {
	title, body := s.resolveMessage(ctx, trigger, data)

	payload := map[string]string{"trigger": trigger, "dedupe_key": dedupeKey}
	for k, v := range data {
		payload[k] = v
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		log.Printf("❌ Failed to encode notification payload for user %d: %v", userID, err)
		return DispatchResult{Delivered: false, Reason: "error"}
	}

	notification := &models.Notification{
		UserID:  userID,
		Title:   title,
		Body:    body,
		Trigger: trigger,
		Data:    string(payloadJSON),
	}
	if dedupeKey != "" {
		notification.DedupeKey = &dedupeKey
	}

	if err := s.store.CreateNotification(ctx, notification); err != nil {
		if errors.Is(err, types.ErrConflict) {
			log.Printf("⚠️ Duplicate notification suppressed for user %d (dedupe %s)", userID, dedupeKey)
			return DispatchResult{Delivered: false, Reason: "duplicate"}
		}
		log.Printf("❌ Failed to persist notification for user %d: %v", userID, err)
		return DispatchResult{Delivered: false, Reason: "error"}
	}

	if s.publisher != nil {
		s.publisher.PublishNotification(notification)
	}

	tokens, err := s.store.ListActivePushTokens(ctx, userID)
	if err != nil {
		log.Printf("❌ Failed to load push tokens for user %d: %v", userID, err)
		return DispatchResult{Delivered: false, Reason: "error"}
	}
	if len(tokens) == 0 {
		// In-app record exists, there is just nothing to push to.
		return DispatchResult{Delivered: true, Reason: "no_devices"}
	}

	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}

	pushData := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		pushData[k] = v
	}

	results, err := s.push.SendMulticast(ctx, tokenStrings, title, body, pushData)
	if err != nil {
		log.Printf("❌ Push multicast failed for user %d: %v", userID, err)
		return DispatchResult{Delivered: false, Reason: "error"}
	}

	for _, r := range results {
		if !r.OK && r.Error == "DeviceNotRegistered" {
			if err := s.store.DeactivatePushToken(ctx, r.Token); err != nil {
				log.Printf("⚠️ Could not deactivate dead push token: %v", err)
			} else {
				log.Printf("🧹 Deactivated dead push token for user %d", userID)
			}
		}
	}

	return DispatchResult{Delivered: true}
}

// resolveMessage picks the database template when one is active, then the
// built-in table, then the generic fallback, and renders it.
func (s *NotificationService) resolveMessage(ctx context.Context, trigger string, data map[string]string) (string, string) {
	tpl, err := s.store.GetTemplate(ctx, trigger)
	if err != nil {
		log.Printf("⚠️ Template lookup failed for trigger %s: %v", trigger, err)
	}
	if tpl != nil && tpl.IsActive {
		return FormatMessage(tpl.TitleTemplate, data), FormatMessage(tpl.BodyTemplate, data)
	}

	msg, ok := builtinMessages[trigger]
	if !ok {
		msg = genericMessage
	}
	return FormatMessage(msg.Title, data), FormatMessage(msg.Body, data)
}
