package middleware

import (
	"bytes"
	"context"
	"encoding/json"

	"salonica-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const notifyContextKey = "notify_context"

const (
	defaultEventType = "system_event"
	defaultTitle     = "System Notification"
	defaultMessage   = "A new event occurred."
)

// Broadcaster writes notifications for a finished state change.
type Broadcaster interface {
	Broadcast(ctx context.Context, b services.Broadcast) (int, error)
}

// NotifySpec describes the notification a route emits on success.
type NotifySpec struct {
	Recipients      []services.Recipient
	EventType       string
	Title           string
	MessageTemplate string
	// RelatedKey names the route param holding the related id. When empty
	// salon_id, appointment_id and user_id are tried in that order.
	RelatedKey string
}

// SetNotifyContext exposes a value to the message template of the route's
// notification.
func SetNotifyContext(c *gin.Context, key string, value any) {
	values, _ := c.Get(notifyContextKey)
	m, ok := values.(map[string]any)
	if !ok {
		m = map[string]any{}
		c.Set(notifyContextKey, m)
	}
	m[key] = value
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Notify runs the handler and, when it answered 2xx, broadcasts spec.
// Notification failures are logged and never change the response.
func Notify(b Broadcaster, logger *zap.Logger, spec NotifySpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		defer func() {
			if r := recover(); r != nil {
				logger.Error("notify panicked", zap.Any("panic", r), zap.String("path", c.FullPath()))
			}
		}()

		var payload map[string]any
		if writer.body.Len() > 0 {
			if err := json.Unmarshal(writer.body.Bytes(), &payload); err != nil {
				payload = nil
			}
		}

		message := spec.MessageTemplate
		if message == "" {
			message = defaultMessage
		}

		eventType := spec.EventType
		if eventType == "" {
			eventType = defaultEventType
		}
		title := spec.Title
		if title == "" {
			title = defaultTitle
		}

		_, err := b.Broadcast(c.Request.Context(), services.Broadcast{
			Recipients: spec.Recipients,
			EventType:  eventType,
			Title:      title,
			Message:    message,
			Values:     templateValues(c, payload),
			RelatedID:  relatedID(c, spec.RelatedKey, payload),
		})
		if err != nil {
			logger.Warn("failed to send notification", zap.String("event_type", eventType), zap.Error(err))
		}
	}
}

// templateValues merges identity, handler context, response payload and
// route params. Later sources win.
func templateValues(c *gin.Context, payload map[string]any) map[string]any {
	values := map[string]any{}
	if identity, ok := CurrentIdentity(c); ok {
		values["user_id"] = identity.UserID.String()
		values["user_role"] = identity.Role
	}
	if extra, ok := c.Get(notifyContextKey); ok {
		if m, ok := extra.(map[string]any); ok {
			for k, v := range m {
				values[k] = v
			}
		}
	}
	for k, v := range payload {
		values[k] = v
	}
	for _, p := range c.Params {
		values[p.Key] = p.Value
	}
	return values
}

func relatedID(c *gin.Context, key string, payload map[string]any) *uuid.UUID {
	var candidates []string
	if key != "" {
		candidates = append(candidates, c.Param(key))
	} else {
		candidates = append(candidates, c.Param("salon_id"), c.Param("appointment_id"), c.Param("user_id"))
	}
	for _, k := range []string{"salon_id", "appointment_id"} {
		if v, ok := payload[k].(string); ok {
			candidates = append(candidates, v)
		}
	}

	for _, raw := range candidates {
		if raw == "" {
			continue
		}
		if id, err := uuid.Parse(raw); err == nil {
			return &id
		}
	}
	return nil
}
