package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"salonica-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecipientKind tags the variants of Recipient.
type RecipientKind int

const (
	RecipientUser RecipientKind = iota + 1
	RecipientRole
	RecipientRelatedOwner
	RecipientRelatedUser
)

// Recipient names who a broadcast is for. Build one with ToUser, ToRole,
// Admins, RelatedOwner or RelatedUser.
type Recipient struct {
	Kind   RecipientKind
	UserID uuid.UUID
	Role   string
}

func ToUser(id uuid.UUID) Recipient {
	return Recipient{Kind: RecipientUser, UserID: id}
}

func ToRole(role string) Recipient {
	return Recipient{Kind: RecipientRole, Role: role}
}

func Admins() Recipient {
	return ToRole(models.RoleAdmin)
}

// RelatedOwner resolves to the owner of the salon named by the related id.
func RelatedOwner() Recipient {
	return Recipient{Kind: RecipientRelatedOwner}
}

// RelatedUser resolves to the customer of the appointment named by the
// related id.
func RelatedUser() Recipient {
	return Recipient{Kind: RecipientRelatedUser}
}

type Broadcast struct {
	Recipients []Recipient
	EventType  string
	Title      string
	// Message may hold {name} placeholders filled from Values.
	Message   string
	Values    map[string]any
	RelatedID *uuid.UUID
}

// NotificationService writes notification records and relays them by SMS
// when a messenger is configured.
type NotificationService struct {
	db     *gorm.DB
	sms    Messenger
	logger *zap.Logger
}

// NewNotificationService builds the dispatcher. sms may be nil.
func NewNotificationService(db *gorm.DB, sms Messenger, logger *zap.Logger) *NotificationService {
	return &NotificationService{db: db, sms: sms, logger: logger}
}

// Broadcast resolves every recipient and inserts one record per resolved
// user. Recipients that cannot be resolved are skipped. It returns the
// number of records written.
func (s *NotificationService) Broadcast(ctx context.Context, b Broadcast) (int, error) {
	var records []models.Notification

	var rendered *string
	message := func() string {
		if rendered == nil {
			m := s.render(b.Message, b.Values)
			rendered = &m
		}
		return *rendered
	}

	for _, r := range b.Recipients {
		resolved, err := s.resolve(ctx, r, b, message)
		if err != nil {
			return 0, err
		}
		records = append(records, resolved...)
	}

	if len(records) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return 0, fmt.Errorf("insert notifications: %w", err)
	}

	if s.sms != nil {
		s.relay(ctx, records)
	}
	return len(records), nil
}

func (s *NotificationService) resolve(ctx context.Context, r Recipient, b Broadcast, message func() string) ([]models.Notification, error) {
	db := s.db.WithContext(ctx)

	switch r.Kind {
	case RecipientUser:
		if r.UserID == uuid.Nil {
			return nil, nil
		}
		return []models.Notification{record(r.UserID, b, message())}, nil

	case RecipientRole:
		var ids []uuid.UUID
		if err := db.Model(&models.User{}).Where("role = ?", r.Role).Pluck("id", &ids).Error; err != nil {
			return nil, fmt.Errorf("list users with role %s: %w", r.Role, err)
		}
		out := make([]models.Notification, 0, len(ids))
		for _, id := range ids {
			out = append(out, record(id, b, message()))
		}
		return out, nil

	case RecipientRelatedOwner:
		if b.RelatedID == nil {
			return nil, nil
		}
		var salon models.Salon
		err := db.Select("id", "owner_id", "name").First(&salon, "id = ?", *b.RelatedID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load salon %s: %w", *b.RelatedID, err)
		}
		values := make(map[string]any, len(b.Values)+1)
		values["salon_name"] = salon.Name
		for k, v := range b.Values {
			values[k] = v
		}
		return []models.Notification{record(salon.OwnerID, b, s.render(b.Message, values))}, nil

	case RecipientRelatedUser:
		if b.RelatedID == nil {
			return nil, nil
		}
		var appointment models.Appointment
		err := db.Select("id", "customer_id").First(&appointment, "id = ?", *b.RelatedID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load appointment %s: %w", *b.RelatedID, err)
		}
		return []models.Notification{record(appointment.CustomerID, b, message())}, nil
	}

	return nil, nil
}

// render fills the placeholders of template. A missing key keeps the raw
// template and is logged.
func (s *NotificationService) render(template string, values map[string]any) string {
	message, err := FormatMessage(template, values)
	if err != nil {
		var missing *MissingKeyError
		if errors.As(err, &missing) {
			s.logger.Warn("notification template key missing, using raw template", zap.String("key", missing.Key))
		}
		return template
	}
	return message
}

func (s *NotificationService) relay(ctx context.Context, records []models.Notification) {
	ids := make([]uuid.UUID, 0, len(records))
	for _, n := range records {
		ids = append(ids, n.UserID)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Select("id", "phone").Where("id IN ? AND phone <> ''", ids).Find(&users).Error; err != nil {
		s.logger.Warn("sms relay lookup failed", zap.Error(err))
		return
	}
	phones := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		phones[u.ID] = u.Phone
	}

	for _, n := range records {
		phone, ok := phones[n.UserID]
		if !ok {
			continue
		}
		if err := s.sms.Send(ctx, phone, n.Title+": "+n.Message); err != nil {
			s.logger.Warn("sms relay failed",
				zap.String("user_id", n.UserID.String()),
				zap.String("notification_id", n.ID.String()),
				zap.Error(err))
		}
	}
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	var out []models.Notification
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// History returns every record of eventType tied to relatedID, oldest first.
func (s *NotificationService) History(ctx context.Context, eventType string, relatedID uuid.UUID) ([]models.Notification, error) {
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("notification_type = ? AND related_id = ?", eventType, relatedID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load %s history: %w", eventType, err)
	}
	return out, nil
}

func record(userID uuid.UUID, b Broadcast, message string) models.Notification {
	return models.Notification{
		ID:               uuid.New(),
		UserID:           userID,
		NotificationType: b.EventType,
		Title:            b.Title,
		Message:          message,
		Status:           models.NotificationStatusPending,
		RelatedID:        b.RelatedID,
	}
}

var placeholderRegex = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// MissingKeyError reports a template placeholder absent from the context.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing template key %q", e.Key)
}

// FormatMessage substitutes {name} placeholders from values. Any missing key
// fails the whole substitution.
func FormatMessage(template string, values map[string]any) (string, error) {
	var missing error
	out := placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		v, ok := values[key]
		if !ok {
			if missing == nil {
				missing = &MissingKeyError{Key: key}
			}
			return match
		}
		return fmt.Sprint(v)
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}
