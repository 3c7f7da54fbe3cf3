package services

import (
	"context"
	"fmt"
	"time"

	"salonica-backend/models"
	"salonica-backend/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DashboardOverview struct {
	UsersByRole          map[string]int64      `json:"users_by_role"`
	SalonsByStatus       map[string]int64      `json:"salons_by_status"`
	AppointmentsByStatus map[string]int64      `json:"appointments_by_status"`
	UpcomingAppointments []UpcomingDay         `json:"upcoming_appointments"`
	PendingSalons        []PendingSalon        `json:"pending_salons"`
	RecentNotifications  []models.Notification `json:"recent_notifications"`
}

type UpcomingDay struct {
	Date  string `json:"date"`
	Label string `json:"label"` // e.g. "Today", "Tomorrow", "3 days"
	Count int64  `json:"count"`
}

type PendingSalon struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Submitted string `json:"submitted"` // e.g. "Today", "Yesterday", "4 days ago"
}

type countRow struct {
	GroupKey string
	Total    int64
}

// DashboardService aggregates platform wide counters for administrators.
type DashboardService struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewDashboardService(db *gorm.DB, logger *zap.Logger) *DashboardService {
	return &DashboardService{db: db, logger: logger, now: time.Now}
}

func (s *DashboardService) Overview(ctx context.Context) (*DashboardOverview, error) {
	db := s.db.WithContext(ctx)
	out := &DashboardOverview{}
	var err error

	if out.UsersByRole, err = groupCount(db.Model(&models.User{}), "role", models.Roles); err != nil {
		return nil, utils.NewUpstreamError("Failed to count users", err)
	}
	salonStatuses := []string{models.SalonStatusPending, models.SalonStatusVerified, models.SalonStatusRejected}
	if out.SalonsByStatus, err = groupCount(db.Model(&models.Salon{}), "status", salonStatuses); err != nil {
		return nil, utils.NewUpstreamError("Failed to count salons", err)
	}
	if out.AppointmentsByStatus, err = groupCount(db.Model(&models.Appointment{}), "status", models.AppointmentStatuses); err != nil {
		return nil, utils.NewUpstreamError("Failed to count appointments", err)
	}

	today := utils.BeginningOfDay(s.now())

	// Next seven days of booked appointments
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i)
		var count int64
		err := db.Model(&models.Appointment{}).
			Where("appointment_date = ? AND status = ?", datatypes.Date(day), models.AppointmentScheduled).
			Count(&count).Error
		if err != nil {
			return nil, utils.NewUpstreamError("Failed to count appointments", err)
		}
		out.UpcomingAppointments = append(out.UpcomingAppointments, UpcomingDay{
			Date:  day.Format(utils.DateLayout),
			Label: daysUntilLabel(i),
			Count: count,
		})
	}

	var pending []models.Salon
	err = db.Where("status = ?", models.SalonStatusPending).
		Order("updated_at ASC").Limit(5).Find(&pending).Error
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to load pending salons", err)
	}
	out.PendingSalons = make([]PendingSalon, 0, len(pending))
	for _, salon := range pending {
		daysAgo := int(today.Sub(utils.BeginningOfDay(salon.UpdatedAt)).Hours() / 24)
		out.PendingSalons = append(out.PendingSalons, PendingSalon{
			ID:        salon.ID.String(),
			Name:      salon.Name,
			Submitted: daysAgoLabel(daysAgo),
		})
	}

	out.RecentNotifications = []models.Notification{}
	if err := db.Order("created_at DESC").Limit(10).Find(&out.RecentNotifications).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to load notifications", err)
	}

	return out, nil
}

// groupCount counts rows per column value, reporting zero for known keys
// that have no rows.
func groupCount(q *gorm.DB, column string, keys []string) (map[string]int64, error) {
	var rows []countRow
	err := q.Select(column + " AS group_key, COUNT(*) AS total").Group(column).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(keys))
	for _, k := range keys {
		counts[k] = 0
	}
	for _, r := range rows {
		counts[r.GroupKey] = r.Total
	}
	return counts, nil
}

func daysUntilLabel(days int) string {
	switch days {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

func daysAgoLabel(days int) string {
	switch days {
	case 0:
		return "Today"
	case 1:
		return "Yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}
