package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/repositories"
	"github.com/aftras/crm/internal/utils"
)

type NotificationService struct {
	store     docstore.Store
	repo      repositories.NotificationRepository
	users     repositories.UserRepository
	notifiers []Notifier
	clock     Clock
}

func NewNotificationService(
	store docstore.Store,
	repo repositories.NotificationRepository,
	users repositories.UserRepository,
	notifiers []Notifier,
	clock Clock,
) *NotificationService {
	return &NotificationService{store: store, repo: repo, users: users, notifiers: notifiers, clock: clock}
}

// ListNotifications returns userID's notifications, or every notification
// when userID is empty.
func (s *NotificationService) ListNotifications(ctx context.Context, userID string) repositories.ReadResult[*models.Notification] {
	if userID == "" {
		return s.repo.GetAll(ctx)
	}
	return s.repo.GetByQuery(ctx, "userId", docstore.OpEqual, userID)
}

// UnreadCount is lenient; the boolean reports a degraded read.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, bool) {
	res := s.ListNotifications(ctx, userID)
	n := 0
	for _, item := range res.Items {
		if !item.Read {
			n++
		}
	}
	return n, res.Degraded()
}

// MarkAllNotificationsAsRead flips every unread notification in scope in
// one transaction and returns how many changed.
func (s *NotificationService) MarkAllNotificationsAsRead(ctx context.Context, userID string) (int, error) {
	var changed int
	err := repositories.WithRetry(ctx, s.store, repositories.DefaultMaxRetries, func(ctx context.Context, tx docstore.Tx) error {
		changed = 0
		repo := s.repo.In(tx)
		var (
			items []*models.Notification
			err   error
		)
		if userID == "" {
			items, err = repo.List(ctx)
		} else {
			items, err = repo.Where(ctx, "userId", docstore.OpEqual, userID)
		}
		if err != nil {
			return err
		}
		for _, n := range items {
			if n.Read {
				continue
			}
			if err := repo.Update(ctx, n.ID, docstore.Fields{"read": true}); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, storeError("Failed to mark notifications as read", err)
	}
	return changed, nil
}

// Notify persists a notification for userID, then pushes it through the
// configured channels. Channel failures are logged only.
func (s *NotificationService) Notify(ctx context.Context, userID, title, message string) (*models.Notification, error) {
	n, err := s.repo.Add(ctx, &models.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		CreatedAt: s.clock.now(),
	})
	if err != nil {
		return nil, storeError("Failed to create notification", err)
	}

	user := s.users.GetByID(ctx, userID)
	if !user.Found() {
		return n, nil
	}
	s.deliver(ctx, user.Item, n)
	return n, nil
}

// NotifyRole notifies every active user holding role.
func (s *NotificationService) NotifyRole(ctx context.Context, role models.UserRole, title, message string) (int, error) {
	res := s.users.GetByQuery(ctx, "role", docstore.OpEqual, role)
	sent := 0
	for _, u := range res.Items {
		if u.Status != models.UserStatusActive {
			continue
		}
		n, err := s.repo.Add(ctx, &models.Notification{
			UserID:    u.ID,
			Title:     title,
			Message:   message,
			CreatedAt: s.clock.now(),
		})
		if err != nil {
			return sent, storeError("Failed to create notification", err)
		}
		s.deliver(ctx, u, n)
		sent++
	}
	return sent, nil
}

func (s *NotificationService) deliver(ctx context.Context, user *models.User, n *models.Notification) {
	for _, ch := range s.notifiers {
		if err := ch.Deliver(ctx, user, n); err != nil {
			utils.Logger.WithFields(logrus.Fields{
				"channel":         ch.Name(),
				"user_id":         user.ID,
				"notification_id": n.ID,
			}).WithError(err).Warn("Notification delivery failed")
		}
	}
}
