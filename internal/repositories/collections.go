package repositories

import (
	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/models"
)

// Logical collection names.
const (
	UsersCollection           = "users"
	ProspectsCollection       = "prospects"
	ClientsCollection         = "clients"
	SalesCollection           = "sales"
	NotificationsCollection   = "notifications"
	SettingsCollection        = "settings"
	AccessCodesCollection     = "access_codes"
	RemoteProspectsCollection = "remote_prospects"
)

type (
	UserRepository           = *Collection[*models.User]
	ProspectRepository       = *Collection[*models.Prospect]
	ClientRepository         = *Collection[*models.Client]
	SaleRepository           = *Collection[*models.Sale]
	NotificationRepository   = *Collection[*models.Notification]
	SettingsRepository       = *Collection[*models.AppSettings]
	AccessCodeRepository     = *Collection[*models.AccessCode]
	RemoteProspectRepository = *Collection[*models.RemoteProspect]
)

func NewUserRepository(store docstore.Store) UserRepository {
	return NewCollection[*models.User](store, UsersCollection)
}

func NewProspectRepository(store docstore.Store) ProspectRepository {
	return NewCollection[*models.Prospect](store, ProspectsCollection)
}

func NewClientRepository(store docstore.Store) ClientRepository {
	return NewCollection[*models.Client](store, ClientsCollection)
}

func NewSaleRepository(store docstore.Store) SaleRepository {
	return NewCollection[*models.Sale](store, SalesCollection)
}

func NewNotificationRepository(store docstore.Store) NotificationRepository {
	return NewCollection[*models.Notification](store, NotificationsCollection)
}

// NewSettingsRepository treats permission-denied on the settings singleton
// as routine; anonymous visitors read it before signing in.
func NewSettingsRepository(store docstore.Store) SettingsRepository {
	return NewCollection[*models.AppSettings](store, SettingsCollection, models.SettingsID)
}

func NewAccessCodeRepository(store docstore.Store) AccessCodeRepository {
	return NewCollection[*models.AccessCode](store, AccessCodesCollection)
}

func NewRemoteProspectRepository(store docstore.Store) RemoteProspectRepository {
	return NewCollection[*models.RemoteProspect](store, RemoteProspectsCollection)
}
