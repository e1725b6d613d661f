package services

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/models"
)

// NotificationService sends outbound notices after domain events. Delivery is
// best-effort: failures are logged and never affect the triggering operation.
type NotificationService interface {
	NotifyRepairDelivered(workshop *models.Workshop, repair *models.Repair)
	NotifyRepairFailed(workshop *models.Workshop, repair *models.Repair)
	NotifyWorkshopRegistered(workshop *models.Workshop)
}

// TelegramNotificationService posts HTML-formatted messages to the configured
// Telegram admin chat.
type TelegramNotificationService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NoopNotificationService drops every notification. Used when Telegram is not
// configured and as the default in tests.
type NoopNotificationService struct{}

func (NoopNotificationService) NotifyRepairDelivered(*models.Workshop, *models.Repair) {}
func (NoopNotificationService) NotifyRepairFailed(*models.Workshop, *models.Repair)    {}
func (NoopNotificationService) NotifyWorkshopRegistered(*models.Workshop)              {}

var notificationServiceInstance NotificationService = NoopNotificationService{}

// InitNotificationService wires the Telegram bot if a token is configured,
// otherwise installs the no-op service.
func InitNotificationService(cfg *config.Config) (NotificationService, error) {
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		log.Info("Telegram not configured, notifications disabled")
		notificationServiceInstance = NoopNotificationService{}
		return notificationServiceInstance, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	chatID, err := strconv.ParseInt(cfg.TelegramChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be a number: %w", err)
	}

	notificationServiceInstance = &TelegramNotificationService{bot: bot, chatID: chatID}
	return notificationServiceInstance, nil
}

// GetNotificationService returns the notification service instance
func GetNotificationService() NotificationService {
	return notificationServiceInstance
}

// SetNotificationService sets the notification service instance (primarily for testing)
func SetNotificationService(service NotificationService) {
	notificationServiceInstance = service
}

// NotifyRepairDelivered posts a delivery notice for a repair
func (s *TelegramNotificationService) NotifyRepairDelivered(workshop *models.Workshop, repair *models.Repair) {
	finalPrice := repair.EstimatedPrice
	if repair.FinalPrice != nil {
		finalPrice = *repair.FinalPrice
	}
	message := fmt.Sprintf(
		"✅ <b>Reparación entregada</b>\n\n"+
			"🏪 Taller: <b>%s</b>\n"+
			"📱 Equipo: %s %s\n"+
			"👤 Cliente: %s\n"+
			"💵 Precio final: %s %.2f\n"+
			"📅 Fecha: %s",
		workshop.Name, repair.DeviceBrand, repair.DeviceModel,
		repair.CustomerName, repair.Currency, finalPrice,
		time.Now().Format("02/01/2006"))
	s.send(message)
}

// NotifyRepairFailed posts a failure notice for a repair
func (s *TelegramNotificationService) NotifyRepairFailed(workshop *models.Workshop, repair *models.Repair) {
	reason := ""
	if repair.FailureReason != nil {
		reason = *repair.FailureReason
	}
	message := fmt.Sprintf(
		"❌ <b>Reparación fallida</b>\n\n"+
			"🏪 Taller: <b>%s</b>\n"+
			"📱 Equipo: %s %s\n"+
			"👤 Cliente: %s\n"+
			"📝 Motivo: %s",
		workshop.Name, repair.DeviceBrand, repair.DeviceModel,
		repair.CustomerName, reason)
	s.send(message)
}

// NotifyWorkshopRegistered posts a notice for a newly registered workshop
func (s *TelegramNotificationService) NotifyWorkshopRegistered(workshop *models.Workshop) {
	email := "N/A"
	if workshop.Email != nil {
		email = *workshop.Email
	}
	whatsapp := "N/A"
	if workshop.Whatsapp != nil {
		whatsapp = *workshop.Whatsapp
	}
	message := fmt.Sprintf(
		"🏪 <b>Nuevo taller registrado</b>\n\n"+
			"📋 Nombre: <b>%s</b>\n"+
			"📧 Email: %s\n"+
			"📱 WhatsApp: %s\n"+
			"📅 Fecha: %s",
		workshop.Name, email, whatsapp,
		time.Now().Format("02/01/2006"))
	s.send(message)
}

func (s *TelegramNotificationService) send(text string) {
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.bot.Send(msg); err != nil {
		log.Warnf("failed to send telegram notification: %v", err)
	}
}
