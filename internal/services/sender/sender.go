// Package services отправляет клиентам WhatsApp-уведомления: сводку по
// балансу абонемента после списания и напоминание о завтрашнем визите.
// Задания приходят из очереди в виде JSON, тексты сообщений — на иврите,
// как их читают клиенты мойки.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carwasher/carwash-dashboard/internal/greenapi"
	"github.com/carwasher/carwash-dashboard/internal/lib/phone"
	"github.com/carwasher/carwash-dashboard/internal/models"
)

// Messenger отправляет текстовое сообщение на номер телефона.
type Messenger interface {
	SendText(ctx context.Context, phoneNumber, message string) (*greenapi.SendResult, error)
}

// ClientReader загружает профиль клиента для номера телефона и имени.
type ClientReader interface {
	GetClient(ctx context.Context, id string) (*models.Client, error)
}

// SenderService превращает задания из очереди в отправленные сообщения.
type SenderService struct {
	messenger Messenger
	clients   ClientReader
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(messenger Messenger, clients ClientReader, log *slog.Logger) *SenderService {
	return &SenderService{
		messenger: messenger,
		clients:   clients,
		log:       log,
	}
}

// SendBalanceUpdate отправляет клиенту сводку по абонементу после
// списания. При нулевом остатке добавляются реквизиты продления,
// при остатке не больше двух — предупреждение.
func (s *SenderService) SendBalanceUpdate(ctx context.Context, body []byte) error {
	var job models.BalanceNotification
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	client, err := s.clients.GetClient(ctx, job.ClientID)
	if err != nil {
		return fmt.Errorf("load client %s: %w", job.ClientID, err)
	}

	message := buildBalanceMessage(client.FullName, job.Total, job.Used, job.Remaining)
	return s.send(ctx, client, message, "balance update", job.JobID)
}

// SendReminder отправляет напоминание о завтрашнем визите.
func (s *SenderService) SendReminder(ctx context.Context, body []byte) error {
	var job models.ReminderNotification
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	client, err := s.clients.GetClient(ctx, job.ClientID)
	if err != nil {
		return fmt.Errorf("load client %s: %w", job.ClientID, err)
	}

	date, err := time.Parse(models.DateLayout, job.Date)
	if err != nil {
		return fmt.Errorf("invalid reminder date %q: %w", job.Date, err)
	}

	message := buildReminderMessage(client, date, job.Time)
	return s.send(ctx, client, message, "reminder", job.JobID)
}

func (s *SenderService) send(ctx context.Context, client *models.Client, message, kind, jobID string) error {
	msisdn := phone.Normalize(client.Phone)
	if msisdn == "" {
		return fmt.Errorf("client %s has no usable phone number", client.ID)
	}

	result, err := s.messenger.SendText(ctx, msisdn, message)
	if err != nil {
		return fmt.Errorf("send %s to %s: %w", kind, msisdn, err)
	}
	if !result.Success {
		return fmt.Errorf("send %s to %s: message was not accepted", kind, msisdn)
	}

	s.log.Info("whatsapp message sent",
		slog.String("kind", kind),
		slog.String("job_id", jobID),
		slog.String("client_id", client.ID),
		slog.String("message_id", result.MessageID))
	return nil
}

// buildBalanceMessage собирает текст сводки по абонементу.
func buildBalanceMessage(fullName string, total, used, remaining int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "שלום %s 👋\n\n", fullName)
	b.WriteString("📊 עדכון מצב הכרטיסייה שלך:\n\n")
	fmt.Fprintf(&b, "✅ נוצלו: %d שטיפות\n", used)
	fmt.Fprintf(&b, "📌 נותרו: %d שטיפות\n", remaining)
	fmt.Fprintf(&b, "📋 סה\"כ במנוי: %d שטיפות\n\n", total)

	switch {
	case remaining <= 0:
		b.WriteString("⚠️ שים לב! הכרטיסייה שלך הסתיימה.\n\n")
		b.WriteString("לחידוש המנוי:\n")
		b.WriteString("📱 פייבוקס: 054-995-2960\n\n")
	case remaining <= 2:
		fmt.Fprintf(&b, "⚠️ שים לב - נותרו לך רק %d שטיפות!\n", remaining)
		b.WriteString("מומלץ לחדש את המנוי בקרוב.\n\n")
	}

	b.WriteString("תודה שבחרת בקאר וושר! 🚙💦")
	return b.String()
}

// buildReminderMessage собирает текст напоминания о завтрашнем визите.
func buildReminderMessage(client *models.Client, date time.Time, timeOfDay string) string {
	var b strings.Builder
	b.WriteString("🔔 תזכורת מקאר וושר\n\n")
	fmt.Fprintf(&b, "שלום %s,\n\n", client.FullName)
	b.WriteString("מזכירים לך על הזמנת הרחיצה שלך מחר:\n\n")
	fmt.Fprintf(&b, "📅 תאריך: %s\n", hebrewDate(date))
	fmt.Fprintf(&b, "⏰ שעה: %s", timeOfDay)

	if client.Address != "" {
		fmt.Fprintf(&b, "\n📍 כתובת: %s", client.Address)
		if client.City != "" {
			fmt.Fprintf(&b, ", %s", client.City)
		}
	}

	b.WriteString("\n\nאנא הקפידו להכין את הרכב לרחיצה:\n")
	b.WriteString("• חנו אותו במקום מוצל או מקורה\n")
	b.WriteString("• ודאו גישה נוחה לרכב\n")
	b.WriteString("• במקרה של ביטול - נא ליצור קשר מראש\n\n")
	b.WriteString("נשמח לראותכם מחר! 🚗✨\n\n")
	b.WriteString("צוות קאר וושר\n")
	b.WriteString("📞 ליצירת קשר: 054-995-2960")
	return b.String()
}

var hebrewDays = [...]string{"ראשון", "שני", "שלישי", "רביעי", "חמישי", "שישי", "שבת"}

var hebrewMonths = [...]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

// hebrewDate форматирует дату на иврите: день недели, число и месяц.
func hebrewDate(date time.Time) string {
	return fmt.Sprintf("יום %s, %d ב%s %d",
		hebrewDays[int(date.Weekday())], date.Day(), hebrewMonths[int(date.Month())-1], date.Year())
}
