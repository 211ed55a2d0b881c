// Package notify delivers Telegram notifications for order and booking
// events. Delivery is fire-and-forget: messages go through a bounded queue
// and are dropped when the queue is full or the bot API keeps failing, so a
// notification can never block or fail a payment commit.
package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/orientwatch/backend/internal/currency"
	"github.com/orientwatch/backend/internal/domain"
	"github.com/orientwatch/backend/internal/repository"
)

var droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "telegram_notifications_dropped_total",
	Help: "Notifications dropped because the queue was full.",
})

func init() {
	prometheus.MustRegister(droppedTotal)
}

// Telegram reads the bot token and chat list from site settings on every
// send, so admin changes take effect without a restart.
type Telegram struct {
	settings *repository.SettingsRepo
	client   *resty.Client
	breaker  *gobreaker.CircuitBreaker
	queue    chan string
	done     chan struct{}
	log      zerolog.Logger
}

func NewTelegram(settings *repository.SettingsRepo, apiBase string, log zerolog.Logger) *Telegram {
	client := resty.New().
		SetBaseURL(apiBase).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "telegram",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	t := &Telegram{
		settings: settings,
		client:   client,
		breaker:  breaker,
		queue:    make(chan string, 64),
		done:     make(chan struct{}),
		log:      log,
	}
	go t.worker()
	return t
}

// Close drains nothing: pending messages are abandoned.
func (t *Telegram) Close() {
	close(t.queue)
	<-t.done
}

func (t *Telegram) worker() {
	defer close(t.done)
	for text := range t.queue {
		t.broadcast(text)
	}
}

func (t *Telegram) enqueue(text string) {
	select {
	case t.queue <- text:
	default:
		droppedTotal.Inc()
		t.log.Warn().Msg("notification queue full, dropping message")
	}
}

func (t *Telegram) broadcast(text string) {
	s, err := t.settings.Get()
	if err != nil {
		t.log.Error().Err(err).Msg("load settings for notification")
		return
	}
	if s.TelegramBotToken == "" || s.TelegramChatIDs == "" {
		return
	}

	for _, chatID := range strings.Split(s.TelegramChatIDs, ",") {
		chatID = strings.TrimSpace(chatID)
		if chatID == "" {
			continue
		}
		_, err := t.breaker.Execute(func() (any, error) {
			resp, err := t.client.R().
				SetBody(map[string]string{
					"chat_id":    chatID,
					"text":       text,
					"parse_mode": "HTML",
				}).
				Post("/bot" + s.TelegramBotToken + "/sendMessage")
			if err != nil {
				return nil, err
			}
			if resp.IsError() {
				return nil, fmt.Errorf("telegram api status %d", resp.StatusCode())
			}
			return nil, nil
		})
		if err != nil {
			t.log.Warn().Err(err).Str("chat_id", chatID).Msg("telegram send failed")
		}
	}
}

// OrderStatusChanged implements the payment state machine's Notifier.
func (t *Telegram) OrderStatusChanged(orderNumber string, from, to domain.OrderStatus) {
	t.enqueue(fmt.Sprintf(
		"🔄 <b>Статус заказа изменен</b>\n\n🆔 <b>Номер:</b> %s\n▫️ <b>Было:</b> %s\n▪️ <b>Стало:</b> %s",
		orderNumber, from, to))
}

// NewOrder announces a freshly placed order.
func (t *Telegram) NewOrder(o *domain.Order) {
	var customer struct {
		FullName string `json:"fullName"`
		Phone    string `json:"phone"`
	}
	_ = json.Unmarshal([]byte(o.Customer), &customer)
	if customer.FullName == "" {
		customer.FullName = "Не указано"
	}
	if customer.Phone == "" {
		customer.Phone = "Не указано"
	}

	t.enqueue(fmt.Sprintf(
		"🔔 <b>Новый заказ!</b>\n\n🆔 <b>Номер:</b> %s\n👤 <b>Клиент:</b> %s\n📞 <b>Телефон:</b> %s\n💰 <b>Сумма:</b> %s UZS\n🚚 <b>Доставка:</b> %s\n💳 <b>Оплата:</b> %s",
		o.OrderNumber, customer.FullName, customer.Phone,
		currency.FromTiyin(o.Total).StringFixed(0),
		o.DeliveryMethod, o.PaymentMethod))
}

// NewBooking announces a boutique appointment.
func (t *Telegram) NewBooking(b *domain.Booking) {
	msg := fmt.Sprintf(
		"📅 <b>Новая запись в бутик!</b>\n\n🆔 <b>Номер:</b> %s\n👤 <b>Имя:</b> %s\n📞 <b>Телефон:</b> %s\n🗓 <b>Дата:</b> %s\n⏰ <b>Время:</b> %s\n📍 <b>Бутик:</b> %s",
		b.BookingNumber, b.Name, b.Phone, b.Date, b.Time, b.Boutique)
	if b.Message != "" {
		msg += "\n💬 <b>Комментарий:</b> " + b.Message
	}
	t.enqueue(msg)
}

// BookingStatusChanged announces a booking status transition.
func (t *Telegram) BookingStatusChanged(bookingNumber string, from, to domain.BookingStatus) {
	t.enqueue(fmt.Sprintf(
		"🔄 <b>Статус записи изменен</b>\n\n🆔 <b>Номер:</b> %s\n▫️ <b>Было:</b> %s\n▪️ <b>Стало:</b> %s",
		bookingNumber, from, to))
}
