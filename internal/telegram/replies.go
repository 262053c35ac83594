package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// PremiumPrice is the price quoted in the premium offer.
const PremiumPrice = "299₽"

const ruDateLayout = "02.01.2006"

// Button is an inline keyboard button attached to a reply. WebApp buttons
// open the Mini App; the others open URL in the browser.
type Button struct {
	Text   string
	URL    string
	WebApp bool
}

// Reply is a bot message ready to be sent.
type Reply struct {
	Text   string
	Button *Button
}

// UserCounts are the per-user totals shown by /stats.
type UserCounts struct {
	Questions  int64
	DailyCards int64
}

var needStart = Reply{Text: "Сначала выполните команду /start"}

// StartReply greets the user and offers a button that opens the Mini App.
func StartReply(webAppURL string) Reply {
	r := Reply{Text: "🔮 Добро пожаловать в мир карт Таро!\n\n" +
		"Я помогу вам получить мудрые советы от древних карт.\n\n" +
		"Нажмите кнопку ниже, чтобы начать:"}
	if webAppURL != "" {
		r.Button = &Button{Text: "🃏 Открыть приложение Таро", URL: webAppURL, WebApp: true}
	}
	return r
}

// PremiumReply describes the subscription state of p, or offers premium.
func PremiumReply(p *domain.UserProfile, now time.Time, premiumDays int, paymentURL string) Reply {
	if p == nil {
		return needStart
	}
	if p.IsPremium(now) {
		return Reply{Text: fmt.Sprintf("⭐ У вас активна премиум подписка до %s",
			p.SubscriptionExpiresAt.Format(ruDateLayout))}
	}

	var sb strings.Builder
	sb.WriteString("💎 Премиум подписка\n\n")
	fmt.Fprintf(&sb, "🎫 Бесплатных вопросов осталось: %d\n\n", p.FreeQuestionsLeft)
	sb.WriteString("⭐ С премиум подпиской вы получите:\n")
	sb.WriteString("• Неограниченные вопросы к картам\n")
	sb.WriteString("• Эксклюзивные расклады\n")
	sb.WriteString("• Подробные ИИ-толкования\n")
	sb.WriteString("• Приоритетная поддержка\n\n")
	fmt.Fprintf(&sb, "💰 Всего %s на %d дней", PremiumPrice, premiumDays)

	r := Reply{Text: sb.String()}
	if paymentURL != "" {
		r.Button = &Button{Text: "💳 Оформить премиум", URL: paymentURL}
	}
	return r
}

// StatsReply summarizes the profile and its reading totals.
func StatsReply(p *domain.UserProfile, counts UserCounts, now time.Time) Reply {
	if p == nil {
		return needStart
	}
	premium := "Нет"
	if p.IsPremium(now) {
		premium = "Да"
	}

	var sb strings.Builder
	sb.WriteString("📊 Ваша статистика\n\n")
	fmt.Fprintf(&sb, "👤 Имя: %s\n", p.DisplayName())
	fmt.Fprintf(&sb, "📅 Участник с: %s\n", p.CreatedAt.Format(ruDateLayout))
	fmt.Fprintf(&sb, "🎫 Бесплатных вопросов: %d\n", p.FreeQuestionsLeft)
	fmt.Fprintf(&sb, "⭐ Премиум: %s\n", premium)
	fmt.Fprintf(&sb, "❓ Всего вопросов: %d\n", counts.Questions)
	fmt.Fprintf(&sb, "🌅 Карт дня: %d", counts.DailyCards)
	return Reply{Text: sb.String()}
}
