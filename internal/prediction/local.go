package prediction

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// Aux keys understood by the local templates.
const (
	AuxOriginalQuestion = "originalQuestion"
	AuxPreviousQuestion = "previousQuestion"
	AuxPriorQuestion    = "prior_question"
	AuxPositions        = "positions"
)

const noMeaning = "Эта карта несёт важное послание, прислушайтесь к своим ощущениям."

var dailyTemplates = [...]string{
	"🌅 Ваша карта дня: «%s».\n\n%s\n\nПрислушайтесь к её подсказке, сегодня она задаёт тон вашим решениям и встречам.",
	"✨ Сегодня вас сопровождает карта «%s».\n\n%s\n\nОбращайте внимание на знаки, которые подкрепляют этот смысл в течение дня.",
	"🔮 Карта «%s» открывает этот день.\n\n%s\n\nПозвольте её энергии направлять вас, но оставляйте место для собственного выбора.",
}

var questionTemplates = [...]string{
	"🃏 Карты отвечают на ваш вопрос картой «%s».\n\n%s\n\nЗдесь сейчас находится ключ к ситуации.",
	"🔮 Ответом на ваш вопрос стала карта «%s».\n\n%s\n\nДоверьтесь интуиции, она подскажет, как применить этот совет.",
	"✨ Карта «%s» приходит как ответ.\n\n%s\n\nСитуация продолжает развиваться, и многое зависит от ваших следующих шагов.",
}

const (
	clarifyDeepen   = "🔍 Углубляя предыдущий ответ, карта «%s» уточняет:\n\n%s\n\nОна показывает, на что стоит обратить внимание в первую очередь."
	clarifyContinue = "🔍 Продолжая тему вашего вопроса, карта «%s» уточняет:\n\n%s\n\nОна показывает, на что стоит обратить внимание в первую очередь."
)

// Local renders predictions from fixed templates. It is safe for
// concurrent use.
type Local struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLocal returns a template renderer seeded with seed.
func NewLocal(seed int64) *Local {
	return NewLocalWithRand(rand.New(rand.NewSource(seed)))
}

// NewLocalWithRand uses rnd for template selection.
func NewLocalWithRand(rnd *rand.Rand) *Local {
	return &Local{rnd: rnd}
}

func (l *Local) pick(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Intn(n)
}

// Render returns a non-empty reading naming every card in req.
func (l *Local) Render(req Request) string {
	if len(req.Cards) == 0 {
		return "🔮 Карты пока молчат. Сосредоточьтесь на вопросе и попробуйте ещё раз."
	}
	switch req.Type.Normalize() {
	case domain.ReadingDaily:
		return l.single(dailyTemplates[l.pick(len(dailyTemplates))], req.Cards)
	case domain.ReadingClarifying:
		tpl := clarifyContinue
		if hasPriorQuestion(req.Aux) {
			tpl = clarifyDeepen
		}
		return l.single(tpl, req.Cards)
	case domain.ReadingSpread:
		return spread(req.Cards, positions(req.Aux))
	default:
		return l.single(questionTemplates[l.pick(len(questionTemplates))], req.Cards)
	}
}

func (l *Local) single(tpl string, cards []domain.Card) string {
	first := cards[0]
	text := fmt.Sprintf(tpl, cardName(first), meaning(first))
	if len(cards) > 1 {
		text += "\n\nДополнительные карты: " + joinNames(cards[1:]) + "."
	}
	return text
}

func spread(cards []domain.Card, pos []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔮 Ваш расклад: %s.\n\n", joinNames(cards))
	for i, c := range cards {
		if i < len(pos) && pos[i] != "" {
			fmt.Fprintf(&sb, "• %s: %s\n", pos[i], cardName(c))
		} else {
			fmt.Fprintf(&sb, "• %d. %s\n", i+1, cardName(c))
		}
	}
	sb.WriteString("\nКарты в этом раскладе связаны между собой. ")
	sb.WriteString("Первые позиции показывают истоки ситуации, центральные описывают то, что происходит сейчас, ")
	sb.WriteString("а последние подсказывают, куда ведёт выбранный путь.\n\n")
	sb.WriteString("Доверьтесь своей интуиции при толковании этого расклада.")
	return sb.String()
}

func cardName(c domain.Card) string {
	if c.Name != "" {
		return c.Name
	}
	if c.ID != "" {
		return c.ID
	}
	return "Неизвестная карта"
}

func meaning(c domain.Card) string {
	if s := strings.TrimSpace(c.Summary()); s != "" {
		return s
	}
	return noMeaning
}

func joinNames(cards []domain.Card) string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = cardName(c)
	}
	return strings.Join(names, ", ")
}

func hasPriorQuestion(aux map[string]any) bool {
	for _, k := range []string{AuxOriginalQuestion, AuxPreviousQuestion, AuxPriorQuestion} {
		if s, ok := aux[k].(string); ok && strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// positions reads the optional position labels; JSON-decoded input arrives
// as []any.
func positions(aux map[string]any) []string {
	switch v := aux[AuxPositions].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, p := range v {
			s, _ := p.(string)
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}
