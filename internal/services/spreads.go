package services

import "strings"

// SpreadDef describes a named spread layout.
type SpreadDef struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Positions   []string `json:"positions"`
	Premium     bool     `json:"premium"`
}

var spreadDefs = []SpreadDef{
	{
		Key:         "love",
		Name:        "💕 Любовь и отношения",
		Description: "Узнайте о ваших отношениях",
		Positions:   []string{"Вы", "Партнер", "Отношения"},
		Premium:     true,
	},
	{
		Key:         "career",
		Name:        "💼 Карьера и финансы",
		Description: "Ваш путь к успеху",
		Positions:   []string{"Текущее", "Препятствия", "Возможности", "Совет"},
		Premium:     true,
	},
	{
		Key:         "week",
		Name:        "📅 Неделя впереди",
		Description: "Что ждет вас на этой неделе",
		Positions:   []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"},
		Premium:     true,
	},
	{
		Key:         "celtic",
		Name:        "🍀 Кельтский крест",
		Description: "Глубокий анализ ситуации",
		Positions:   []string{"Ситуация", "Вызов", "Прошлое", "Будущее", "Цель", "Подсознание", "Вы", "Окружение", "Страхи", "Результат"},
		Premium:     true,
	},
}

// Spreads returns every defined spread in display order.
func Spreads() []SpreadDef {
	out := make([]SpreadDef, len(spreadDefs))
	copy(out, spreadDefs)
	return out
}

// LookupSpread finds a spread by key, ignoring case and surrounding space.
func LookupSpread(key string) (SpreadDef, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, d := range spreadDefs {
		if d.Key == key {
			return d, true
		}
	}
	return SpreadDef{}, false
}
