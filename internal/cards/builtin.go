package cards

import "github.com/Ramzec88/tarot-web-app/internal/domain"

// Builtin returns the cards served when neither the local file nor the
// remote mirror is available.
func Builtin() []domain.Card {
	return []domain.Card{
		{
			ID:              "MA_0",
			Name:            "Дурак",
			Symbol:          "🔮",
			MeaningUpright:  "Начало, невинность, спонтанность, свободный дух",
			MeaningReversed: "Безрассудство, наивность, риск",
			Description:     "Карта новых начинаний и свободы выбора. Сегодня звезды благоволят вашим смелым решениям и спонтанным поступкам.",
		},
		{
			ID:              "MA_1",
			Name:            "Маг",
			Symbol:          "🔮",
			MeaningUpright:  "Сила воли, проявление, вдохновение",
			MeaningReversed: "Манипуляция, обман, неиспользованные таланты",
			Description:     "Карта силы воли и творческих способностей. У вас есть все инструменты для достижения цели.",
		},
		{
			ID:              "MA_2",
			Name:            "Верховная Жрица",
			Symbol:          "🌙",
			MeaningUpright:  "Интуиция, тайны, внутренний голос",
			MeaningReversed: "Потаённость, отстранённость, иллюзии",
			Description:     "Карта интуиции и скрытых знаний. Прислушайтесь к своему внутреннему голосу.",
		},
		{
			ID:              "MA_17",
			Name:            "Звезда",
			Symbol:          "⭐",
			MeaningUpright:  "Надежда, вдохновение, исцеление",
			MeaningReversed: "Пессимизм, разочарование",
			Description:     "Карта надежды и вдохновения. Впереди вас ждут светлые перспективы и новые возможности.",
		},
		{
			ID:              "MA_19",
			Name:            "Солнце",
			Symbol:          "☀️",
			MeaningUpright:  "Радость, успех, жизненная сила",
			MeaningReversed: "Сомнение, эго",
			Description:     "Карта радости и успеха. Сегодня день полон позитивной энергии и благоприятных возможностей.",
		},
		{
			ID:              "MA_18",
			Name:            "Луна",
			Symbol:          "🌙",
			MeaningUpright:  "Иллюзии, интуиция, страхи",
			MeaningReversed: "Ясность, прозрение",
			Description:     "Карта тайн и интуиции. Доверьтесь внутреннему голосу, но будьте осторожны с иллюзиями.",
		},
	}
}
