package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/flipcoin/miniapp/internal/domain"
)

// Face is one labeled element of an outcome set.
type Face struct {
	ID    int
	Label string
	Name  domain.Localized
	Text  domain.Localized
}

// Coin sides.
var CoinSides = []Face{
	{ID: 1, Label: "heads", Name: domain.Localized{EN: "Heads", RU: "Орёл"}},
	{ID: 2, Label: "tails", Name: domain.Localized{EN: "Tails", RU: "Решка"}},
}

// Predictions of the magic ball.
var Predictions = []Face{
	{ID: 1, Label: "definitely_yes", Text: domain.Localized{EN: "Definitely yes", RU: "Определенно да"}},
	{ID: 2, Label: "very_likely", Text: domain.Localized{EN: "Very likely", RU: "Весьма вероятно"}},
	{ID: 3, Label: "perhaps", Text: domain.Localized{EN: "Perhaps", RU: "Возможно"}},
	{ID: 4, Label: "ask_again_later", Text: domain.Localized{EN: "Ask again later", RU: "Спросите позже"}},
	{ID: 5, Label: "cannot_predict_now", Text: domain.Localized{EN: "Cannot predict now", RU: "Не могу предсказать сейчас"}},
	{ID: 6, Label: "dont_count_on_it", Text: domain.Localized{EN: "Don't count on it", RU: "Не рассчитывайте на это"}},
	{ID: 7, Label: "sources_say_no", Text: domain.Localized{EN: "My sources say no", RU: "Мои источники говорят нет"}},
	{ID: 8, Label: "definitely_no", Text: domain.Localized{EN: "Definitely no", RU: "Определенно нет"}},
}

// TarotDeck is the Major Arcana subset drawn from.
var TarotDeck = []Face{
	{ID: 1, Label: "the_fool", Name: domain.Localized{EN: "The Fool", RU: "Шут"},
		Text: domain.Localized{EN: "New beginnings, spontaneity, freedom, risk, potential", RU: "Новые начинания, спонтанность, свобода, риск, потенциал"}},
	{ID: 2, Label: "the_magician", Name: domain.Localized{EN: "The Magician", RU: "Маг"},
		Text: domain.Localized{EN: "Manifestation, willpower, skill, inspiration", RU: "Проявление, сила воли, мастерство, вдохновение"}},
	{ID: 3, Label: "the_high_priestess", Name: domain.Localized{EN: "The High Priestess", RU: "Верховная Жрица"},
		Text: domain.Localized{EN: "Intuition, unconscious, divine feminine", RU: "Интуиция, подсознание, божественное женское начало"}},
	{ID: 4, Label: "the_empress", Name: domain.Localized{EN: "The Empress", RU: "Императрица"},
		Text: domain.Localized{EN: "Fertility, femininity, beauty, nature, abundance", RU: "Плодородие, женственность, красота, природа, изобилие"}},
	{ID: 5, Label: "the_emperor", Name: domain.Localized{EN: "The Emperor", RU: "Император"},
		Text: domain.Localized{EN: "Authority, structure, control, fatherhood", RU: "Авторитет, структура, контроль, отцовская фигура"}},
	{ID: 6, Label: "the_hierophant", Name: domain.Localized{EN: "The Hierophant", RU: "Иерофант"},
		Text: domain.Localized{EN: "Spiritual wisdom, religious beliefs, tradition", RU: "Духовная мудрость, религиозные убеждения, традиции"}},
	{ID: 7, Label: "the_lovers", Name: domain.Localized{EN: "The Lovers", RU: "Влюбленные"},
		Text: domain.Localized{EN: "Love, harmony, relationships, choices, alignment of values", RU: "Любовь, гармония, отношения, выбор, выравнивание ценностей"}},
	{ID: 8, Label: "the_chariot", Name: domain.Localized{EN: "The Chariot", RU: "Колесница"},
		Text: domain.Localized{EN: "Control, willpower, victory, assertion, determination", RU: "Контроль, сила воли, победа, напор, решительность"}},
}

// Pick selects one face uniformly.
func Pick(ctx context.Context, src Source, faces []Face) (Face, error) {
	if len(faces) == 0 {
		return Face{}, fmt.Errorf("empty outcome set")
	}
	i, err := src.Intn(ctx, len(faces))
	if err != nil {
		return Face{}, fmt.Errorf("draw outcome: %w", err)
	}
	return faces[i], nil
}

// Resolver draws local outcomes. It holds no state beyond its source; every
// call is an independent draw.
type Resolver struct {
	src Source
}

// NewResolver creates a resolver over src.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// FlipCoin draws a coin side.
func (r *Resolver) FlipCoin(ctx context.Context, lang domain.Language) (domain.GameOutcome, error) {
	f, err := Pick(ctx, r.src, CoinSides)
	if err != nil {
		return domain.GameOutcome{}, err
	}
	return outcome(domain.GameFlipCoin, f, f.Name.In(lang)), nil
}

// ShakeBall answers a question. The question must not be blank.
func (r *Resolver) ShakeBall(ctx context.Context, lang domain.Language, question string) (domain.GameOutcome, error) {
	if strings.TrimSpace(question) == "" {
		return domain.GameOutcome{}, domain.ErrValidation("question is required")
	}
	f, err := Pick(ctx, r.src, Predictions)
	if err != nil {
		return domain.GameOutcome{}, err
	}
	return outcome(domain.GameMagicBall, f, f.Text.In(lang)), nil
}

// DrawTarot draws a card; the text is "Name: meaning".
func (r *Resolver) DrawTarot(ctx context.Context, lang domain.Language) (domain.GameOutcome, error) {
	f, err := Pick(ctx, r.src, TarotDeck)
	if err != nil {
		return domain.GameOutcome{}, err
	}
	return outcome(domain.GameTarotCard, f, f.Name.In(lang)+": "+f.Text.In(lang)), nil
}

// Play dispatches to the resolver of game.
func (r *Resolver) Play(ctx context.Context, game domain.GameType, lang domain.Language, question string) (domain.GameOutcome, error) {
	switch game {
	case domain.GameFlipCoin:
		return r.FlipCoin(ctx, lang)
	case domain.GameMagicBall:
		return r.ShakeBall(ctx, lang, question)
	case domain.GameTarotCard:
		return r.DrawTarot(ctx, lang)
	default:
		return domain.GameOutcome{}, domain.ErrValidation("unknown game type: " + string(game))
	}
}

func outcome(game domain.GameType, f Face, text string) domain.GameOutcome {
	return domain.GameOutcome{
		Game:         game,
		ID:           f.ID,
		Label:        f.Label,
		Text:         text,
		TokensEarned: game.LocalReward(),
	}
}
