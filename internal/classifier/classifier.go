// Package classifier определяет тип пластика по фотографии с помощью внешнего сервиса.
package classifier

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/mmeshcher/kleanloop/internal/model"
)

// ErrUnrecognized возвращается, если сервис не смог определить материал.
var ErrUnrecognized = errors.New("material not recognized")

// Classifier угадывает материал по ссылке на фотографию.
type Classifier interface {
	Classify(ctx context.Context, photoRef string) (model.Material, error)
}

var guessable = []model.Material{
	model.MaterialPET,
	model.MaterialHDPE,
	model.MaterialLDPE,
	model.MaterialPP,
}

// Random имитирует распознавание, выбирая случайный материал.
type Random struct {
	rnd *rand.Rand
}

// NewRandom создаёт имитацию классификатора. При src == nil используется глобальный генератор.
func NewRandom(src rand.Source) *Random {
	r := &Random{}
	if src != nil {
		r.rnd = rand.New(src)
	}
	return r
}

// Classify возвращает один из материалов PET, HDPE, LDPE, PP.
func (r *Random) Classify(ctx context.Context, _ string) (model.Material, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.rnd == nil {
		return guessable[rand.IntN(len(guessable))], nil
	}
	return guessable[r.rnd.IntN(len(guessable))], nil
}

// Fixed всегда возвращает заданный материал.
type Fixed model.Material

// Classify возвращает зафиксированный материал.
func (f Fixed) Classify(context.Context, string) (model.Material, error) {
	return model.Material(f), nil
}
