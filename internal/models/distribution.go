package models

import "math"

// SumTolerance - допуск, в пределах которого сумма вероятностей считается
// равной единице и ренормализация не выполняется.
const SumTolerance = 1e-5

// Distribution - отображение текста варианта на вероятность в [0,1].
// Инвариант: сумма вероятностей ~ 1 (при необходимости ренормализуется).
type Distribution map[string]float64

// Sum возвращает сумму всех вероятностей.
func (d Distribution) Sum() float64 {
	var total float64
	for _, p := range d {
		total += p
	}
	return total
}

// IsNormalized проверяет, что сумма вероятностей равна 1 в пределах допуска.
func (d Distribution) IsNormalized() bool {
	return math.Abs(d.Sum()-1.0) <= SumTolerance
}

// Normalized возвращает копию распределения, масштабированную так, чтобы
// сумма была равна 1. Нулевое распределение не поддается нормализации и
// возвращается пустым - вызывающий код отбрасывает его как невалидное.
func (d Distribution) Normalized() Distribution {
	total := d.Sum()
	if total == 0 {
		return Distribution{}
	}
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v / total
	}
	return out
}

// TopOption возвращает вариант с максимальной вероятностью. При равенстве
// выигрывает первый встреченный в порядке options (стабильный порядок
// вариантов вопроса, а не случайный порядок итерации map).
func (d Distribution) TopOption(options []string) (string, float64) {
	var best string
	bestP := math.Inf(-1)
	for _, opt := range options {
		if p, ok := d[opt]; ok && p > bestP {
			best = opt
			bestP = p
		}
	}
	if best == "" {
		// Распределение содержит ключи вне известного набора вариантов -
		// берем хоть что-то детерминированно не получится, поэтому пусто.
		return "", 0
	}
	return best, bestP
}
