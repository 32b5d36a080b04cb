// Package analytics вычисляет агрегатную статистику по ответам персон:
// семплирование Монте-Карло из распределений, частоты с доверительными
// интервалами Уилсона и метрики для шкал Лайкерта либо категориальных
// вопросов, плюс качественный LLM-анализ.
package analytics

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"survey-server/internal/models"

	"go.uber.org/zap"
)

// z-значение для 95% доверительного интервала.
const z95 = 1.959963984540054

// extremeDistanceThreshold - расстояние от середины шкалы [0,1], после
// которого ответ считается экстремальным.
const extremeDistanceThreshold = 0.4

// Engine считает количественные метрики по валидным ответам персон на один
// вопрос. Выборка Монте-Карло генерируется лениво и переиспользуется всеми
// метриками; при заданном сиде результаты воспроизводимы.
type Engine struct {
	responses []models.PersonaResponse
	options   []string
	nSamples  int
	rng       *rand.Rand
	logger    *zap.Logger

	samples []string
}

// NewEngine создает движок по всем ответам персон: невалидные (ошибка,
// нерелевантность, пустое распределение) отбрасываются здесь же.
// Нулевой seed означает недетерминированную выборку.
func NewEngine(all []models.PersonaResponse, options []string, nSamples int, seed int64, logger *zap.Logger) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	valid := make([]models.PersonaResponse, 0, len(all))
	for _, resp := range all {
		if resp.Valid() {
			valid = append(valid, resp)
		}
	}
	return &Engine{
		responses: valid,
		options:   options,
		nSamples:  nSamples,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    logger,
	}
}

// ValidResponses возвращает ответы, вошедшие в расчет.
func (e *Engine) ValidResponses() []models.PersonaResponse {
	return e.responses
}

// Samples возвращает объединенную выборку: nSamples розыгрышей из
// распределения каждой валидной персоны.
func (e *Engine) Samples() []string {
	if e.samples == nil {
		e.samples = e.generateSamples()
	}
	return e.samples
}

func (e *Engine) generateSamples() []string {
	all := make([]string, 0, len(e.responses)*e.nSamples)
	for i, resp := range e.responses {
		options, probs := e.orderedProbs(resp.Distribution)
		total := sum(probs)
		if total == 0 {
			continue
		}
		if math.Abs(total-1.0) > models.SumTolerance {
			e.logger.Warn("Распределение не нормализовано, выполняется ренормализация",
				zap.Int("response_index", i), zap.Float64("sum", total))
		}
		for s := 0; s < e.nSamples; s++ {
			all = append(all, draw(e.rng, options, probs, total))
		}
	}
	return all
}

// orderedProbs раскладывает распределение в детерминированном порядке:
// сначала варианты вопроса, затем неожиданные ключи по алфавиту. Без этого
// порядок итерации map делал бы выборку невоспроизводимой при том же сиде.
func (e *Engine) orderedProbs(dist models.Distribution) ([]string, []float64) {
	options := make([]string, 0, len(dist))
	seen := make(map[string]bool, len(dist))
	for _, opt := range e.options {
		if _, ok := dist[opt]; ok {
			options = append(options, opt)
			seen[opt] = true
		}
	}
	var extra []string
	for opt := range dist {
		if !seen[opt] {
			extra = append(extra, opt)
		}
	}
	sort.Strings(extra)
	options = append(options, extra...)

	probs := make([]float64, len(options))
	for i, opt := range options {
		probs[i] = dist[opt]
	}
	return options, probs
}

// draw делает один розыгрыш по кумулятивной сумме. Варианты с нулевой
// вероятностью не выпадают никогда.
func draw(rng *rand.Rand, options []string, probs []float64, total float64) string {
	r := rng.Float64() * total
	var cum float64
	last := ""
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		cum += p
		last = options[i]
		if r < cum {
			return options[i]
		}
	}
	// Накопленная погрешность округления - возвращаем последний ненулевой
	return last
}

// MeanReliability - средняя оценка надежности по валидным ответам.
func (e *Engine) MeanReliability() float64 {
	if len(e.responses) == 0 {
		return 0
	}
	var total float64
	for _, resp := range e.responses {
		total += resp.ReliabilityScore
	}
	return total / float64(len(e.responses))
}

// BasicStats считает частоты, доли, проценты и интервалы Уилсона по
// объединенной выборке.
func (e *Engine) BasicStats() models.BasicStatistics {
	samples := e.Samples()
	total := len(samples)

	freqs := make(map[string]int)
	for _, s := range samples {
		freqs[s]++
	}

	stats := models.BasicStatistics{
		Frequencies:         freqs,
		Proportions:         make(map[string]float64, len(freqs)),
		Percentages:         make(map[string]float64, len(freqs)),
		TotalResponses:      total,
		ConfidenceIntervals: make(map[string]models.ConfidenceInterval, len(freqs)),
	}
	if total == 0 {
		return stats
	}

	for opt, count := range freqs {
		prop := float64(count) / float64(total)
		stats.Proportions[opt] = prop
		stats.Percentages[opt] = prop * 100
		lower, upper := wilsonInterval(count, total)
		stats.ConfidenceIntervals[opt] = models.ConfidenceInterval{
			Lower: lower * 100,
			Upper: upper * 100,
		}
	}
	return stats
}

// wilsonInterval возвращает границы 95% интервала Уилсона в долях (0-1).
func wilsonInterval(count, total int) (float64, float64) {
	n := float64(total)
	phat := float64(count) / n
	z2 := z95 * z95

	denom := 1 + z2/n
	centre := phat + z2/(2*n)
	adj := z95 * math.Sqrt(phat*(1-phat)/n+z2/(4*n*n))

	lower := (centre - adj) / denom
	upper := (centre + adj) / denom
	return math.Max(lower, 0), math.Min(upper, 1)
}

// AgreementMetrics считает top-box/bottom-box и net score для шкалы Лайкерта.
// Для шкал короче трех вариантов используется по одному крайнему варианту,
// иначе по два.
func (e *Engine) AgreementMetrics(orderedOptions []string) models.AgreementMetrics {
	samples := e.Samples()
	total := len(samples)

	var topOptions, bottomOptions []string
	if len(orderedOptions) < 3 {
		topOptions = orderedOptions[len(orderedOptions)-1:]
		bottomOptions = orderedOptions[:1]
	} else {
		topOptions = orderedOptions[len(orderedOptions)-2:]
		bottomOptions = orderedOptions[:2]
	}

	topCount := countIn(samples, topOptions)
	bottomCount := countIn(samples, bottomOptions)

	var topBox, bottomBox float64
	if total > 0 {
		topBox = float64(topCount) / float64(total) * 100
		bottomBox = float64(bottomCount) / float64(total) * 100
	}

	m := models.AgreementMetrics{
		TopBoxScore:    models.BoxScore{Percentage: topBox, Count: topCount},
		BottomBoxScore: models.BoxScore{Percentage: bottomBox, Count: bottomCount},
		NetScore:       topBox - bottomBox,
	}
	m.OptionsUsed.Top = topOptions
	m.OptionsUsed.Bottom = bottomOptions
	return m
}

// Polarization считает индекс поляризации: варианты отображаются на
// равномерную шкалу [0,1], метрики - по расстоянию от середины.
func (e *Engine) Polarization(orderedOptions []string) models.PolarizationMetrics {
	samples := e.Samples()
	if len(samples) == 0 || len(orderedOptions) < 2 {
		return models.PolarizationMetrics{}
	}

	scale := make(map[string]float64, len(orderedOptions))
	for i, opt := range orderedOptions {
		scale[opt] = float64(i) / float64(len(orderedOptions)-1)
	}

	var sumDist float64
	var extreme, counted int
	for _, s := range samples {
		// Вариант вне упорядоченной шкалы (частичная классификация)
		// позиции не имеет и в метрики не входит
		pos, ok := scale[s]
		if !ok {
			continue
		}
		counted++
		d := math.Abs(pos - 0.5)
		sumDist += d
		if d > extremeDistanceThreshold {
			extreme++
		}
	}
	if counted == 0 {
		return models.PolarizationMetrics{}
	}

	return models.PolarizationMetrics{
		PolarizationIndex:   sumDist / float64(counted),
		ExtremeResponseRate: float64(extreme) / float64(counted),
	}
}

// CategoricalMetrics считает моду, энтропию (натуральный логарифм) и число
// использованных вариантов.
func (e *Engine) CategoricalMetrics() models.CategoricalMetrics {
	stats := e.BasicStats()

	var mode models.ModeResponse
	// Детерминированный выбор моды: порядок вариантов вопроса, затем алфавит
	for _, opt := range e.orderedKeys(stats.Frequencies) {
		if count := stats.Frequencies[opt]; count > mode.Frequency {
			mode = models.ModeResponse{
				Option:     opt,
				Frequency:  count,
				Proportion: stats.Proportions[opt],
			}
		}
	}

	var entropy float64
	for _, p := range stats.Proportions {
		if p > 0 {
			entropy -= p * math.Log(p)
		}
	}

	return models.CategoricalMetrics{
		MostCommonResponse:    mode,
		ResponseEntropy:       entropy,
		NumberOfOptionsChosen: len(stats.Frequencies),
	}
}

func (e *Engine) orderedKeys(freqs map[string]int) []string {
	keys := make([]string, 0, len(freqs))
	seen := make(map[string]bool, len(freqs))
	for _, opt := range e.options {
		if _, ok := freqs[opt]; ok {
			keys = append(keys, opt)
			seen[opt] = true
		}
	}
	var extra []string
	for opt := range freqs {
		if !seen[opt] {
			extra = append(extra, opt)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func countIn(samples []string, options []string) int {
	set := make(map[string]bool, len(options))
	for _, opt := range options {
		set[opt] = true
	}
	var n int
	for _, s := range samples {
		if set[s] {
			n++
		}
	}
	return n
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}
