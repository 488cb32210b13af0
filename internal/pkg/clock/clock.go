package clock

import (
	"sync"
	"time"
)

// Clock é a fonte de tempo injetada nos serviços e no worker.
// Nenhuma regra de negócio deve chamar time.Now() diretamente.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System retorna o relógio de parede do processo.
func System() Clock {
	return systemClock{}
}

// Fixed é um relógio controlado manualmente, usado em testes e em execuções determinísticas.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed cria um relógio parado no instante informado.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set move o relógio para o instante informado.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance avança o relógio pela duração informada.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
