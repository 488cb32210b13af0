// Package businesshours implementa a aritmética de horas úteis usada nos prazos de SLA.
//
// Dia útil: segunda a sexta, das 09:00 às 17:00 no fuso de referência.
// Sábados e domingos não contam tempo útil.
package businesshours

import (
	"fmt"
	"time"
)

const (
	OpenHour  = 9
	CloseHour = 17

	// HoursPerDay é a duração da janela útil de um dia.
	HoursPerDay = CloseHour - OpenHour
)

// Calendar converte instantes de parede em horas úteis no fuso configurado.
// Não possui estado mutável e pode ser compartilhado entre goroutines.
type Calendar struct {
	loc *time.Location
}

// New cria um calendário no fuso informado (UTC quando nil).
func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc}
}

// Load cria um calendário a partir de um nome IANA (e.g., "America/Sao_Paulo").
func Load(name string) (*Calendar, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("fuso horário inválido %q: %w", name, err)
	}
	return New(loc), nil
}

// Location retorna o fuso de referência do calendário.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// ElapsedWorkingHours retorna as horas úteis (fracionárias) entre from e to.
// Retorna 0 quando from >= to.
func (c *Calendar) ElapsedWorkingHours(from, to time.Time) float64 {
	if !from.Before(to) {
		return 0
	}
	from = from.In(c.loc)
	to = to.In(c.loc)

	var total time.Duration
	last := c.startOfDay(to)
	for day := c.startOfDay(from); !day.After(last); day = c.nextDay(day) {
		if isWeekend(day) {
			continue
		}
		open, closing := c.window(day)
		start := latest(open, from)
		end := earliest(closing, to)
		if end.After(start) {
			total += end.Sub(start)
		}
	}
	return total.Hours()
}

// AddWorkingHours retorna o instante exato após consumir hours horas úteis a partir de start.
// Com hours <= 0 o resultado é Normalize(start).
func (c *Calendar) AddWorkingHours(start time.Time, hours float64) time.Time {
	current := c.Normalize(start)
	if hours <= 0 {
		return current
	}

	remaining := time.Duration(hours * float64(time.Hour))
	for {
		_, closing := c.window(current)
		available := closing.Sub(current)
		if remaining <= available {
			return current.Add(remaining)
		}
		remaining -= available
		current = c.Normalize(c.openOf(c.nextDay(current)))
	}
}

// Normalize move t para o próximo instante útil válido.
// Fim de semana ou a partir das 17:00: 09:00 do próximo dia útil.
// Antes das 09:00 em dia útil: 09:00 do mesmo dia.
func (c *Calendar) Normalize(t time.Time) time.Time {
	t = t.In(c.loc)
	for {
		if isWeekend(t) {
			t = c.openOf(c.nextDay(t))
			continue
		}
		open, closing := c.window(t)
		if t.Before(open) {
			return open
		}
		if !t.Before(closing) {
			t = c.openOf(c.nextDay(t))
			continue
		}
		return t
	}
}

// IsWorkingTime informa se t está dentro da janela útil.
func (c *Calendar) IsWorkingTime(t time.Time) bool {
	t = t.In(c.loc)
	if isWeekend(t) {
		return false
	}
	open, closing := c.window(t)
	return !t.Before(open) && t.Before(closing)
}

func (c *Calendar) window(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	return time.Date(y, m, d, OpenHour, 0, 0, 0, c.loc), time.Date(y, m, d, CloseHour, 0, 0, 0, c.loc)
}

func (c *Calendar) openOf(t time.Time) time.Time {
	open, _ := c.window(t)
	return open
}

func (c *Calendar) startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// nextDay usa time.Date para atravessar mudanças de horário de verão sem somar 24h fixas.
func (c *Calendar) nextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, c.loc)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
