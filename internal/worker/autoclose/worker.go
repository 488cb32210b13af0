package autoclose

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/clock"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/service/autocloseservice"
)

const lockKey = "lock:auto-close-sweep"

// Sweeper executa uma varredura no instante informado.
type Sweeper interface {
	RunAutoCloseSweep(ctx context.Context, now time.Time) (autocloseservice.SweepResult, error)
}

const (
	DefaultInterval = 5 * time.Minute
	DefaultLockTTL  = 2 * time.Minute
)

// Worker dispara a varredura de auto-fechamento periodicamente.
// O lock no cache garante uma única varredura por vez entre réplicas da API.
type Worker struct {
	sweeper    Sweeper
	clock      clock.Clock
	locks      cache.Client
	interval   time.Duration
	lockTTL    time.Duration
	instanceID string
	logger     logger.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewWorker cria o worker. lockTTL deve exceder a duração esperada de uma varredura.
// Valores não positivos usam DefaultInterval e DefaultLockTTL.
func NewWorker(sweeper Sweeper, clk clock.Clock, locks cache.Client, interval, lockTTL time.Duration, logger logger.Logger) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &Worker{
		sweeper:    sweeper,
		clock:      clk,
		locks:      locks,
		interval:   interval,
		lockTTL:    lockTTL,
		instanceID: uuid.New().String(),
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start bloqueia até o contexto ser cancelado ou Stop ser chamado.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Worker de auto-fechamento iniciado.", map[string]interface{}{
		"interval":    w.interval.String(),
		"instance_id": w.instanceID,
	})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker de auto-fechamento encerrando.", nil)
			return
		case <-w.stopCh:
			w.logger.Info("Worker de auto-fechamento parado.", nil)
			return
		case <-ticker.C:
			if _, _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("Falha na varredura de auto-fechamento.", err)
			}
		}
	}
}

// Stop interrompe o loop de Start. Pode ser chamado mais de uma vez.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// RunOnce executa uma varredura se conseguir o lock. ran=false indica que outra
// instância já está varrendo.
func (w *Worker) RunOnce(ctx context.Context) (result autocloseservice.SweepResult, ran bool, err error) {
	acquired, err := w.locks.SetNX(ctx, lockKey, w.instanceID, w.lockTTL)
	if err != nil {
		return autocloseservice.SweepResult{}, false, err
	}
	if !acquired {
		w.logger.Debug("Varredura ignorada: lock pertence a outra instância.", nil)
		return autocloseservice.SweepResult{}, false, nil
	}
	defer func() {
		if _, relErr := w.locks.DeleteIfValue(context.WithoutCancel(ctx), lockKey, w.instanceID); relErr != nil {
			w.logger.Warn("Falha ao liberar lock da varredura.", map[string]interface{}{"error": relErr.Error()})
		}
	}()

	result, err = w.sweeper.RunAutoCloseSweep(ctx, w.clock.Now())
	return result, true, err
}
