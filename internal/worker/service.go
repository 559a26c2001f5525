package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Service runs the task server and the periodic scheduler side by side.
type Service struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    zerolog.Logger
}

// NewService wires consumer onto a fresh server and registers the periodic
// audit on a scheduler sharing the same Redis.
func NewService(opt asynq.RedisConnOpt, cfg asynq.Config, consumer *Consumer, auditInterval time.Duration) (*Service, error) {
	if consumer == nil {
		return nil, errors.New("worker: consumer is nil")
	}
	log := asynqLogger{l: consumer.Logger}
	cfg.Logger = log
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			consumer.Logger.Error().Err(err).Str("task", task.Type()).Msg("task will be retried")
		})
	}
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Logger: log})
	if err := RegisterSchedules(scheduler, auditInterval); err != nil {
		return nil, err
	}
	return &Service{
		server:    asynq.NewServer(opt, cfg),
		scheduler: scheduler,
		mux:       mux,
		logger:    consumer.Logger,
	}, nil
}

// Start begins processing and scheduling. It returns once both are running.
func (s *Service) Start() error {
	if err := s.server.Start(s.mux); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}
	if err := s.scheduler.Start(); err != nil {
		s.server.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}
	s.logger.Info().Msg("worker started")
	return nil
}

// Stop drains in-flight tasks and stops the scheduler.
func (s *Service) Stop() {
	s.scheduler.Shutdown()
	s.server.Shutdown()
	s.logger.Info().Msg("worker stopped")
}

type asynqLogger struct{ l zerolog.Logger }

func (a asynqLogger) Debug(args ...any) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...any)  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...any)  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...any) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...any) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
