/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package stage

import (
	"context"
	"time"

	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/log"
)

// Scheduler schedules addressable invocations for later, periodic or
// cron-based execution. Scheduled calls travel through the regular pipeline,
// so they activate and route exactly like direct proxy calls.
type Scheduler struct {
	quartzScheduler quartz.Scheduler
	stage           *Stage
	started         *atomic.Bool
	logger          log.Logger
}

func newScheduler(stage *Stage, logger log.Logger) *Scheduler {
	// create an instance of quartz scheduler with logger off
	quartzScheduler, _ := quartz.NewStdScheduler(
		quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)),
	)
	return &Scheduler{
		quartzScheduler: quartzScheduler,
		stage:           stage,
		started:         atomic.NewBool(false),
		logger:          logger,
	}
}

// start starts the scheduler under the stage run context.
func (s *Scheduler) start(ctx context.Context) {
	s.quartzScheduler.Start(ctx)
	s.started.Store(s.quartzScheduler.IsStarted())
}

// stop clears pending jobs and stops the scheduler.
func (s *Scheduler) stop(ctx context.Context) {
	_ = s.quartzScheduler.Clear()
	s.quartzScheduler.Stop()
	s.started.Store(false)
	s.quartzScheduler.Wait(ctx)
}

// ScheduleOnce invokes the addressable method once after the given delay.
// The key names the job for later cancellation.
func (s *Scheduler) ScheduleOnce(key string, delay time.Duration, interfaceID, addressableKey, method string, args ...any) error {
	if !s.started.Load() {
		return errors.ErrSchedulerNotStarted
	}
	detail := quartz.NewJobDetail(s.invocationJob(interfaceID, addressableKey, method, args), quartz.NewJobKey(key))
	return s.quartzScheduler.ScheduleJob(detail, quartz.NewRunOnceTrigger(delay))
}

// ScheduleEvery invokes the addressable method repeatedly at the given
// interval.
func (s *Scheduler) ScheduleEvery(key string, interval time.Duration, interfaceID, addressableKey, method string, args ...any) error {
	if !s.started.Load() {
		return errors.ErrSchedulerNotStarted
	}
	detail := quartz.NewJobDetail(s.invocationJob(interfaceID, addressableKey, method, args), quartz.NewJobKey(key))
	return s.quartzScheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(interval))
}

// ScheduleCron invokes the addressable method on the given cron expression
// in the given location. A nil location defaults to UTC.
func (s *Scheduler) ScheduleCron(key, cronExpression string, location *time.Location, interfaceID, addressableKey, method string, args ...any) error {
	if !s.started.Load() {
		return errors.ErrSchedulerNotStarted
	}
	if location == nil {
		location = time.UTC
	}
	trigger, err := quartz.NewCronTriggerWithLoc(cronExpression, location)
	if err != nil {
		return err
	}
	detail := quartz.NewJobDetail(s.invocationJob(interfaceID, addressableKey, method, args), quartz.NewJobKey(key))
	return s.quartzScheduler.ScheduleJob(detail, trigger)
}

// Unschedule cancels the job registered under the given key.
func (s *Scheduler) Unschedule(key string) error {
	if !s.started.Load() {
		return errors.ErrSchedulerNotStarted
	}
	return s.quartzScheduler.DeleteJob(quartz.NewJobKey(key))
}

func (s *Scheduler) invocationJob(interfaceID, addressableKey, method string, args []any) *job.FunctionJob[any] {
	return job.NewFunctionJob(func(ctx context.Context) (any, error) {
		value, err := s.stage.Proxy(interfaceID, addressableKey).Invoke(ctx, method, args...)
		if err != nil {
			s.logger.Warnf("scheduled invocation %s/%s.%s failed: %v", interfaceID, addressableKey, method, err)
			return nil, err
		}
		return value, nil
	})
}
