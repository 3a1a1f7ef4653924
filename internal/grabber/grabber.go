// Package grabber repeatedly submits election forms once the election
// window opens.
package grabber

import (
	"context"
	"fmt"
	"time"

	"eamsgrab/internal/components/assert"
	"eamsgrab/internal/components/chrono"
	"eamsgrab/internal/components/telemetry"
	"eamsgrab/internal/eams"
)

const (
	report_scheduler_wait    = "scheduler.wait"
	report_scheduler_submit  = "scheduler.submit"
	report_scheduler_backoff = "scheduler.backoff"
	report_scheduler_notify  = "scheduler.notify"
	report_scheduler_pass    = "scheduler.pass"
)

// Submitter posts one election form, eams.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, endpoint string, form eams.Form) (eams.Response, error)
}

type Options struct {
	BaseUrl   string
	ProfileId string
	// Param is the parameter name that worked for the catalog, it is tried
	// first on every course.
	Param     eams.ParamName
	CourseIds []string
	OpenTime  time.Time

	// MinGap is the minimum time between two submissions, across every
	// course and url.
	MinGap time.Duration
	// Backoff is slept after the server asks to slow down.
	Backoff time.Duration
	// PassInterval is slept after every pass over the courses.
	PassInterval time.Duration
}

func (o *Options) setDefaults() {
	if o.MinGap <= 0 {
		o.MinGap = 800 * time.Millisecond
	}
	if o.Backoff <= 0 {
		o.Backoff = 3 * time.Second
	}
	if o.PassInterval <= 0 {
		o.PassInterval = 700 * time.Millisecond
	}
}

type Scheduler struct {
	submitter Submitter
	clock     chrono.API
	tel       telemetry.API
	notifier  Notifier
	opts      Options
	urls      []string
	metrics   metrics

	lastSubmit time.Time
	notified   map[string]struct{}
}

// NewScheduler creates a scheduler, `notifier` may be nil.
func NewScheduler(submitter Submitter, opts Options, clock chrono.API, tel telemetry.API, notifier Notifier) *Scheduler {
	assert.NotNil(submitter, "submitter")
	assert.NotNil(clock, "clock")
	assert.NotNil(tel, "telemetry")
	assert.Digits(opts.ProfileId, "profile id")

	opts.setDefaults()
	if opts.Param == "" {
		opts.Param = eams.ParamElectionProfileID
	}
	tel = telemetry.NewScopedAPI("grabber", tel)

	return &Scheduler{
		submitter: submitter,
		clock:     clock,
		tel:       tel,
		notifier:  notifier,
		opts:      opts,
		urls:      eams.SubmitUrls(opts.BaseUrl, opts.ProfileId, opts.Param),
		metrics:   newMetrics(tel),
		notified:  map[string]struct{}{},
	}
}

// Run waits for the open time and then submits every course over and over.
// It only returns once ctx is done, with ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := s.clock.Now()
		if now.Before(s.opts.OpenTime) {
			remaining := s.opts.OpenTime.Sub(now)
			s.tel.ReportInfo(
				"election not open yet",
				"open_time", s.opts.OpenTime.Format(time.DateTime),
				"remaining", remaining.Round(time.Millisecond).String(),
			)
		} else {
			err := s.pass(ctx)
			if err != nil {
				return err
			}
		}

		err := s.clock.Sleep(ctx, s.opts.PassInterval)
		if err != nil {
			return err
		}
	}
}

// pass submits every course once, the returned error is only ever a
// context error.
func (s *Scheduler) pass(ctx context.Context) error {
	var sent int64
	for _, courseId := range s.opts.CourseIds {
		ok, err := s.submitCourse(ctx, courseId)
		if ok {
			sent++
		}
		if err != nil {
			return err
		}
	}
	s.tel.ReportCount(report_scheduler_pass, sent)
	return nil
}

// submitCourse reports whether a usable response came back for courseId.
func (s *Scheduler) submitCourse(ctx context.Context, courseId string) (bool, error) {
	form := eams.NewForm(courseId)

	for _, endpoint := range s.urls {
		err := s.pace(ctx)
		if err != nil {
			return false, err
		}

		start := s.clock.Now()
		res, err := s.submitter.Submit(ctx, endpoint, form)
		s.lastSubmit = s.clock.Now()
		s.metrics.latency(ctx, s.lastSubmit.Sub(start))

		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			s.metrics.submission(ctx, outcomeError)
			s.tel.ReportDebug(report_scheduler_submit, err, courseId, endpoint)
			continue
		}
		if res.Bounced() {
			s.metrics.submission(ctx, outcomeBounced)
			s.tel.ReportDebug(report_scheduler_submit, "bounced to authentication", courseId, endpoint)
			continue
		}

		s.metrics.submission(ctx, outcomeSent)
		text, _ := res.Text()
		message := eams.ExtractMessage(text)
		s.tel.ReportInfo(
			fmt.Sprintf("[%s] %d -> %s", s.lastSubmit.Format("15:04:05.000"), res.Status, message),
			"course", courseId,
		)
		s.notify(ctx, courseId, message)

		if eams.IsRateLimited(res.Status, text) {
			s.metrics.backoff(ctx)
			s.tel.ReportDebug(report_scheduler_backoff, s.opts.Backoff.String())
			return true, s.clock.Sleep(ctx, s.opts.Backoff)
		}
		return true, nil
	}

	s.metrics.submission(ctx, outcomeFailed)
	s.tel.ReportWarning(report_scheduler_submit, "submission failed: every url bounced or errored", courseId)
	return false, nil
}

// pace blocks until MinGap has passed since the last submission.
func (s *Scheduler) pace(ctx context.Context) error {
	if s.lastSubmit.IsZero() {
		return nil
	}
	gap := s.clock.Now().Sub(s.lastSubmit)
	if gap >= s.opts.MinGap {
		return nil
	}
	return s.clock.Sleep(ctx, s.opts.MinGap-gap)
}

func (s *Scheduler) notify(ctx context.Context, courseId, message string) {
	if s.notifier == nil || !eams.IsSuccess(message) {
		return
	}
	if _, ok := s.notified[courseId]; ok {
		return
	}
	s.notified[courseId] = struct{}{}

	err := s.notifier.NotifySuccess(ctx, courseId, message)
	if err != nil {
		s.tel.ReportWarning(report_scheduler_notify, err, courseId)
	}
}
