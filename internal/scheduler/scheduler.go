package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"TokenChart/internal/chart"
	"TokenChart/internal/model"
	"TokenChart/internal/notifier"
	"TokenChart/internal/recorder"
)

// Sender delivers alert messages. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int, base time.Duration) error
}

// Loader loads one chart. *chart.Service satisfies it.
type Loader interface {
	Load(ctx context.Context, asset string, w model.Window) *chart.Result
}

type chartKey struct {
	asset  string
	window model.Window
}

// Scheduler refreshes every tracked chart on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Charts   Loader
	Notifier Sender // nil disables alerts
	Recorder recorder.Recorder
	Logger   *zap.Logger
	Ctx      context.Context

	mu        sync.Mutex
	assets    []string
	windows   []model.Window
	lastState map[chartKey]chart.State
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, charts Loader, sender Sender, rec recorder.Recorder, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Charts:    charts,
		Notifier:  sender,
		Recorder:  rec,
		Logger:    logger,
		Ctx:       ctx,
		lastState: make(map[chartKey]chart.State),
	}
}

// SetTracked replaces the tracked assets and windows. Safe to call while running.
func (s *Scheduler) SetTracked(assets []string, windows []model.Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = append([]string(nil), assets...)
	s.windows = append([]model.Window(nil), windows...)
	s.Logger.Info("tracked charts updated", zap.Strings("assets", assets), zap.Int("windows", len(windows)))
}

func (s *Scheduler) tracked() ([]string, []model.Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assets, s.windows
}

// Register adds the refresh job.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshAll); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RefreshNow runs one refresh pass immediately.
func (s *Scheduler) RefreshNow() {
	s.refreshAll()
}

func (s *Scheduler) refreshAll() {
	assets, windows := s.tracked()
	s.Logger.Info("refreshing charts", zap.Int("assets", len(assets)), zap.Int("windows", len(windows)))
	for _, asset := range assets {
		for _, w := range windows {
			if s.Ctx.Err() != nil {
				return
			}
			s.refresh(asset, w)
		}
	}
}

func (s *Scheduler) refresh(asset string, w model.Window) {
	res := s.Charts.Load(s.Ctx, asset, w)

	snap := &recorder.ChartSnapshot{
		Asset:      asset,
		Window:     w,
		State:      string(res.State),
		Buckets:    len(res.Series),
		Summary:    res.Summary,
		RecordedAt: res.LoadedAt,
	}
	if res.Err != nil {
		snap.Error = res.Err.Error()
	}
	if err := s.Recorder.RecordSnapshot(snap); err != nil {
		s.Logger.Error("record snapshot failed", zap.String("asset", asset), zap.Error(err))
	}

	key := chartKey{asset, w}
	s.mu.Lock()
	prev, seen := s.lastState[key]
	s.lastState[key] = res.State
	s.mu.Unlock()

	// alert on entering or leaving the error state
	if seen && prev != res.State && (prev == chart.StateError || res.State == chart.StateError) {
		s.trySend(notifier.FormatChartReport(res))
	}
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/chart":
		asset, w, err := parseChartArgs(fields[1:])
		if err != nil {
			return err.Error()
		}
		return notifier.FormatChartReport(s.Charts.Load(ctx, asset, w))
	case "/history":
		asset, w, err := parseChartArgs(fields[1:])
		if err != nil {
			return err.Error()
		}
		snaps, err := s.Recorder.RecentSnapshots(asset, w, 5)
		if err != nil {
			return "history unavailable: " + html.EscapeString(err.Error())
		}
		return formatHistory(asset, w, snaps)
	case "/windows":
		return notifier.FormatWindows()
	default:
		return helpText
	}
}

const helpText = "Commands:\n• /chart &lt;asset&gt; [window]\n• /history &lt;asset&gt; [window]\n• /windows"

func parseChartArgs(args []string) (string, model.Window, error) {
	if len(args) == 0 {
		return "", "", fmt.Errorf("usage: /chart &lt;asset&gt; [window]")
	}
	w := model.Window24H
	if len(args) > 1 {
		parsed, err := model.ParseWindow(args[1])
		if err != nil {
			return "", "", fmt.Errorf("%s. %s", html.EscapeString(err.Error()), notifier.FormatWindows())
		}
		w = parsed
	}
	return args[0], w, nil
}

func formatHistory(asset string, w model.Window, snaps []recorder.ChartSnapshot) string {
	asset = html.EscapeString(asset)
	if len(snaps) == 0 {
		return fmt.Sprintf("No snapshots recorded for %s (%s).", asset, w)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕑 <b>%s</b> | %s\n\n", asset, w))
	for _, snap := range snaps {
		b.WriteString(fmt.Sprintf("%s  %-10s %s\n",
			snap.RecordedAt.UTC().Format("01-02 15:04"), snap.State, notifier.FormatPrice(snap.Summary.LastPrice)))
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3, time.Second); err != nil {
		s.Logger.Error("send notification failed", zap.Error(err))
	}
}
