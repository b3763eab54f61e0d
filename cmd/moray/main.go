package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bytemomo/moray/internal/adapter/jsonreport"
	"bytemomo/moray/internal/adapter/logger"
	"bytemomo/moray/internal/analyzer"
	"bytemomo/moray/internal/candidate"
	"bytemomo/moray/internal/config"
	"bytemomo/moray/internal/metrics"
	"bytemomo/moray/internal/preflight"
	"bytemomo/moray/internal/process"
	"bytemomo/moray/internal/session"
	"bytemomo/moray/internal/usecase"

	"github.com/sirupsen/logrus"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

type options struct {
	configPath   string
	iface        string
	bssid        string
	channel      int
	ssid         string
	client       string
	security     string
	signal       *int
	duration     time.Duration
	wordlistSize int
	authorized   bool
	verbose      bool
	logFile      string
	metricsAddr  string
	showVersion  bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configPath, "config", "", "Path to configuration YAML (optional)")
	fs.StringVar(&o.iface, "iface", "", "Monitor-mode wireless interface")
	fs.StringVar(&o.bssid, "bssid", "", "Target access point address")
	fs.IntVar(&o.channel, "channel", 0, "Target channel (1-196)")
	fs.StringVar(&o.ssid, "ssid", "", "Target network name, also the wordlist seed")
	fs.StringVar(&o.client, "client", "", "Station to deauthenticate (default broadcast)")
	fs.StringVar(&o.security, "security", "", "Advertised security (OPEN, WEP, WPA, WPA2, WPA3) for the posture report")
	fs.Func("signal", "Observed signal strength 0-100 for the posture report (default unknown)", func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		o.signal = &v
		return nil
	})
	fs.DurationVar(&o.duration, "duration", 0, "Deauthentication duration (e.g. 30s)")
	fs.IntVar(&o.wordlistSize, "wordlist-size", 0, "Number of generation attempts materialized into the wordlist")
	fs.BoolVar(&o.authorized, "authorized", false, "Skip the interactive authorization prompt")
	fs.BoolVar(&o.verbose, "verbose", false, "Enable debug logging")
	fs.StringVar(&o.logFile, "log-file", "", "Also append structured logs to this file")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.BoolVar(&o.showVersion, "version", false, "Show version information")
	err := fs.Parse(args)
	return o, err
}

// applyFlags overrides configuration values with the flags that were set.
func applyFlags(cfg *config.Config, o options) {
	if o.iface != "" {
		cfg.Interface = o.iface
	}
	if o.bssid != "" {
		cfg.Target.BSSID = o.bssid
	}
	if o.channel != 0 {
		cfg.Target.Channel = o.channel
	}
	if o.ssid != "" {
		cfg.Target.SSID = o.ssid
	}
	if o.client != "" {
		cfg.Target.Client = o.client
	}
	if o.security != "" {
		cfg.Target.Security = o.security
	}
	if o.signal != nil {
		cfg.Target.Signal = o.signal
	}
	if o.duration != 0 {
		cfg.Attack.DeauthDuration = o.duration
	}
	if o.wordlistSize != 0 {
		cfg.Wordlist.Size = o.wordlistSize
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Printf("moray WPA handshake assessment v%s (%s)\n", version, commit)
		return
	}

	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		if isUnsuccessful(err) {
			os.Exit(1)
		}
		logrus.WithError(err).Fatal("Assessment failed")
	}
}

func run(opts options, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.NewLoader("").Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	closeLog := logger.SetLoggerToStructured(logger.Level(cfg.Log.Level, opts.verbose), cfg.Log.File)
	defer closeLog()

	if !opts.authorized {
		if err := preflight.Confirm(stdin, stdout); err != nil {
			return err
		}
	}
	if !preflight.IsPrivileged() {
		return errors.New("root privileges are required to drive the wireless interface")
	}
	if missing := preflight.CheckTools(nil, cfg.RequiredTools()...); len(missing) > 0 {
		return fmt.Errorf("missing tools: %s", strings.Join(missing, ", "))
	}

	target, err := cfg.BuildTarget()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logrus.WithError(err).Error("Metrics endpoint failed")
			}
		}()
	}

	log := logrus.WithFields(logrus.Fields{
		"target":  target.String(),
		"version": version,
	})
	log.Info("Starting assessment")

	orchestrator, err := setupOrchestrator(cfg, log)
	if err != nil {
		return err
	}

	result, runErr := orchestrator.Execute(ctx, target)

	report := analyzer.New().Analyze(target)
	path, err := jsonreport.New(cfg.Report.Dir, cfg.Report.IncludeKey).Save(report, result)
	if err != nil {
		log.WithError(err).Error("Could not save report")
		path = ""
	} else {
		log.WithField("report_path", path).Info("Report written")
	}

	fmt.Fprintln(stdout, renderSummary(result, report, path))

	if runErr != nil {
		return runErr
	}
	if err := usecase.Outcome(result); err != nil {
		log.WithError(err).Warn("Credential not recovered")
		return err
	}
	return nil
}

// isUnsuccessful reports whether err only says the run completed without a
// credential, as opposed to a hard failure.
func isUnsuccessful(err error) bool {
	return errors.Is(err, usecase.ErrTimedOut) || errors.Is(err, usecase.ErrNotFound)
}

func setupOrchestrator(cfg *config.Config, log *logrus.Entry) (*usecase.AttackOrchestrator, error) {
	// One runner per session so no handle is shared.
	newRunner := func(name string) *process.Exec {
		return process.NewExec(log.WithField("runner", name))
	}

	frames, err := session.NewFrameCounter(cfg.Capture.FrameCounter, newRunner("frames"), cfg.Tools.Frames)
	if err != nil {
		return nil, err
	}

	capture := session.NewCapture(newRunner("capture"), cfg.Capture.Dir, log)
	capture.Tool = cfg.Tools.Capture
	capture.InspectTool = cfg.Tools.Inspect
	capture.MinSize = cfg.Capture.MinSize
	capture.Frames = frames

	deauth := session.NewDeauth(newRunner("deauth"), log)
	deauth.Tool = cfg.Tools.Deauth
	deauth.Interval = cfg.Attack.BurstInterval

	verify := session.NewVerification(newRunner("verify"), log)
	verify.Tool = cfg.Tools.Verify
	verify.InspectTool = cfg.Tools.Inspect

	wordlist := candidate.NewFileWordlist(candidate.NewGenerator(), cfg.Wordlist.Size)

	return usecase.NewAttackOrchestrator(capture, deauth, verify, wordlist, usecase.OrchestratorConfig{
		DeauthDuration: cfg.Attack.DeauthDuration,
		PollInterval:   cfg.Attack.PollInterval,
		PollAttempts:   cfg.Attack.PollAttempts,
		WordlistPath:   cfg.Wordlist.Path,
	}, log), nil
}
