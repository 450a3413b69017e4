// Command kvstored runs the in-memory key/value server: it loads
// configuration, replays the append-only log, starts the RESP listener,
// the optional admin HTTP surface, and the optional NATS bridge, then
// waits for an interrupt to shut everything down cooperatively (§6, §9 —
// out of scope for the core, owned here).
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"

	"github.com/cc-kvstore/kvstored/internal/adminhttp"
	"github.com/cc-kvstore/kvstored/internal/aol"
	"github.com/cc-kvstore/kvstored/internal/archive"
	"github.com/cc-kvstore/kvstored/internal/codec"
	"github.com/cc-kvstore/kvstored/internal/command"
	"github.com/cc-kvstore/kvstored/internal/config"
	"github.com/cc-kvstore/kvstored/internal/keyspace"
	"github.com/cc-kvstore/kvstored/internal/ledger"
	"github.com/cc-kvstore/kvstored/internal/natsbridge"
	"github.com/cc-kvstore/kvstored/internal/pubsub"
	"github.com/cc-kvstore/kvstored/internal/runtimeEnv"
	"github.com/cc-kvstore/kvstored/internal/scheduler"
	"github.com/cc-kvstore/kvstored/internal/server"
	"github.com/cc-kvstore/kvstored/pkg/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a JSON config file (optional)")
	envPath := flag.String("env", "", "path to a .env file to load into the process environment (optional)")
	gopsAgent := flag.Bool("gops", false, "start the gops diagnostic agent")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		log.Errorf("kvstored: loading configuration: %s", err.Error())
		return 1
	}
	log.SetLogLevel(cfg.LogLevel)
	log.SetLogDateTime(cfg.LogDate)

	if *gopsAgent {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Warnf("kvstored: gops agent failed to start: %s", err.Error())
		}
	}

	if cfg.RunAsUser != "" || cfg.RunAsGroup != "" {
		if err := runtimeEnv.DropPrivileges(cfg.RunAsUser, cfg.RunAsGroup); err != nil {
			log.Errorf("kvstored: dropping privileges: %s", err.Error())
			return 1
		}
	}

	store := keyspace.New()
	hub := pubsub.NewHub()
	dispatcher := command.NewDispatcher(store, hub)

	if err := replay(cfg, dispatcher); err != nil {
		log.Errorf("kvstored: AOL replay: %s", err.Error())
		return 1
	}

	aolLog, err := aol.Open(cfg.AOLPath, aol.ParsePolicy(cfg.AOLPolicy))
	if err != nil {
		log.Errorf("kvstored: opening AOL at %s: %s", cfg.AOLPath, err.Error())
		return 1
	}
	defer aolLog.Close()

	var bridge *natsbridge.Bridge
	if cfg.NATSBridgeURL != "" {
		bridge, err = natsbridge.Dial(cfg.NATSBridgeURL, cfg.NATSBridgeSubjectPrefix)
		if err != nil {
			log.Warnf("kvstored: NATS bridge disabled, dial failed: %s", err.Error())
			bridge = nil
		} else {
			defer bridge.Close()
		}
	}

	var led *ledger.Ledger
	if cfg.LedgerPath != "" {
		led, err = ledger.Open(cfg.LedgerPath)
		if err != nil {
			log.Warnf("kvstored: ledger disabled, open failed: %s", err.Error())
			led = nil
		} else {
			defer led.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched, err := scheduler.New()
	if err != nil {
		log.Errorf("kvstored: creating scheduler: %s", err.Error())
		return 1
	}
	registerBackgroundJobs(sched, cfg, store, aolLog, led)
	go sched.RunUntil(ctx)

	var adminSrv *adminhttp.Server
	if cfg.AdminAddress != "" {
		adminSrv = adminhttp.New(cfg.AdminAddress, store, time.Now())
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil {
				log.Warnf("kvstored: admin HTTP server stopped: %s", err.Error())
			}
		}()
	}

	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Errorf("kvstored: binding %s: %s", cfg.ListenAddress, err.Error())
		return 1
	}

	if cfg.RunAsUser != "" || cfg.RunAsGroup != "" {
		if err := runtimeEnv.DropPrivileges(cfg.RunAsUser, cfg.RunAsGroup); err != nil {
			log.Errorf("kvstored: dropping privileges: %s", err.Error())
			return 1
		}
	}
	srv := server.New(ln, dispatcher, aolLog, bridge)

	go srv.Serve()
	log.Infof("kvstored: listening on %s", cfg.ListenAddress)
	runtimeEnv.SystemdNotify(true, "kvstored ready")

	waitForShutdown()

	log.Infof("kvstored: shutting down")
	runtimeEnv.SystemdNotify(false, "kvstored shutting down")
	ln.Close()
	srv.Wait()

	cancel()
	if adminSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		adminSrv.Shutdown(shutdownCtx)
	}

	return 0
}

func replay(cfg config.Config, dispatcher *command.Dispatcher) error {
	return aol.Replay(cfg.AOLPath, func(f codec.Frame) error {
		cmd, err := command.Parse(f)
		if err != nil {
			return err
		}
		dispatcher.Execute(cmd)
		return nil
	})
}

func registerBackgroundJobs(sched *scheduler.Scheduler, cfg config.Config, store *keyspace.Store, aolLog *aol.Log, led *ledger.Ledger) {
	if aolLog.Policy() == aol.EverySecond {
		if err := sched.Every(time.Second, "aol-fsync", aolLog.Sync); err != nil {
			log.Warnf("kvstored: registering AOL fsync job: %s", err.Error())
		}
	}

	if led != nil {
		if err := sched.Every(time.Minute, "ledger-snapshot", func() error {
			led.RecordSnapshot(store.DBSize())
			return nil
		}); err != nil {
			log.Warnf("kvstored: registering ledger snapshot job: %s", err.Error())
		}
	}

	if cfg.ArchiveS3Bucket != "" {
		arch, err := archive.New(context.Background(), cfg.ArchiveS3Bucket, cfg.ArchiveS3Prefix)
		if err != nil {
			log.Warnf("kvstored: archive backend disabled: %s", err.Error())
			return
		}
		interval := cfg.AOLRotateInterval
		if interval <= 0 {
			interval = 24 * time.Hour
		}
		if err := sched.Every(interval, "aol-rotate", func() error {
			suffix := time.Now().UTC().Format("20060102T150405")
			rotatedPath, size, err := aolLog.Rotate(cfg.AOLPath, suffix)
			if err != nil {
				return err
			}
			if led != nil {
				led.RecordSegmentRotation(rotatedPath, size)
			}
			return arch.Upload(context.Background(), rotatedPath, time.Now())
		}); err != nil {
			log.Warnf("kvstored: registering AOL rotation job: %s", err.Error())
		}
	}
}

func waitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}
