package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/btpc/blockchain/app/services/node/handlers"
	"github.com/btpc/blockchain/business/sys/metrics"
	"github.com/btpc/blockchain/foundation/blockchain/genesis"
	"github.com/btpc/blockchain/foundation/blockchain/script"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/btpc/blockchain/foundation/blockchain/state"
	"github.com/btpc/blockchain/foundation/blockchain/storage/disk"
	"github.com/btpc/blockchain/foundation/blockchain/worker"
	"github.com/btpc/blockchain/foundation/events"
	"github.com/btpc/blockchain/foundation/logger"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
		}
		State struct {
			Network        string `conf:"default:regtest,help:mainnet testnet or regtest"`
			ParamsFile     string `conf:"help:parameters file for a private network"`
			DBPath         string `conf:"default:zblock/ledger"`
			SelectStrategy string `conf:"default:fee,help:fee or feerate"`
			MaxBlockTxs    int    `conf:"default:0"`
		}
		Mining struct {
			Enabled    bool          `conf:"default:false"`
			PubKeyHash string        `conf:"help:0x prefixed hash the block reward is paid to"`
			Workers    int           `conf:"default:2"`
			Interval   time.Duration `conf:"default:0s"`
			MineEmpty  bool          `conf:"default:false"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "BTPC consensus node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Network Parameters

	params, err := genesis.Lookup(cfg.State.Network)
	if cfg.State.ParamsFile != "" {
		params, err = genesis.Load(cfg.State.ParamsFile)
	}
	if err != nil {
		return fmt.Errorf("loading network parameters: %w", err)
	}

	log.Infow("startup", "status", "network", "name", params.Name, "forkid", params.ForkID, "bypass", params.Bypass)

	// The reward of mined blocks is paid to a pay-to-pubkey-hash script.
	var minerScript []byte
	if cfg.Mining.PubKeyHash != "" {
		pkh, err := hexutil.Decode(cfg.Mining.PubKeyHash)
		if err != nil {
			return fmt.Errorf("decoding miner pubkey hash: %w", err)
		}
		if len(pkh) != script.PubKeyHashLen {
			return fmt.Errorf("miner pubkey hash must be %d bytes, got %d", script.PubKeyHashLen, len(pkh))
		}
		minerScript = script.PayToPubKeyHash(pkh)
	}

	if cfg.Mining.Enabled && minerScript == nil {
		return errors.New("mining enabled without a miner pubkey hash")
	}

	// =========================================================================
	// Metrics Support

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mtrcs := metrics.New(reg)

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. For now, these raw messages are sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	storage, err := disk.New(cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}

	// The state value represents the blockchain node and manages the blockchain
	// database and provides an API for application support.
	st, err := state.New(state.Config{
		Params:         params,
		Storage:        storage,
		Verifier:       signature.NewMLDSA(),
		SelectStrategy: cfg.State.SelectStrategy,
		MaxBlockTxs:    cfg.State.MaxBlockTxs,
		MiningWorkers:  cfg.Mining.Workers,
		MinerScript:    minerScript,
		EvHandler:      ev,
		Metrics:        mtrcs,
	})
	if err != nil {
		storage.Close()
		return err
	}
	defer st.Shutdown()

	// The worker package implements the mining workflow. The worker will
	// register itself with the state.
	if cfg.Mining.Enabled {
		options := []func(w *worker.Worker){worker.WithMineInterval(cfg.Mining.Interval)}
		if cfg.Mining.MineEmpty {
			options = append(options, worker.WithMineEmpty())
		}
		worker.Run(st, ev, options...)
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st, reg)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	muxCfg := handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
		Metrics:  mtrcs,
	}

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      handlers.PublicMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	// Construct a server to service the requests against the mux.
	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      handlers.PrivateMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
