// Command jesdloop runs one link's TX and RX cores continuously,
// either looped back in-process or bridged to real serial/GPIO PHY
// hardware, streaming the Short Transport Layer Pattern and reporting
// sync status and mismatch counts at a fixed interval.
package main

/*------------------------------------------------------------------
 *
 * Purpose:	Long-running driver for a jesd204 link, the software
 *		counterpart of an FPGA bring-up loop: bring the link up,
 *		keep it up, and print enough to tell when it isn't.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/samoyed-labs/jesd204core/internal/jesd204"
	"github.com/samoyed-labs/jesd204core/internal/jesdcfg"
	"github.com/samoyed-labs/jesd204core/internal/jutil"
	"github.com/samoyed-labs/jesd204core/internal/phy"
)

func main() {
	var (
		configPath  = flag.StringP("config", "c", "", "path to link config YAML")
		linkName    = flag.StringP("link", "l", "", "name of the link within the config to run")
		mode        = flag.String("mode", "loopback", "loopback|serial")
		serialDev   = flag.String("serial-device", "", "serial device for the PHY, e.g. /dev/ttyUSB0 (mode=serial)")
		baud        = flag.Int("baud", 921600, "serial baud rate (mode=serial)")
		gpioChip    = flag.String("gpio-chip", "", "GPIO chip for the SYNC~ line, e.g. gpiochip0 (mode=serial)")
		gpioOffset  = flag.Int("gpio-offset", -1, "GPIO line offset for the SYNC~ line (mode=serial)")
		gpioActLow  = flag.Bool("gpio-active-low", true, "treat the SYNC~ GPIO line as active-low")
		randomSTPL  = flag.Bool("random-stpl", false, "use the scrambled STPL pattern instead of the fixed positional one")
		cyclesPerMS = flag.IntP("pace-ms", "p", 1, "milliseconds to sleep after every 1000 jesd cycles")
		reportEvery = flag.IntP("report-every", "r", 50000, "jesd cycles between status reports")
		verbose     = flag.BoolP("verbose", "v", false, "enable debug logging")
		version     = flag.BoolP("version", "V", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		jutil.PrintVersion(*verbose)
		return
	}

	logger := log.New(os.Stderr)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := jesdcfg.Load(*configPath)
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}
	link, err := selectLink(cfg, *linkName)
	if err != nil {
		logger.Error("select link", "err", err)
		os.Exit(1)
	}
	settings, err := link.Settings()
	if err != nil {
		logger.Error("invalid settings", "err", err)
		os.Exit(1)
	}

	tx, err := jesd204.NewCoreTX(settings, link.WithCounter, link.Scramble)
	if err != nil {
		logger.Error("build core tx", "err", err)
		os.Exit(1)
	}
	rx, err := jesd204.NewCoreRX(settings, link.WithCounter, link.Scramble)
	if err != nil {
		logger.Error("build core rx", "err", err)
		os.Exit(1)
	}
	tx.SetLogger(logger)
	rx.SetLogger(logger)

	sinks := make([]phy.LaneSink, settings.L)
	sources := make([]phy.LaneSource, settings.L)
	var syncSrc phy.SyncSource
	var closers []func() error

	switch *mode {
	case "loopback":
		lb := make([]*phy.LoopbackPHY, settings.L)
		for l := range lb {
			lb[l] = phy.NewLoopbackPHY(2)
			sinks[l] = lb[l]
			sources[l] = lb[l]
		}
		// No separate SYNC~ wire exists in-process: fall through to the
		// rxJsyncOut feedback path below instead of a SyncSource stub.

	case "serial":
		// Per-lane device paths come from the config's lanes list; a
		// single --serial-device is accepted only for a one-lane link,
		// since every lane needs its own port.
		devices := link.Lanes
		if len(devices) == 0 {
			if *serialDev == "" {
				logger.Error("mode=serial requires --serial-device or a lanes list in the config")
				os.Exit(1)
			}
			if settings.L != 1 {
				logger.Error("mode=serial with a single --serial-device needs l=1; name per-lane devices in the config's lanes list", "l", settings.L)
				os.Exit(1)
			}
			devices = []string{*serialDev}
		}
		if len(devices) != settings.L {
			logger.Error("lanes list does not match lane count", "lanes", len(devices), "l", settings.L)
			os.Exit(1)
		}
		for l, dev := range devices {
			sp, err := phy.OpenSerialPHY(dev, *baud)
			if err != nil {
				logger.Error("open serial phy", "lane", l, "device", dev, "err", err)
				os.Exit(1)
			}
			closers = append(closers, sp.Close)
			sinks[l] = sp
			sources[l] = sp
		}
		if *gpioChip != "" && *gpioOffset >= 0 {
			gs, err := phy.OpenGPIOSync(*gpioChip, *gpioOffset, *gpioActLow)
			if err != nil {
				logger.Error("open gpio sync", "err", err)
				os.Exit(1)
			}
			closers = append(closers, gs.Close)
			syncSrc = gs
		}

	default:
		logger.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	tx.SetSTPL(true, *randomSTPL)
	rx.SetSTPL(true, *randomSTPL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	jsync := false
	cycle := 0
	for {
		select {
		case <-sigCh:
			fmt.Println("interrupted")
			return
		default:
		}

		// No SYSREF line is wired in this loopback harness, so both
		// LMFCs free-run from reset instead of being phase-locked to
		// an external reference. The STPL switch drives the transport
		// sink, so no user sample bundle is passed.
		txWords := tx.Step(jsync, false, nil)
		rawData := make([][jesd204.D]byte, settings.L)
		rawCtrl := make([][jesd204.D]bool, settings.L)
		for l := 0; l < settings.L; l++ {
			if err := sinks[l].Send(txWords[l].Data, txWords[l].Ctrl); err != nil {
				logger.Error("phy send", "lane", l, "err", err)
				os.Exit(1)
			}
			rawData[l], rawCtrl[l], err = sources[l].Recv()
			if err != nil {
				logger.Error("phy recv", "lane", l, "err", err)
				os.Exit(1)
			}
		}

		_, rxJsyncOut := rx.Step(rawData, rawCtrl, false)
		if syncSrc != nil {
			asserted, err := syncSrc.Sync()
			if err != nil {
				logger.Error("phy sync", "err", err)
				os.Exit(1)
			}
			jsync = asserted
		} else {
			jsync = rxJsyncOut
		}

		cycle++
		if cycle%*reportEvery == 0 {
			logger.Info("status", "cycle", cycle, "tx_restarts", tx.RestartCount(),
				"rx_synced", rx.Synced(), "rx_ilas_valid", rx.ILASValid(),
				"stpl_mismatches", rx.STPLMismatches())
		}
		if *cyclesPerMS > 0 && cycle%1000 == 0 {
			jutil.SleepMS(*cyclesPerMS)
		}
	}
}

func selectLink(cfg *jesdcfg.Config, name string) (jesdcfg.Link, error) {
	if name != "" {
		link, ok := cfg.Links[name]
		if !ok {
			return jesdcfg.Link{}, fmt.Errorf("no link named %q in config", name)
		}
		return link, nil
	}
	for _, link := range cfg.Links {
		return link, nil
	}
	return jesdcfg.Link{}, fmt.Errorf("config has no links")
}
