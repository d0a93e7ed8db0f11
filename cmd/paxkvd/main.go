// Command paxkvd runs one replica of the cluster: a single argument
// names which of the five fixed hosts (A..E) this process is, and
// everything else — bind addresses, peers, data directory — follows
// from the static topology, generalizing the teacher's per-test
// StartServer(servers, me) call into a real, long-running daemon
// entrypoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rescrv/pocdb/client"
	"github.com/rescrv/pocdb/internal/config"
	"github.com/rescrv/pocdb/internal/daemon"
	"github.com/rescrv/pocdb/internal/logging"
	"github.com/rescrv/pocdb/internal/monitor"
	"github.com/rescrv/pocdb/internal/storage"
	"github.com/rescrv/pocdb/internal/transport"
)

func main() {
	dataDir := flag.String("data", "", "directory for this replica's LevelDB store (default: ./paxkv-data-<host>)")
	noMonitor := flag.Bool("no-monitor", false, "disable the HTTP/websocket admin page")
	templateDir := flag.String("monitor-templates", "internal/monitor/templates", "directory containing the monitor's index.tmpl")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: paxkvd [flags] A|B|C|D|E")
		os.Exit(2)
	}

	self, err := config.ParseHostLetter(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	topo, err := config.LoadFromEnv()
	if err != nil {
		logging.Errorf("paxkvd: %v", err)
		os.Exit(1)
	}

	dir := *dataDir
	if dir == "" {
		dir = filepath.Join(".", fmt.Sprintf("paxkv-data-%s", self.Letter()))
	}
	dm, err := storage.OpenLevelDB(dir)
	if err != nil {
		logging.Errorf("paxkvd: open storage: %v", err)
		os.Exit(1)
	}
	defer dm.Close()

	bindAddr, ok := topo.Address(self)
	if !ok {
		logging.Errorf("paxkvd: host %s has no address in the topology", self.Letter())
		os.Exit(1)
	}
	peers, err := transport.NewTCP(self, bindAddr, topo.Address)
	if err != nil {
		logging.Errorf("paxkvd: listen %s: %v", bindAddr, err)
		os.Exit(1)
	}

	ctx := daemon.New(self, topo, dm, peers)

	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGHUP, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if !*noMonitor {
		if monAddr, ok := topo.MonitorAddress(self); ok {
			mon := monitor.New(self, client.New(topo))
			ctx.OnLearn = mon.NotifyLearned
			go func() {
				if err := mon.Serve(runCtx, monAddr, *templateDir); err != nil {
					logging.Errorf("paxkvd: monitor: %v", err)
				}
			}()
		}
	}

	clientAddr, ok := topo.ClientAddress(self)
	if !ok {
		logging.Errorf("paxkvd: host %s has no client address in the topology", self.Letter())
		os.Exit(1)
	}
	go func() {
		if err := daemon.ServeClients(runCtx, ctx, clientAddr); err != nil {
			logging.Errorf("paxkvd: client server: %v", err)
		}
	}()

	logging.Infof("paxkvd: %s listening on %s (clients %s)", self.Letter(), bindAddr, clientAddr)
	if err := daemon.Serve(runCtx, ctx); err != nil {
		logging.Errorf("paxkvd: %v", err)
		os.Exit(1)
	}
}
