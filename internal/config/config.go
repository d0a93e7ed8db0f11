// Package config holds the fixed five-host cluster topology,
// generalizing the teacher's static peers []string passed to
// paxos.Make/StartServer into a host-identifier-keyed table loadable
// from a small JSON file, per the process-arguments contract: a
// daemon names which of A..E it is and derives its bind address and
// its peers from this table.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// HostID is the 64-bit cluster host identifier. The five well-known
// identities A..E map to small fixed values so they sort and hash
// predictably; any 64-bit value is accepted as a proposer's Leader
// field on the wire, but the static topology only ever contains these
// five.
type HostID uint64

const (
	HostA HostID = 1
	HostB HostID = 2
	HostC HostID = 3
	HostD HostID = 4
	HostE HostID = 5
)

// ParseHostLetter maps the daemon's single command-line argument
// ("A".."E") to a HostID.
func ParseHostLetter(letter string) (HostID, error) {
	switch letter {
	case "A":
		return HostA, nil
	case "B":
		return HostB, nil
	case "C":
		return HostC, nil
	case "D":
		return HostD, nil
	case "E":
		return HostE, nil
	default:
		return 0, fmt.Errorf("config: unknown host identity %q, want one of A..E", letter)
	}
}

func (h HostID) Letter() string {
	switch h {
	case HostA:
		return "A"
	case HostB:
		return "B"
	case HostC:
		return "C"
	case HostD:
		return "D"
	case HostE:
		return "E"
	default:
		return fmt.Sprintf("host(%d)", uint64(h))
	}
}

// Peer is one row of the static topology: a host identity and the
// address it listens on for the core wire protocol.
type Peer struct {
	Host          HostID `json:"host"`
	Address       string `json:"address"`
	ClientAddress string `json:"client_address"`
	MonitorAddr   string `json:"monitor_address,omitempty"`
}

// Topology is the fixed five-host cluster table.
type Topology struct {
	Peers []Peer `json:"peers"`
}

// Default is the topology used when PAXKV_CONFIG is unset: all five
// replicas on localhost, one TCP port apart, matching the teacher's
// /var/tmp/824-... single-machine demo convention but over TCP
// instead of Unix-domain sockets (the wire format is self-framed and
// doesn't care which transport carries it).
func Default() Topology {
	return Topology{
		Peers: []Peer{
			{Host: HostA, Address: "127.0.0.1:7001", ClientAddress: "127.0.0.1:7011", MonitorAddr: "127.0.0.1:7101"},
			{Host: HostB, Address: "127.0.0.1:7002", ClientAddress: "127.0.0.1:7012", MonitorAddr: "127.0.0.1:7102"},
			{Host: HostC, Address: "127.0.0.1:7003", ClientAddress: "127.0.0.1:7013", MonitorAddr: "127.0.0.1:7103"},
			{Host: HostD, Address: "127.0.0.1:7004", ClientAddress: "127.0.0.1:7014", MonitorAddr: "127.0.0.1:7104"},
			{Host: HostE, Address: "127.0.0.1:7005", ClientAddress: "127.0.0.1:7015", MonitorAddr: "127.0.0.1:7105"},
		},
	}
}

// Load reads a topology from path, falling back to Default if path is
// empty.
func Load(path string) (Topology, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Topology{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	var t Topology
	if err := json.NewDecoder(f).Decode(&t); err != nil {
		return Topology{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return t, nil
}

// LoadFromEnv loads the topology named by PAXKV_CONFIG, or Default if
// unset.
func LoadFromEnv() (Topology, error) {
	return Load(os.Getenv("PAXKV_CONFIG"))
}

// Address returns the wire-protocol address for host, and whether it
// was found.
func (t Topology) Address(host HostID) (string, bool) {
	for _, p := range t.Peers {
		if p.Host == host {
			return p.Address, true
		}
	}
	return "", false
}

// ClientAddress returns the client-facing address for host, and
// whether it was found. This is a distinct listener from Address: the
// wire protocol between replicas carries a host identifier in its
// framing, while client connections never claim one, so they are kept
// on a separate port rather than overloading one frame format for
// both peers and clients.
func (t Topology) ClientAddress(host HostID) (string, bool) {
	for _, p := range t.Peers {
		if p.Host == host {
			return p.ClientAddress, true
		}
	}
	return "", false
}

// MonitorAddress returns the monitor HTTP/websocket address for host,
// and whether one was configured.
func (t Topology) MonitorAddress(host HostID) (string, bool) {
	for _, p := range t.Peers {
		if p.Host == host {
			return p.MonitorAddr, p.MonitorAddr != ""
		}
	}
	return "", false
}

// Others returns every host identity in the topology except self.
func (t Topology) Others(self HostID) []HostID {
	out := make([]HostID, 0, len(t.Peers))
	for _, p := range t.Peers {
		if p.Host != self {
			out = append(out, p.Host)
		}
	}
	return out
}

// All returns every host identity in the topology, self included.
func (t Topology) All() []HostID {
	out := make([]HostID, 0, len(t.Peers))
	for _, p := range t.Peers {
		out = append(out, p.Host)
	}
	return out
}

// Quorum is any set of 3 of 5 hosts — a fixed constant for this
// cluster size, not derived from len(t.Peers), since the spec pins
// the cluster at exactly five replicas.
const Quorum = 3

// ClusterSize is the fixed replica count this core assumes throughout
// (no cluster membership changes — a stated non-goal).
const ClusterSize = 5
