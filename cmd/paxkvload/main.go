// Command paxkvload bulk-loads key/value pairs into the cluster from
// newline-delimited "key\tvalue" records on stdin, one Put per line,
// generalizing the teacher's test-harness style of driving a Clerk in
// a loop (see kvpaxos's own test files) into a standalone utility.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rescrv/pocdb/client"
	"github.com/rescrv/pocdb/internal/config"
)

func main() {
	topo, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "paxkvload:", err)
		os.Exit(1)
	}
	cl := client.New(topo)
	defer cl.Close()

	scanner := bufio.NewScanner(os.Stdin)
	var n int
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			fmt.Fprintf(os.Stderr, "paxkvload: skipping malformed line %q\n", line)
			continue
		}
		if err := cl.Put([]byte(parts[0]), []byte(parts[1])); err != nil {
			fmt.Fprintf(os.Stderr, "paxkvload: put %q: %v\n", parts[0], err)
			os.Exit(1)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "paxkvload:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "paxkvload: loaded %d keys\n", n)
}
