// pscue-complete is the short-lived client invoked by shell completion
// hooks. It ensures the predictor daemon is running, sends one completion
// request, prints the ranked suggestions to stdout, and exits. Any
// failure is silent: a completer that errors noisily is worse than one
// that offers no suggestions.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pscue/pscue/internal/ipc"
	"github.com/pscue/pscue/internal/transport"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			os.Exit(0)
		}
	}()

	if len(os.Args) >= 2 && (os.Args[1] == "--persistent" || os.Args[1] == "-persistent") {
		runPersistent()
		return
	}

	runOneshot(os.Args[1:])
}

func runOneshot(args []string) {
	req, ok := parseRequest(args)
	if !ok {
		return
	}

	if err := ipc.EnsureDaemon(); err != nil {
		return
	}

	client, err := ipc.Dial(transport.NewUnixTransport(""), ipc.DialTimeout)
	if err != nil {
		return
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), ipc.SuggestTimeout)
	defer cancel()

	resp, err := client.Complete(ctx, req)
	if err != nil {
		return
	}
	for _, c := range filterByWord(resp.Completions, req.WordToComplete) {
		fmt.Println(c.Text)
	}
}

// filterByWord applies the partial-word prefix filter client-side: the
// daemon's cache key and candidate list never depend on word, so the same
// cached response serves every partial word of that context, and this is
// the one place the prefix is applied.
func filterByWord(items []ipc.CompletionItem, word string) []ipc.CompletionItem {
	if word == "" {
		return items
	}
	word = strings.ToLower(word)
	out := items[:0]
	for _, it := range items {
		if strings.HasPrefix(strings.ToLower(it.Text), word) {
			out = append(out, it)
		}
	}
	return out
}

// parseRequest reads "command commandLine [wordToComplete] [includeDynamic]"
// from positional arguments, the calling convention shell completion hooks
// invoke this binary with.
func parseRequest(args []string) (ipc.CompletionRequest, bool) {
	if len(args) < 2 {
		return ipc.CompletionRequest{}, false
	}
	req := ipc.CompletionRequest{
		Command:     args[0],
		CommandLine: args[1],
	}
	if len(args) >= 3 {
		req.WordToComplete = args[2]
	}
	if len(args) >= 4 {
		req.IncludeDynamicArguments, _ = strconv.ParseBool(args[3])
	}
	return req, true
}

// runPersistent serves completion requests read line by line from stdin
// over a single long-lived daemon connection, amortizing the dial cost
// across a shell session's lifetime. Each line is split on whitespace and
// the fields are read like the one-shot positional arguments, so a command
// line containing spaces cannot be passed as a single field. Each response
// is one line of tab-separated completion texts; a malformed request or a
// failed call yields an empty line.
func runPersistent() {
	if err := ipc.EnsureDaemon(); err != nil {
		return
	}
	client, err := ipc.Dial(transport.NewUnixTransport(""), ipc.DialTimeout)
	if err != nil {
		return
	}
	defer client.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		req, ok := parseRequest(fields)
		if !ok {
			fmt.Println()
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), ipc.SuggestTimeout)
		resp, err := client.Complete(ctx, req)
		cancel()
		if err != nil {
			fmt.Println()
			continue
		}
		filtered := filterByWord(resp.Completions, req.WordToComplete)
		texts := make([]string, len(filtered))
		for i, c := range filtered {
			texts[i] = c.Text
		}
		fmt.Println(strings.Join(texts, "\t"))
	}
}
