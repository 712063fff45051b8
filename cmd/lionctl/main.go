// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Lionctl sends requests to a running liond.
//
// Usage:
//
//	lionctl [--endpoint tcp://127.0.0.1:5555] get <sysinfo-type>... | all
//	lionctl set shutdown|reboot --confirm
//	lionctl list
//
// Values are printed as an aligned table on a terminal, tab-separated
// when piped, as JSON with --json, and as whole responses in
// CBOR diagnostic notation with --cbor.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/lion-device/lion/lib/client"
	"github.com/lion-device/lion/lib/codec"
	"github.com/lion-device/lion/lib/dispatch"
	"github.com/lion-device/lion/lib/process"
	"github.com/lion-device/lion/lib/protocol"
	"github.com/lion-device/lion/lib/version"
)

// endpointEnvironment overrides the default --endpoint.
const endpointEnvironment = "LION_ENDPOINT"

const defaultEndpoint = "tcp://127.0.0.1:5555"

func main() {
	stdout := output{writer: os.Stdout, terminal: term.IsTerminal(int(os.Stdout.Fd()))}
	if err := run(os.Args[1:], stdout, os.Stderr); err != nil {
		process.Fatal(err)
	}
}

// output is where results go. terminal selects aligned columns.
type output struct {
	writer   io.Writer
	terminal bool
	json     bool
	cbor     bool
}

type options struct {
	endpoint    string
	timeout     time.Duration
	confirm     bool
	json        bool
	cbor        bool
	showVersion bool
}

func run(args []string, stdout output, stderr io.Writer) error {
	var opts options
	endpoint := os.Getenv(endpointEnvironment)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	flagSet := pflag.NewFlagSet("lionctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.endpoint, "endpoint", "e", endpoint, "daemon frontend (default from $"+endpointEnvironment+")")
	flagSet.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	flagSet.BoolVar(&opts.confirm, "confirm", false, "confirm a power request; without it the daemon ignores set")
	flagSet.BoolVar(&opts.json, "json", false, "print results as JSON")
	flagSet.BoolVar(&opts.cbor, "cbor", false, "print get responses in CBOR diagnostic notation")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.showVersion {
		fmt.Fprintf(stdout.writer, "lionctl %s\n", version.Info())
		return nil
	}
	if opts.json && opts.cbor {
		return errors.New("--json and --cbor are mutually exclusive")
	}
	stdout.json = opts.json
	stdout.cbor = opts.cbor

	positional := flagSet.Args()
	if len(positional) == 0 {
		printUsage(stderr, flagSet)
		return errors.New("missing command")
	}

	switch command, rest := positional[0], positional[1:]; command {
	case "list":
		if len(rest) > 0 {
			return fmt.Errorf("list takes no arguments")
		}
		return list(stdout)
	case "get":
		types, err := parseSysInfoTypes(rest)
		if err != nil {
			return err
		}
		return withClient(opts, func(ctx context.Context, lion *client.Client) error {
			if stdout.cbor {
				return diagnose(ctx, lion, types, stdout)
			}
			return get(ctx, lion, types, stdout)
		})
	case "set":
		if len(rest) != 1 {
			return fmt.Errorf("set takes exactly one power type (%s)", joinNames(protocol.PowerTypes()))
		}
		powerType, err := protocol.ParsePowerType(rest[0])
		if err != nil {
			return err
		}
		return withClient(opts, func(ctx context.Context, lion *client.Client) error {
			return set(ctx, lion, powerType, opts.confirm, stdout)
		})
	default:
		return fmt.Errorf("unknown command %q (want get, set or list)", command)
	}
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `Usage:
  lionctl [flags] get <sysinfo-type>... | all
  lionctl [flags] set shutdown|reboot --confirm
  lionctl [flags] list

Flags:
%s`, flagSet.FlagUsages())
}

func withClient(opts options, body func(context.Context, *client.Client) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	lion, err := client.Dial(ctx, opts.endpoint)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", opts.endpoint, err)
	}
	defer lion.Close()
	return body(ctx, lion)
}

func parseSysInfoTypes(names []string) ([]protocol.SysInfoType, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("get needs a sysinfo type (%s, or all)", joinNames(protocol.SysInfoTypes()))
	}
	if len(names) == 1 && strings.EqualFold(names[0], "all") {
		return protocol.SysInfoTypes(), nil
	}
	types := make([]protocol.SysInfoType, 0, len(names))
	for _, name := range names {
		sysInfoType, err := protocol.ParseSysInfoType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, sysInfoType)
	}
	return types, nil
}

func joinNames[T fmt.Stringer](values []T) string {
	names := make([]string, len(values))
	for i, value := range values {
		names[i] = strings.ToLower(value.String())
	}
	return strings.Join(names, ", ")
}

// result is one row of get output.
type result struct {
	Type    string `json:"type"`
	Variant string `json:"variant,omitempty"`
	Value   any    `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

// get queries every type in order. A daemon-side failure for one type
// is reported in its row; transport errors abort.
func get(ctx context.Context, lion *client.Client, types []protocol.SysInfoType, stdout output) error {
	results := make([]result, 0, len(types))
	failed := 0
	for _, sysInfoType := range types {
		payload, err := lion.Get(ctx, sysInfoType)
		row := result{Type: sysInfoType.String()}
		switch {
		case err == nil:
			row.Variant = payload.Variant()
			row.Value = payload.Value()
		case client.IsFailure(err) && len(types) == 1:
			return err
		case client.IsFailure(err):
			failed++
			row.Error = err.Error()
		default:
			return err
		}
		results = append(results, row)
	}

	if err := printResults(stdout, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d queries failed", failed, len(types))
	}
	return nil
}

func printResults(stdout output, results []result) error {
	if stdout.json {
		return writeJSON(stdout.writer, results)
	}
	if !stdout.terminal {
		for _, row := range results {
			value := row.Error
			if value == "" {
				value = fmt.Sprint(row.Value)
			}
			fmt.Fprintf(stdout.writer, "%s\t%s\n", row.Type, value)
		}
		return nil
	}
	table := tabwriter.NewWriter(stdout.writer, 0, 4, 2, ' ', 0)
	for _, row := range results {
		if row.Error != "" {
			fmt.Fprintf(table, "%s\terror: %s\n", row.Type, row.Error)
			continue
		}
		fmt.Fprintf(table, "%s\t%v\n", row.Type, row.Value)
	}
	return table.Flush()
}

// diagnose prints each response in CBOR diagnostic notation, FAIL
// responses included. The response is decoded and re-encoded first, so
// fields this build does not know are not shown.
func diagnose(ctx context.Context, lion *client.Client, types []protocol.SysInfoType, stdout output) error {
	for _, sysInfoType := range types {
		request := &protocol.Request{Command: protocol.CommandGet, Resource: protocol.SysInfo(sysInfoType)}
		response, err := lion.Do(ctx, request)
		if err != nil {
			return err
		}
		encoded, err := protocol.EncodeResponse(response)
		if err != nil {
			return err
		}
		notation, err := codec.Diagnose(encoded)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout.writer, "%s\t%s\n", sysInfoType, notation)
	}
	return nil
}

func set(ctx context.Context, lion *client.Client, powerType protocol.PowerType, confirm bool, stdout output) error {
	err := lion.Set(ctx, powerType, confirm)
	if err != nil {
		if !confirm && client.IsFailure(err) {
			return fmt.Errorf("%w (pass --confirm to execute)", err)
		}
		return err
	}
	if stdout.json {
		return writeJSON(stdout.writer, map[string]string{"power": powerType.String(), "status": protocol.StatusOK.String()})
	}
	fmt.Fprintf(stdout.writer, "%s requested\n", strings.ToLower(powerType.String()))
	return nil
}

// list prints the supported requests from the dispatch table.
func list(stdout output) error {
	routes := dispatch.Routes()
	if stdout.json {
		type entry struct {
			Command   string `json:"command"`
			Resource  string `json:"resource"`
			Operation string `json:"operation"`
			Confirm   bool   `json:"confirm,omitempty"`
		}
		entries := make([]entry, len(routes))
		for i, route := range routes {
			entries[i] = entry{route.Command.String(), route.Resource.String(), route.Operation, route.Confirm}
		}
		return writeJSON(stdout.writer, entries)
	}

	table := tabwriter.NewWriter(stdout.writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "COMMAND\tRESOURCE\tOPERATION\tNOTE")
	for _, route := range routes {
		note := ""
		if route.Confirm {
			note = "needs --confirm"
		}
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", route.Command, route.Resource, route.Operation, note)
	}
	return table.Flush()
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
