package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/radkit/radclient/pkg/client"
	"github.com/radkit/radclient/pkg/packet"
	"github.com/radkit/radclient/pkg/retry"
)

var actionCodes = map[string]packet.Code{
	"access":     packet.CodeAccessRequest,
	"acct":       packet.CodeAccountingRequest,
	"status":     packet.CodeStatusServer,
	"coa":        packet.CodeCoARequest,
	"disconnect": packet.CodeDisconnectRequest,
}

var defaultPorts = map[string]string{
	"access":     "1812",
	"acct":       "1813",
	"status":     "1812",
	"coa":        "3799",
	"disconnect": "3799",
}

func parseAttributes(scanner *bufio.Scanner) ([][2]string, error) {
	var attributes [][2]string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid attribute format: %q (expected 'Name = value')", line)
		}

		attributes = append(attributes, [2]string{
			strings.TrimSpace(parts[0]),
			strings.TrimSpace(parts[1]),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	return attributes, nil
}

func main() {
	server := flag.String("server", "", "RADIUS server address (host[:port])")
	action := flag.String("action", "access", "Action: access, acct, status, coa or disconnect")
	secret := flag.String("secret", "testing123", "Shared secret")
	transportKind := flag.String("transport", "udp", "Transport: udp, tcp or tls")
	configFile := flag.String("config", "", "YAML configuration file (overrides other flags)")
	attempts := flag.Int("attempts", 3, "Transmission attempts")
	timeout := flag.Duration("timeout", 5*time.Second, "Per-attempt response timeout")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -server <host[:port]> [-action <access|acct|status|coa|disconnect>] [-transport <udp|tcp|tls>] [-secret <secret>]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nAttributes are read from stdin, one per line in format:\n")
		fmt.Fprintf(os.Stderr, "  Attribute-Name = value\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  printf 'User-Name = alice\\nUser-Password = secret\\n' | %s -server 127.0.0.1\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  echo 'User-Name = alice' | %s -server 10.0.0.1:2083 -transport tls -action access\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  cat attrs.txt | %s -server 10.0.0.1 -action disconnect -secret secret123\n", os.Args[0])
	}

	flag.Parse()

	code, ok := actionCodes[*action]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: invalid action %q\n\n", *action)
		flag.Usage()
		os.Exit(1)
	}

	var cfg *client.Config
	if *configFile != "" {
		loaded, err := client.LoadConfigFile(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		if *server == "" {
			fmt.Fprintf(os.Stderr, "Error: -server is required\n\n")
			flag.Usage()
			os.Exit(1)
		}
		if !strings.Contains(*server, ":") {
			*server += ":" + defaultPorts[*action]
		}
		cfg = &client.Config{
			Address:        *server,
			Secret:         []byte(*secret),
			Transport:      client.TransportKind(*transportKind),
			Retransmission: retry.IntervalStrategy{Attempts: *attempts, Timeout: *timeout},
		}
	}

	cl, err := client.New(*cfg)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer cl.Close()

	builder := cl.NewRequest(code)
	attributes, err := parseAttributes(bufio.NewScanner(os.Stdin))
	if err != nil {
		log.Fatalf("Failed to parse attributes: %v", err)
	}
	for _, pair := range attributes {
		name, valueStr := pair[0], pair[1]
		if num, err := strconv.ParseUint(valueStr, 10, 32); err == nil {
			builder.Add(name, uint32(num))
		} else {
			builder.Add(name, valueStr)
		}
	}

	req, err := builder.Packet()
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}

	ctx := context.Background()
	if err := cl.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	resp, err := cl.Send(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}

	fmt.Printf("Received %s\n", resp.Code)
	for _, attr := range resp.Attributes {
		fmt.Printf("\t%s\n", attr)
	}

	switch resp.Code {
	case packet.CodeAccessAccept, packet.CodeAccountingResponse,
		packet.CodeCoAAck, packet.CodeDisconnectACK:
		os.Exit(0)
	}
	os.Exit(1)
}
