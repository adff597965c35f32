// Command contactctl submits contact forms to a relay and tails its audit
// stream.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-relay/internal/client"
	"contact-relay/internal/config"
	"contact-relay/internal/contactclient"
	"contact-relay/internal/models"
	"contact-relay/internal/util"
)

// Exit codes following sysexits(3)
const (
	exOK          = 0
	exUsage       = 64
	exDataErr     = 65
	exUnavailable = 69
	exTempFail    = 75
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exUsage)
	}

	switch os.Args[1] {
	case "send":
		os.Exit(runSend(os.Args[2:]))
	case "tail":
		os.Exit(runTail(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
		os.Exit(exOK)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(exUsage)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  contactctl send -url URL -name NAME -email EMAIL (-message TEXT | -message-file PATH|-)
  contactctl tail [-topic TOPIC]`)
}

func runSend(args []string) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	var (
		url         = fs.String("url", "http://localhost:8080", "relay base URL or full endpoint URL")
		origin      = fs.String("origin", "", "Origin header to send")
		name        = fs.String("name", "", "your name")
		email       = fs.String("email", "", "your email address")
		message     = fs.String("message", "", "message text")
		messageFile = fs.String("message-file", "", "read the message from a file, or - for stdin")
		timeout     = fs.Duration("timeout", 20*time.Second, "request timeout")
	)
	if err := fs.Parse(args); err != nil {
		return exUsage
	}

	text := *message
	if *messageFile != "" {
		b, err := readMessage(*messageFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading message: %v\n", err)
			return exUsage
		}
		text = string(b)
	}

	req := models.SubmissionRequest{Name: *name, Email: *email, Message: text}
	if err := contactclient.CheckForm(req); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exDataErr
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := contactclient.New(*url, contactclient.WithOrigin(*origin))
	res := c.SendContactEmail(ctx, req)
	if !res.Success {
		fmt.Fprintln(os.Stderr, res.Message)
		return exTempFail
	}
	fmt.Println(res.Message)
	return exOK
}

func readMessage(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(io.LimitReader(os.Stdin, 1<<20))
	}
	return os.ReadFile(path)
}

func runTail(args []string) int {
	fs := flag.NewFlagSet("tail", flag.ContinueOnError)
	topic := fs.String("topic", "", "audit topic (default KAFKA_TOPIC)")
	if err := fs.Parse(args); err != nil {
		return exUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exUnavailable
	}
	logger, err := util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return exUnavailable
	}
	defer util.Sync()

	if *topic == "" {
		*topic = cfg.Kafka.Topic
	}

	consumer, err := client.NewKafkaConsumer(cfg, *topic, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to Kafka: %v\n", err)
		return exUnavailable
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	for {
		msg, err := consumer.ConsumeMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return exOK
			}
			fmt.Fprintf(os.Stderr, "Error reading events: %v\n", err)
			return exTempFail
		}

		var ev models.SubmissionEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			util.Warn("Skipping malformed event", util.ErrorField(err))
			continue
		}
		enc.Encode(ev)
	}
}
