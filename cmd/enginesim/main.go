// enginesim is a headless sensor source that publishes simulated engine
// readings to MQTT or Kafka for the live feeds to consume.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/util"
)

func main() {
	sink := flag.String("sink", "mqtt", "Where to publish: mqtt or kafka")
	broker := flag.String("broker", "tcp://127.0.0.1:1883", "MQTT broker URL")
	brokers := flag.String("brokers", "127.0.0.1:9092", "Comma-separated Kafka brokers")
	topic := flag.String("topic", "engine/samples", "Topic to publish to")
	interval := flag.Duration("interval", time.Second, "Publish interval")
	count := flag.Int("count", 0, "Readings to publish (0=forever)")
	seed := flag.Uint64("seed", 0, "Simulator seed (0=time based)")
	aircraft := flag.String("aircraft", "SIM-001", "Aircraft ID stamped on readings")
	flag.Parse()

	if err := run(*sink, *broker, *brokers, *topic, *aircraft, *interval, *count, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(sink, broker, brokers, topic, aircraft string, interval time.Duration, count int, seed uint64) error {
	pub, err := newPublisher(sink, broker, brokers, topic)
	if err != nil {
		return err
	}
	defer pub.Close()

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	sim := collector.NewSimulator(aircraft, seed)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Printf("enginesim -> %s %s every %s\n", sink, topic, util.FormatDuration(interval))
	fmt.Println(strings.Repeat("=", 80))

	sent := 0
	for {
		r := sim.Generate()
		if err := pub.Publish(ctx, r); err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Warn("publish failed", "sink", sink, "error", err)
		} else {
			sent++
			s := r.Sample
			fmt.Printf("[%s] %-8s %-9s rpm=%-7s egt=%-6s oil=%s/%s vib=%s\n",
				s.Timestamp.Format("15:04:05"), s.Phase, r.Prediction.Label,
				util.FormatValue(s.RPM), util.FormatValue(s.EGT),
				util.FormatValue(s.OilTemp), util.FormatValue(s.OilPressure),
				util.FormatValue(s.Vibration))
		}
		if count > 0 && sent >= count {
			fmt.Printf("\nPublished %d readings.\n", sent)
			return nil
		}
		select {
		case <-ctx.Done():
			fmt.Printf("\nStopped after %d readings.\n", sent)
			return nil
		case <-ticker.C:
		}
	}
	fmt.Printf("\nStopped after %d readings.\n", sent)
	return nil
}

func newPublisher(sink, broker, brokers, topic string) (collector.Publisher, error) {
	switch sink {
	case "mqtt":
		clientID := fmt.Sprintf("enginesim-%d", os.Getpid())
		p, err := collector.NewMQTTPublisher(broker, topic, clientID, 10*time.Second)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "kafka":
		var list []string
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				list = append(list, b)
			}
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("kafka sink needs -brokers")
		}
		return collector.NewKafkaPublisher(list, topic), nil
	}
	return nil, fmt.Errorf("unknown sink %q (want mqtt or kafka)", sink)
}
