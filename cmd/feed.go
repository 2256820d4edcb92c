package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/config"
)

// sessionCookie is the cookie the backend keeps its login session in.
const sessionCookie = "session"

// feedKinds lists the values accepted by -feed.
var feedKinds = []string{"simulate", "http", "mqtt", "kafka"}

// newFeed builds the sensor feed described by fc.
func newFeed(fc config.FeedConfig, timeout time.Duration) (collector.Feed, error) {
	switch fc.Kind {
	case "", "simulate":
		seed := uint64(fc.Seed)
		if fc.Seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		return collector.NewSimulator(fc.AircraftID, seed), nil
	case "http":
		if fc.URL == "" {
			return nil, fmt.Errorf("http feed: no url configured")
		}
		f := collector.NewHTTPFeed(fc.URL, timeout)
		if fc.Session != "" {
			f.SetCookie(&http.Cookie{Name: sessionCookie, Value: fc.Session})
		}
		return f, nil
	case "mqtt":
		host, _ := os.Hostname()
		f, err := collector.NewMQTTFeed(fc.Broker, fc.Topic, fmt.Sprintf("enginetwin-%s-%d", host, os.Getpid()), timeout)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "kafka":
		if len(fc.Brokers) == 0 {
			return nil, fmt.Errorf("kafka feed: no brokers configured")
		}
		return collector.NewKafkaFeed(fc.Brokers, fc.Topic, fc.Group, timeout), nil
	}
	return nil, fmt.Errorf("unknown feed %q (valid: %v)", fc.Kind, feedKinds)
}
