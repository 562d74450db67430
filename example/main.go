package main

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/cactus/go-statsd-client/v5/statsd"
	"github.com/inspector-go/metrics"
	"github.com/inspector-go/metrics/datadog"
	"github.com/inspector-go/metrics/multi"
	"github.com/inspector-go/metrics/prometheus"
	metricsstatsd "github.com/inspector-go/metrics/statsd"
	metricszap "github.com/inspector-go/metrics/zap"
	"go.uber.org/zap"
)

const config = `
interval: 1s
tags:
  application: example
logger:
  outputPaths: [stdout]
`

func main() {
	registry := metrics.NewRegistry(metrics.WithRegistryTags(map[string]string{"mode": "dev"}))

	cfg, err := metricszap.ParseConfiguration([]byte(config))
	if err != nil {
		log.Fatalf("could not parse configuration: %v", err)
	}
	logReporter, err := cfg.NewReporter(metricszap.ConfigurationOptions{})
	if err != nil {
		log.Fatalf("could not create logging reporter: %v", err)
	}
	logReporter.AddRegistry(registry)
	logReporter.Start()
	defer logReporter.Close()

	statter, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
		Address:       "127.0.0.1:8125",
		Prefix:        "example",
		UseBuffered:   true,
		FlushInterval: 100 * time.Millisecond,
		TagFormat:     statsd.SuffixOctothorpe,
	})
	if err != nil {
		log.Fatalf("could not create statsd client: %v", err)
	}
	statsdSink, err := metricsstatsd.NewSink(statter, nil)
	if err != nil {
		log.Fatalf("could not create statsd sink: %v", err)
	}
	sinks := []metrics.Sink{statsdSink}
	if apiKey := os.Getenv("DD_API_KEY"); apiKey != "" {
		ddSink, err := datadog.New(apiKey)
		if err != nil {
			log.Fatalf("could not create datadog sink: %v", err)
		}
		sinks = append(sinks, ddSink)
	}
	statsdReporter, err := metrics.NewReporter(metrics.ReporterOptions{
		Sink:     multi.NewMultiSink(sinks...),
		Interval: 5 * time.Second,
		Logger:   zap.NewExample(),
	})
	if err != nil {
		log.Fatalf("could not create statsd reporter: %v", err)
	}
	statsdReporter.AddRegistry(registry)
	statsdReporter.Start()
	defer statsdReporter.Close()

	server, err := prometheus.Configuration{ListenAddress: "127.0.0.1:9090"}.NewServer(prometheus.ConfigurationOptions{
		OnError: func(err error) { log.Printf("prometheus server: %v", err) },
	})
	if err != nil {
		log.Fatalf("could not start prometheus server: %v", err)
	}
	server.AddRegistry(registry)
	defer server.Close()

	requests, _ := registry.NewMeter("requests")
	inflight, _ := registry.NewCounter("inflight")
	call, err := metrics.NewInstrumentedCall(registry, "work")
	if err != nil {
		log.Fatalf("could not instrument call: %v", err)
	}

	for i := 0; i < 20; i++ {
		inflight.Inc()
		_ = requests.Mark(1)
		err := call.Exec(func() error {
			time.Sleep(time.Duration(rand.Intn(200)) * time.Millisecond)
			if rand.Intn(4) == 0 {
				return errors.New("unlucky")
			}
			return nil
		})
		inflight.Dec()
		if err != nil {
			fmt.Println("call failed:", err)
		}
	}
}
