// Command demo drives pkg/allocator and pkg/queue: one producer, several
// consumers, plain log.Printf status lines tagged by component, and a
// config file overlaying the positional CLI defaults.
//
// Usage:
//
//	demo [-config path] <jobs_per_second> <num_workers> [FIRST_FIT|BEST_FIT]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"blockheap/pkg/allocator"
	"blockheap/pkg/brk"
	"blockheap/pkg/config"
	"blockheap/pkg/queue"
	"blockheap/pkg/stats"
)

type job struct {
	id int64
}

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("[demo] load config: %v", err)
		}
		cfg = loaded
	}

	args := flag.Args()
	if len(args) >= 1 {
		fmt.Sscanf(args[0], "%d", &cfg.Demo.JobsPerSecond)
	}
	if len(args) >= 2 {
		fmt.Sscanf(args[1], "%d", &cfg.Demo.NumWorkers)
	}
	if len(args) >= 3 {
		cfg.Strategy = args[2]
	}

	if cfg.Demo.JobsPerSecond <= 0 || cfg.Demo.NumWorkers <= 0 {
		log.Fatalf("[demo] jobs_per_second and num_workers must both be > 0")
	}

	strategy := allocator.ParseStrategy(cfg.Strategy)
	alc := allocator.New(strategy, brk.NewLinuxSource())
	log.Printf("[demo] strategy=%s jobs_per_second=%d num_workers=%d",
		strategy, cfg.Demo.JobsPerSecond, cfg.Demo.NumWorkers)

	q, err := queue.New[job](alc)
	if err != nil {
		log.Fatalf("[demo] create queue: %v", err)
	}
	defer func() {
		if err := q.Close(); err != nil {
			log.Printf("[demo] close queue: %v", err)
		}
	}()

	var publisher *stats.Publisher
	if cfg.Stats.NATSAddr != "" {
		p, err := stats.Connect(cfg.Stats.NATSAddr, cfg.Stats.Subject)
		if err != nil {
			log.Printf("[demo] stats disabled: %v", err)
		} else {
			publisher = p
			defer publisher.Close()
		}
	}

	var wg sync.WaitGroup
	done := make(chan struct{})
	defer wg.Wait()
	defer close(done)

	run := func(f func()) {
		wg.Add(1)
		go func() { defer wg.Done(); f() }()
	}
	run(func() { produce(q, cfg.Demo.JobsPerSecond, done) })
	for i := 0; i < cfg.Demo.NumWorkers; i++ {
		run(func() { consume(i, q, done) })
	}
	if publisher != nil {
		run(func() { publishLoop(publisher, alc, q, strategy, done) })
	}

	<-trapSignal()
	log.Printf("[demo] shutting down")
}

func produce(q *queue.Queue[job], jobsPerSecond int, done <-chan struct{}) {
	var nextID int64
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			for i := 0; i < jobsPerSecond; i++ {
				id := atomic.AddInt64(&nextID, 1)
				if err := q.Push(job{id: id}); err != nil {
					log.Printf("[demo] push job %d: %v", id, err)
				}
			}
		}
	}
}

func consume(workerID int, q *queue.Queue[job], done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		j, ok := q.Pop()
		if !ok {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		log.Printf("[worker %d] handled job %d (depth now %d)", workerID, j.id, q.Size())
	}
}

func publishLoop(p *stats.Publisher, alc *allocator.Allocator, q *queue.Queue[job], strategy allocator.Strategy, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			peak, err := alc.HeapSize()
			if err != nil {
				log.Printf("[stats] heap size: %v", err)
				continue
			}
			p.Publish(stats.Snapshot{
				QueueDepth:    q.Size(),
				AllocatorPeak: peak,
				Strategy:      strategy.String(),
			})
		}
	}
}

func trapSignal() <-chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	return c
}
