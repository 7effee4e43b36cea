package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
)

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "game-notes", "Kafka topic")
	dir := flag.String("dir", "notes", "Directory of markdown notes with YAML frontmatter")
	dryRun := flag.Bool("dry-run", false, "Parse notes without publishing")
	flag.Parse()

	files, err := noteFiles(*dir)
	if err != nil {
		log.Fatalf("Failed to list notes: %v", err)
	}

	fmt.Printf("Brokers: %s\nTopic:   %s\nNotes:   %d files in %s\n\n", *brokers, *topic, len(files), *dir)

	var messages []*sarama.ProducerMessage
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		note, err := parseNote(data)
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		value, err := note.Encode()
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		// Keyed by game so updates to one game stay ordered on a partition
		messages = append(messages, &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(strconv.FormatInt(note.GameID, 10)),
			Value: sarama.ByteEncoder(value),
		})
	}

	if *dryRun || len(messages) == 0 {
		fmt.Printf("Parsed %d notes, nothing published\n", len(messages))
		return
	}

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(strings.Split(*brokers, ","), config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

publish:
	for _, msg := range messages {
		select {
		case producer.Input() <- msg:
		case <-sigChan:
			fmt.Println("Interrupted, flushing...")
			break publish
		}
	}

	producer.AsyncClose()
	wg.Wait()
	fmt.Printf("Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
}

// noteFiles returns the markdown files under dir
func noteFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
