package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/infrastructure/storage"
	"NewsRelay/pkg/logger"
)

const importWorkers = 5

type sourceEntry struct {
	Name       string            `yaml:"name"`
	URL        string            `yaml:"url"`
	RSSURL     string            `yaml:"rssUrl"`
	ParserType string            `yaml:"parserType"`
	Selectors  map[string]string `yaml:"selectors"`
	Active     *bool             `yaml:"active"`
}

func main() {
	file := flag.String("file", "sources.yaml", "YAML file with sources to import")
	check := flag.Bool("check", true, "verify RSS feeds are reachable before inserting")
	flag.Parse()

	log := logger.New("sourceimport")

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.Database.DSN == "" {
		log.Fatal("database dsn is not configured")
	}

	entries, err := loadEntries(*file)
	if err != nil {
		log.Fatalf("load %s: %v", *file, err)
	}
	if len(entries) == 0 {
		log.Printf("nothing to import from %s", *file)
		return
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("connect storage: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	store := storage.NewSources(db)
	fp := gofeed.NewParser()

	jobs := make(chan sourceEntry)
	var wg sync.WaitGroup
	var imported, failed atomic.Int64

	for w := 0; w < importWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				if err := importSource(ctx, store, fp, entry, *check); err != nil {
					log.Printf("skip %s: %v", entry.Name, err)
					failed.Add(1)
					continue
				}
				log.Printf("imported %s", entry.Name)
				imported.Add(1)
			}
		}()
	}

	for _, entry := range entries {
		jobs <- entry
	}
	close(jobs)
	wg.Wait()

	log.Printf("done: %d imported, %d failed", imported.Load(), failed.Load())
}

func loadEntries(path string) ([]sourceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Sources []sourceEntry `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return doc.Sources, nil
}

func importSource(ctx context.Context, store *storage.Sources, fp *gofeed.Parser, entry sourceEntry, check bool) error {
	if entry.Name == "" || entry.URL == "" {
		return fmt.Errorf("name and url are required")
	}

	parserType := domain.ParserType(entry.ParserType)
	if parserType == "" {
		parserType = domain.ParserRSS
	}

	switch parserType {
	case domain.ParserRSS:
		if entry.RSSURL == "" {
			return fmt.Errorf("rss source needs rssUrl")
		}
		if check {
			checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			_, err := fp.ParseURLWithContext(entry.RSSURL, checkCtx)
			cancel()
			if err != nil {
				return fmt.Errorf("feed unreachable: %w", err)
			}
		}
	case domain.ParserHTML:
		for _, key := range []string{domain.SelectorListItem, domain.SelectorURL, domain.SelectorTitle} {
			if entry.Selectors[key] == "" {
				return fmt.Errorf("html source needs selector %q", key)
			}
		}
	default:
		return fmt.Errorf("unknown parser type %q", entry.ParserType)
	}

	active := true
	if entry.Active != nil {
		active = *entry.Active
	}

	return store.Insert(ctx, domain.Source{
		Name:       entry.Name,
		URL:        entry.URL,
		RSSURL:     entry.RSSURL,
		ParserType: parserType,
		Selectors:  entry.Selectors,
		Active:     active,
	})
}
