package parser

import (
	"context"
	"sync"

	"github.com/harrison/lorekeeper/internal/models"
)

// ParseAll parses files on at most workers goroutines. Outcomes are returned
// in the same order as files regardless of completion order, and a failure
// on one file never affects another. ParseAll returns early with ctx.Err()
// if the context is cancelled before every file has been started.
func (p *Parser) ParseAll(ctx context.Context, files []models.DiscoveredFile, rootDir string, workers int) ([]ParseOutcome, error) {
	outcomes := make([]ParseOutcome, len(files))
	if len(files) == 0 {
		return outcomes, nil
	}

	if workers <= 0 || workers > len(files) {
		workers = len(files)
	}

	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var launchErr error

	var progressMu sync.Mutex
	done := 0
	report := func() {
		if p.OnProgress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		p.OnProgress(done, len(files))
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			launchErr = err
			break
		}

		// Check context again before acquiring semaphore to avoid blocking on a cancelled context
		select {
		case <-ctx.Done():
			launchErr = ctx.Err()
		case semaphore <- struct{}{}:
		}
		if launchErr != nil {
			break
		}

		wg.Add(1)
		go func(i int, file models.DiscoveredFile) {
			defer wg.Done()
			defer func() { <-semaphore }()

			note, err := p.Parse(file.AbsolutePath, rootDir)
			outcomes[i] = ParseOutcome{File: file, Note: note, Err: err}
			report()
		}(i, file)
	}

	wg.Wait()
	if launchErr != nil {
		return nil, launchErr
	}
	return outcomes, nil
}
