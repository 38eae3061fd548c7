package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/0xcro3dile/tableqa-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/tableqa-go/internal/adapters/loader"
	"github.com/0xcro3dile/tableqa-go/internal/domain/entities"
	"github.com/0xcro3dile/tableqa-go/internal/domain/ports"
	"github.com/0xcro3dile/tableqa-go/internal/domain/usecases"
	"github.com/0xcro3dile/tableqa-go/internal/infrastructure/schedule"
)

func runAsk(ctx context.Context, a *app, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	data := fs.String("data", "", "dataset file (.csv, .tsv, .json)")
	query := fs.String("q", "", "question to ask about the dataset")
	label := fs.String("question", "", "label stored with the answer (default: the query)")
	model := fs.String("model", "", "LLM model for this question")
	doExport := fs.Bool("export", false, "export results after answering")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *data == "" || *query == "" {
		fmt.Fprintln(os.Stderr, "ask: -data and -q are required")
		fs.Usage()
		return 2
	}

	table, err := a.loader.Load(ctx, *data)
	if err != nil {
		a.logger.Error().Err(err).Str("path", *data).Msg("loading dataset failed")
		return 1
	}

	question := *label
	if question == "" {
		question = *query
	}

	out := a.session.Submit(ctx, table, *query,
		usecases.WithQuestion(question),
		usecases.WithModel(*model),
	).Outcome()

	switch {
	case out.Err != nil:
		return 1
	case out.Skipped:
		a.logger.Warn().Str("path", *data).Msg("dataset is empty, nothing to ask")
		return 0
	}

	fmt.Fprintln(stdout, out.Record.Answer)

	if *doExport {
		if err := a.session.Export(ctx); err != nil {
			a.logger.Error().Err(err).Msg("export failed")
			return 1
		}
	}
	return 0
}

func runBatch(ctx context.Context, a *app, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	data := fs.String("data", "", "dataset file (.csv, .tsv, .json)")
	questionsPath := fs.String("questions", "", "YAML questions file")
	model := fs.String("model", "", "LLM model for questions that name none")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *data == "" || *questionsPath == "" {
		fmt.Fprintln(os.Stderr, "batch: -data and -questions are required")
		fs.Usage()
		return 2
	}

	table, err := a.loader.Load(ctx, *data)
	if err != nil {
		a.logger.Error().Err(err).Str("path", *data).Msg("loading dataset failed")
		return 1
	}
	questions, err := loader.LoadQuestions(*questionsPath)
	if err != nil {
		a.logger.Error().Err(err).Str("path", *questionsPath).Msg("loading questions failed")
		return 1
	}

	handles := submitAll(ctx, a.session, table, questions, *model, "")
	exportErr := <-a.session.QueueExport(ctx)
	a.session.Wait()

	failed := 0
	for _, h := range handles {
		if h.Outcome().Err != nil {
			failed++
		}
	}
	if failed > 0 {
		a.logger.Warn().Int("failed", failed).Int("total", len(handles)).Msg("some questions were not answered")
	}

	for _, row := range a.session.Results().Rows {
		fmt.Fprintf(stdout, "%s: %s\n", row.Question, row.Answer)
	}

	if exportErr != nil {
		a.logger.Error().Err(exportErr).Msg("export failed")
		return 1
	}
	return 0
}

func runWatch(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	dir := fs.String("dir", ".", "directory to watch for datasets")
	questionsPath := fs.String("questions", "", "YAML questions file")
	model := fs.String("model", "", "LLM model for questions that name none")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *questionsPath == "" {
		fmt.Fprintln(os.Stderr, "watch: -questions is required")
		fs.Usage()
		return 2
	}

	questions, err := loader.LoadQuestions(*questionsPath)
	if err != nil {
		a.logger.Error().Err(err).Str("path", *questionsPath).Msg("loading questions failed")
		return 1
	}

	watcher, err := filewatcher.NewFSNotifyWatcher(a.loader.SupportedExtensions(), a.logger)
	if err != nil {
		a.logger.Error().Err(err).Msg("creating watcher failed")
		return 1
	}
	events, err := watcher.Watch(ctx, *dir)
	if err != nil {
		watcher.Stop()
		a.logger.Error().Err(err).Str("dir", *dir).Msg("watching directory failed")
		return 1
	}

	var scheduler *schedule.ExportScheduler
	if a.cfg.ExportSchedule != "" {
		scheduler = schedule.NewExportScheduler(a.session, a.logger)
		if err := scheduler.Start(a.cfg.ExportSchedule); err != nil {
			watcher.Stop()
			a.logger.Error().Err(err).Str("schedule", a.cfg.ExportSchedule).Msg("invalid export schedule")
			return 1
		}
	}

	a.logger.Info().Str("dir", *dir).Int("questions", len(questions)).Msg("watching for datasets")
	watchLoop(ctx, a, events, questions, *model)

	watcher.Stop()
	if scheduler != nil {
		scheduler.Stop()
	}
	a.session.Wait()

	// ctx is already cancelled here; the final export must still run.
	if err := a.session.Export(context.Background()); err != nil {
		a.logger.Error().Err(err).Msg("export failed")
		return 1
	}
	return 0
}

func watchLoop(ctx context.Context, a *app, events <-chan ports.FileEvent, questions []loader.Question, model string) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Operation == ports.FileDeleted {
				a.logger.Debug().Str("path", event.Path).Msg("dataset removed")
				continue
			}

			table, err := a.loader.Load(ctx, event.Path)
			if err != nil {
				a.logger.Error().Err(err).Str("path", event.Path).Msg("loading dataset failed")
				continue
			}
			a.logger.Info().Str("path", event.Path).Str("event", event.Operation.String()).
				Int("rows", len(table.Rows)).Msg("dataset changed")
			submitAll(ctx, a.session, table, questions, model, filepath.Base(event.Path)+": ")
		}
	}
}

// submitAll queues every question against table, in file order.
func submitAll(ctx context.Context, s *usecases.Session, table entities.Table, questions []loader.Question, model, prefix string) []*usecases.Handle {
	handles := make([]*usecases.Handle, 0, len(questions))
	for _, q := range questions {
		m := q.Model
		if m == "" {
			m = model
		}
		handles = append(handles, s.Submit(ctx, table, q.Query,
			usecases.WithQuestion(prefix+q.Question),
			usecases.WithModel(m),
		))
	}
	return handles
}
