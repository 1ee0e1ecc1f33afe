package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

// run carries the output of one pipeline invocation. Every line, from
// subprocesses and from the pipeline itself, goes through lines; a single
// pump goroutine appends it to the aggregated log and publishes it on the
// stream, so both see the same order.
type run struct {
	f        *Factory
	pipeline string
	streamID string
	logger   zerolog.Logger

	lines chan string
	done  chan struct{}
	log   strings.Builder
}

func (f *Factory) startRun(pipeline, slug, streamID string) *run {
	r := &run{
		f:        f,
		pipeline: pipeline,
		streamID: streamID,
		logger: f.logger.With().
			Str("pipeline", pipeline).
			Str("slug", slug).
			Str("run_id", uuid.NewString()).
			Logger(),
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
	go r.pump()
	r.logger.Info().Str("stream_id", streamID).Msg("pipeline started")
	return r
}

func (r *run) pump() {
	defer close(r.done)
	for line := range r.lines {
		r.log.WriteString(line)
		r.log.WriteByte('\n')
		if r.streamID != "" {
			r.f.hub.Send(r.streamID, line)
		}
	}
}

func (r *run) emit(format string, args ...any) {
	r.lines <- fmt.Sprintf(format, args...)
}

// stage runs one pipeline step. A failure is streamed, logged and returned
// as *domain.StageError.
func (r *run) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.f.metrics.ObserveStage(r.pipeline, name, start, err)
	if err != nil {
		r.emit("error: %s: %s", name, cause(err))
		r.logger.Error().Err(err).Str("stage", name).Dur("duration", time.Since(start)).Msg("stage failed")
		return &domain.StageError{Pipeline: r.pipeline, Stage: name, Err: err}
	}
	r.logger.Debug().Str("stage", name).Dur("duration", time.Since(start)).Msg("stage done")
	return nil
}

// finish drains the pump, terminates the stream and returns the aggregated
// log. It must run exactly once per run.
func (r *run) finish(err error) string {
	close(r.lines)
	<-r.done
	if r.streamID != "" {
		r.f.hub.Send(r.streamID, domain.StreamDone)
		r.f.hub.Close(r.streamID)
	}
	r.f.metrics.CountPipeline(r.pipeline, err)
	if err != nil {
		r.logger.Warn().Err(err).Msg("pipeline failed")
	} else {
		r.logger.Info().Msg("pipeline finished")
	}
	return r.log.String()
}

// cause shortens process errors whose output is already in the log.
func cause(err error) string {
	var exitErr *domain.ProcessExitError
	if errors.As(err, &exitErr) {
		return fmt.Sprintf("command failed(%d): %s", exitErr.Code, strings.Join(exitErr.Argv, " "))
	}
	return err.Error()
}
