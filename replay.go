package nimsforestscope

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

type replayConfig struct {
	realtime bool
	speed    float64
	log      logrus.FieldLogger
}

// ReplayOption configures Replay.
type ReplayOption func(*replayConfig)

// WithRealtime paces records by their timestamp deltas, taken as
// milliseconds and divided by speed.
func WithRealtime(speed float64) ReplayOption {
	return func(c *replayConfig) {
		c.realtime = true
		if speed > 0 {
			c.speed = speed
		}
	}
}

// WithReplayLogger sets the logger.
func WithReplayLogger(log logrus.FieldLogger) ReplayOption {
	return func(c *replayConfig) {
		c.log = log
	}
}

// Replay feeds a JSONL recording into a. Each line is a Record. It returns
// the number of records applied. Blank lines are skipped; a malformed line
// stops the replay with an error naming the line.
func Replay(ctx context.Context, r io.Reader, a *Adapter, opts ...ReplayOption) (int, error) {
	cfg := replayConfig{speed: 1, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		applied int
		line    int
		lastTS  float64
		haveTS  bool
	)
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return applied, err
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return applied, fmt.Errorf("line %d: %w", line, err)
		}

		if cfg.realtime && rec.Op != OpReset {
			if haveTS && rec.Timestamp > lastTS {
				wait := msDuration((rec.Timestamp - lastTS) / cfg.speed)
				if err := sleepContext(ctx, wait); err != nil {
					return applied, err
				}
			}
			lastTS, haveTS = rec.Timestamp, true
		}

		if err := applyRecord(a, rec); err != nil {
			return applied, fmt.Errorf("line %d: %w", line, err)
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return applied, fmt.Errorf("read recording: %w", err)
	}
	cfg.log.WithField("records", applied).Debug("replay finished")
	return applied, nil
}

func applyRecord(a *Adapter, rec Record) error {
	switch rec.Op {
	case OpReset:
		a.Reset()
	case OpAttributesReset, OpAttributesUpdated:
		attrs, err := decodeAttributes(rec.Data)
		if err != nil {
			return err
		}
		if rec.Op == OpAttributesReset {
			a.AttributesReset(rec.Stream, attrs)
		} else {
			a.AttributesUpdated(rec.Stream, attrs)
		}
	case OpSample, "":
		a.Process(rec.Stream, rec.Timestamp, rec.Data)
	default:
		return fmt.Errorf("unknown op %q", rec.Op)
	}
	return nil
}

func decodeAttributes(data json.RawMessage) (Attributes, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var attrs Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return attrs, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
