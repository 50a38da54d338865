// Package preflight verifies bucket connectivity and permissions before a
// larger job runs, so that credential or policy problems surface as one
// clear report instead of mid-job failures.
package preflight

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lakemoor/gostratus/pkg/bucket"
	"github.com/lakemoor/gostratus/pkg/match"
)

// Mode defines how aggressive preflight checks are.
type Mode string

const (
	// ModePlanOnly validates configuration without any network calls.
	ModePlanOnly Mode = "plan-only"

	// ModeReadSafe issues a one-entry listing per derived prefix. No
	// writes, no side effects.
	ModeReadSafe Mode = "read-safe"

	// ModeWriteProbe additionally puts and deletes a zero-byte probe
	// object under a random key to confirm write and delete permission.
	ModeWriteProbe Mode = "write-probe"
)

// DefaultProbePrefix is where write probes are placed unless overridden.
const DefaultProbePrefix = "_gostratus/probe/"

// Capability names reported in check results.
const (
	CapList   = "bucket.list"
	CapWrite  = "bucket.write"
	CapDelete = "bucket.delete"
)

// Options control a preflight run.
type Options struct {
	// Mode selects the check depth. Default: ModeReadSafe.
	Mode Mode

	// Patterns, when set, derive the listing prefixes to verify (see
	// package match). Empty means one unprefixed listing check.
	Patterns []string

	// ProbePrefix is the key prefix for write probes.
	// Default: DefaultProbePrefix.
	ProbePrefix string

	// Logger receives per-check logs. Default: zap.NewNop().
	Logger *zap.Logger
}

// Check is the outcome of one capability verification.
type Check struct {
	// Capability is the stable capability name.
	Capability string

	// Allowed reports whether the capability check passed.
	Allowed bool

	// Method describes the operation performed.
	Method string

	// Detail carries the error text when the check failed.
	Detail string
}

// Report collects the outcomes of a preflight run.
type Report struct {
	// Mode is the mode the run executed in.
	Mode Mode

	// Checks are the per-capability outcomes in execution order.
	Checks []Check
}

// Run executes preflight checks against a bucket. It fails fast: the first
// denied capability stops the run, and the returned Report carries every
// check performed up to and including the failure.
func Run(ctx context.Context, b *bucket.Bucket, opts Options) (*Report, error) {
	if opts.Mode == "" {
		opts.Mode = ModeReadSafe
	}
	if opts.ProbePrefix == "" {
		opts.ProbePrefix = DefaultProbePrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	report := &Report{Mode: opts.Mode}
	if opts.Mode == ModePlanOnly {
		return report, nil
	}

	prefixes := []string{""}
	if len(opts.Patterns) > 0 {
		m, err := match.New(match.Config{Includes: opts.Patterns})
		if err != nil {
			return report, err
		}
		prefixes = m.Prefixes()
	}

	for _, prefix := range prefixes {
		if err := checkList(ctx, b, prefix, report, logger); err != nil {
			return report, err
		}
	}

	if opts.Mode == ModeWriteProbe {
		if err := checkWrite(ctx, b, opts.ProbePrefix, report, logger); err != nil {
			return report, err
		}
	}

	return report, nil
}

func checkList(ctx context.Context, b *bucket.Bucket, prefix string, report *Report, logger *zap.Logger) error {
	method := fmt.Sprintf("List(prefix=%q,max-keys=1)", prefix)

	listing, err := b.List(ctx, bucket.ListOptions{Prefix: prefix, MaxKeys: 1})
	if err != nil {
		report.Checks = append(report.Checks, Check{
			Capability: CapList, Method: method, Detail: err.Error(),
		})
		logger.Warn("preflight list check failed",
			zap.String("bucket", b.Name()),
			zap.String("prefix", prefix),
			zap.Error(err))
		return err
	}
	// Drain at most one entry to confirm the stream decodes, then release
	// the connection.
	listing.Next()
	streamErr := listing.Err()
	_ = listing.Close()
	if streamErr != nil {
		report.Checks = append(report.Checks, Check{
			Capability: CapList, Method: method, Detail: streamErr.Error(),
		})
		return streamErr
	}

	report.Checks = append(report.Checks, Check{Capability: CapList, Allowed: true, Method: method})
	logger.Debug("preflight list check passed",
		zap.String("bucket", b.Name()),
		zap.String("prefix", prefix))
	return nil
}

func checkWrite(ctx context.Context, b *bucket.Bucket, probePrefix string, report *Report, logger *zap.Logger) error {
	key := probePrefix + "write-" + uuid.NewString()

	if err := b.Put(ctx, key, bucket.Object{Data: []byte{}}); err != nil {
		report.Checks = append(report.Checks, Check{
			Capability: CapWrite, Method: "Put(probe)", Detail: err.Error(),
		})
		logger.Warn("preflight write probe failed",
			zap.String("bucket", b.Name()),
			zap.String("key", key),
			zap.Error(err))
		return err
	}
	report.Checks = append(report.Checks, Check{Capability: CapWrite, Allowed: true, Method: "Put(probe)"})

	if err := b.Delete(ctx, key); err != nil {
		report.Checks = append(report.Checks, Check{
			Capability: CapDelete, Method: "Delete(probe)", Detail: err.Error(),
		})
		logger.Warn("preflight probe cleanup failed, object may remain",
			zap.String("bucket", b.Name()),
			zap.String("key", key),
			zap.Error(err))
		return err
	}
	report.Checks = append(report.Checks, Check{Capability: CapDelete, Allowed: true, Method: "Delete(probe)"})

	logger.Debug("preflight write probe passed",
		zap.String("bucket", b.Name()),
		zap.String("key", key))
	return nil
}

// Allowed reports whether every performed check passed.
func (r *Report) Allowed() bool {
	for _, c := range r.Checks {
		if !c.Allowed {
			return false
		}
	}
	return true
}
