// Command runjob runs maintenance jobs once, for platform cron triggers.
//
//	runjob cleanup_expired_sessions        run one job against DATABASE_URL
//	runjob all                             run every job
//	runjob -remote http://svc:8080 all     trigger a running service instead
//
// The result is printed as JSON. The exit code is 1 when any job failed and
// 2 on usage or connection errors.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/app"
	"github.com/aussiebroadwan/traceline/internal/maintenance/service"
	"github.com/aussiebroadwan/traceline/pkg/jobsdk"
)

const allJobs = "all"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("runjob", flag.ContinueOnError)
	fs.SetOutput(stderr)
	remote := fs.String("remote", "", "base URL of a running maintenance service")
	token := fs.String("token", os.Getenv("TRACELINE_TOKEN"), "admin bearer token for -remote")
	timeout := fs.Duration("timeout", 30*time.Minute, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: runjob [-remote URL] [-token T] <job|all>")
		return 2
	}
	name := fs.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var (
		out any
		ok  bool
		err error
	)
	if *remote != "" {
		out, ok, err = runRemote(ctx, jobsdk.NewSDKClient(*remote, jobsdk.WithToken(*token)), name)
	} else {
		out, ok, err = runLocal(ctx, name, stderr)
	}
	if err != nil {
		fmt.Fprintf(stderr, "runjob: %v\n", err)
		return 2
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)

	if !ok {
		return 1
	}
	return 0
}

func runLocal(ctx context.Context, name string, logs io.Writer) (any, bool, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, false, err
	}
	cfg.SchedulerEnabled = false

	application, err := app.New(cfg, app.WithLogOutput(logs))
	if err != nil {
		return nil, false, err
	}
	defer application.Close()

	runner := application.Runner()

	if name == allJobs {
		results := runner.RunAll(ctx)
		resp := jobsdk.RunAllResponse{Success: service.AllSucceeded(results)}
		for _, res := range results {
			resp.Results = append(resp.Results, toResponse(res))
		}
		return resp, resp.Success, nil
	}

	res, err := runner.Run(ctx, name)
	switch {
	case errors.Is(err, service.ErrJobLocked):
		// Another runner has it; not a failure of this trigger.
		return toResponse(res), true, nil
	case err != nil:
		return nil, false, err
	}
	return toResponse(res), res.Success, nil
}

func runRemote(ctx context.Context, client *jobsdk.SDKClient, name string) (any, bool, error) {
	if name == allJobs {
		resp, err := client.RunAll(ctx)
		if err != nil {
			return nil, false, err
		}
		return resp, resp.Success, nil
	}

	res, err := client.RunJob(ctx, name)
	switch {
	case errors.Is(err, jobsdk.ErrConflict):
		return jobsdk.JobResultResponse{Job: name, Skipped: true, Error: err.Error()}, true, nil
	case err != nil:
		return nil, false, err
	}
	return res, res.Success, nil
}

func toResponse(res service.Result) jobsdk.JobResultResponse {
	return jobsdk.JobResultResponse{
		Job:        res.Job,
		Success:    res.Success,
		Skipped:    res.Skipped,
		Error:      res.Error(),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		DurationMS: res.Duration().Milliseconds(),
		Stats:      res.Stats,
	}
}
