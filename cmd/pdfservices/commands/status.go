package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
	"github.com/Lllllllleong/pdfservicesflow/internal/services"
)

// pollLoop polls h until it finishes, logging each state change. A failed
// job is returned as a *services.JobFailedError.
func (a *app) pollLoop(ctx context.Context, op pdfservices.Operation, h pdfservices.JobHandle) (*pdfservices.JobStatus, error) {
	var last pdfservices.JobState
	for {
		st, err := a.client.Poll(ctx, h)
		if err != nil {
			return nil, err
		}
		if st.State != last {
			a.logger.Info("Job status.", "jobLocation", string(h), "state", string(st.State))
			last = st.State
		}
		switch st.State {
		case pdfservices.JobDone:
			return st, nil
		case pdfservices.JobFailed:
			return nil, &services.JobFailedError{Operation: op, Handle: h, Detail: st.Error}
		}

		t := time.NewTimer(st.RetryAfter)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, &pdfservices.Error{Kind: pdfservices.KindTransport, Op: "poll", Message: "interrupted while waiting", Err: ctx.Err()}
		case <-t.C:
		}
	}
}

// save writes a finished job's downloadable results under label.
func (a *app) save(ctx context.Context, label string, h pdfservices.JobHandle, st *pdfservices.JobStatus) error {
	res := &services.RunResult{Handle: h, Status: st}
	if st.Result != nil {
		saved, err := a.runner().Save(ctx, label, st.Result)
		if err != nil {
			return err
		}
		res.Saved = saved
	}
	return a.report(res)
}

func newStatusCommand(a *app) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "status <job-location>",
		Short: "Wait for a submitted job and save its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := pdfservices.JobHandle(args[0])
			st, err := a.pollLoop(cmd.Context(), pdfservices.Operation(label), h)
			if err != nil {
				return err
			}
			return a.save(cmd.Context(), label, h, st)
		},
	}
	cmd.Flags().StringVar(&label, "label", "job", "name prefix for saved results")
	return cmd
}
