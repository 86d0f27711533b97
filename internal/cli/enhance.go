package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackhunterking/beautycanvas/pkg/credits"
	"github.com/jackhunterking/beautycanvas/pkg/enhance"
	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

// enhanceOpts holds the command-line flags for the enhance command.
type enhanceOpts struct {
	baseURL  string        // remote queue base URL
	apiKey   string        // remote queue API key
	feature  string        // enhancement feature key
	slotID   string        // slot the result is attributed to
	user     string        // user id charged for the job
	interval time.Duration // poll interval
	timeout  time.Duration // overall wait before giving up
}

// enhanceCommand creates the enhance command that submits one image to the
// remote queue and polls until the job finishes.
func (c *CLI) enhanceCommand() *cobra.Command {
	var opts enhanceOpts

	cmd := &cobra.Command{
		Use:   "enhance [image-url]",
		Short: "Run one enhancement job against the remote queue",
		Long: `Submit an image URL to the remote enhancement queue and poll the job
until it completes or fails. The image must be reachable by the queue,
so local paths will not work here.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.baseURL == "" {
				return errors.New(errors.ErrCodeValidation, "--base-url is required")
			}
			return c.runEnhance(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "remote queue base URL")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "remote queue API key")
	cmd.Flags().StringVarP(&opts.feature, "feature", "f", enhance.FeatureBackgroundRemove, "enhancement feature key")
	cmd.Flags().StringVar(&opts.slotID, "slot", "after", "slot id the job is attributed to")
	cmd.Flags().StringVar(&opts.user, "user", "cli", "user id charged for the job")
	cmd.Flags().DurationVar(&opts.interval, "interval", 2*time.Second, "poll interval")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", enhance.DefaultJobTimeout, "overall wait before giving up")

	return cmd
}

// runEnhance submits the job and drives the polling loop with a spinner.
func (c *CLI) runEnhance(ctx context.Context, imageURL string, opts *enhanceOpts) error {
	logger := loggerFromContext(ctx)

	svc, err := enhance.NewService(enhance.ServiceOptions{
		Queue:   enhance.NewHTTPQueueClient(opts.baseURL, opts.apiKey),
		Jobs:    enhance.NewMemoryJobStore(),
		Ledger:  credits.NewLedger(credits.NewMemoryStore(), 100),
		Timeout: opts.timeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	job, err := svc.Submit(ctx, enhance.SubmitRequest{
		UserID:     opts.user,
		SlotID:     opts.slotID,
		FeatureKey: opts.feature,
		ImageURL:   imageURL,
	})
	if err != nil {
		return err
	}
	logger.Debugf("Submitted job %s (remote request %s)", job.ID, job.RemoteRequestID)
	printInfo("Submitted %s job %s", opts.feature, job.ID)

	res, err := c.pollUntilTerminal(ctx, svc, job.ID, opts.interval)
	if err != nil {
		return err
	}

	switch res.Status {
	case enhance.StatusCompleted:
		printSuccess("Completed in %s", (time.Duration(res.ProcessingTimeMs) * time.Millisecond).Round(time.Millisecond))
		printFile(res.OutputURL)
		return nil
	default:
		printError("Job failed: %s", res.Error)
		code := errors.Code(res.ErrorCode)
		if code == "" {
			code = errors.ErrCodePermanentRemote
		}
		return errors.New(code, "job %s failed: %s", job.ID, res.Error)
	}
}

// pollUntilTerminal polls the job on a ticker until it reaches a terminal
// status, updating the spinner with each observation.
func (c *CLI) pollUntilTerminal(ctx context.Context, svc *enhance.Service, jobID string, interval time.Duration) (*enhance.PollResult, error) {
	sp := newSpinnerWithContext(ctx, "Waiting for job")
	sp.Start()
	defer sp.Stop()

	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := svc.Poll(ctx, jobID)
		if err != nil {
			sp.StopWithError("Poll failed")
			return nil, err
		}
		if res.Status.Terminal() {
			if res.Status == enhance.StatusCompleted {
				sp.StopWithSuccess("Job finished")
			} else {
				sp.StopWithError("Job failed")
			}
			return res, nil
		}
		sp.SetMessage(fmt.Sprintf("Status: %s (%s)", res.Status, time.Since(start).Round(time.Second)))

		select {
		case <-ctx.Done():
			sp.Stop()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
