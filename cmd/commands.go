package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/logx"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
	"github.com/Abraxas-365/hireflow/recruitment/matching/matchinginfra"
	"github.com/Abraxas-365/hireflow/recruitment/matching/worker"
)

var (
	extractType string

	profilesPath string
	jobID        string
	candidateID  string
	rankLimit    int
	useAI        bool
	fromIndex    bool
	asyncSync    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract a structured profile from a PDF, DOCX or text resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *Container) error {
			data, err := c.FileSystem.ReadFile(ctx, args[0])
			if err != nil {
				return fmt.Errorf("read resume %s: %w", args[0], err)
			}

			fileType := extractType
			if fileType == "" {
				fileType = args[0]
			}
			profile, err := c.Service.ExtractResumeDocument(ctx, data, fileType)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), profile)
		})
	},
}

var rankCandidatesCmd = &cobra.Command{
	Use:   "rank-candidates",
	Short: "Rank the candidates of a profile catalog against one job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd, func(ctx context.Context, c *Container) error {
			catalog, err := c.LoadProfiles(ctx, profilesPath)
			if err != nil {
				return err
			}
			job, err := findJob(catalog, jobID)
			if err != nil {
				return err
			}

			ai := c.Config.Ranking.AIEnabled
			if cmd.Flags().Changed("ai") {
				ai = useAI
			}

			var ranking matching.Ranking
			if fromIndex {
				warmIndex(ctx, c, catalog)
				ranking, err = c.Service.RankCandidatesFromIndex(ctx, job, rankLimit, ai)
			} else {
				ranking, err = c.Service.RankCandidatesForJob(ctx, job, catalog.Candidates, rankLimit, ai)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ranking)
		})
	},
}

var rankJobsCmd = &cobra.Command{
	Use:   "rank-jobs",
	Short: "Rank the jobs of a profile catalog for one candidate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd, func(ctx context.Context, c *Container) error {
			catalog, err := c.LoadProfiles(ctx, profilesPath)
			if err != nil {
				return err
			}
			candidate, err := findCandidate(catalog, candidateID)
			if err != nil {
				return err
			}

			var ranking matching.Ranking
			if fromIndex {
				warmIndex(ctx, c, catalog)
				ranking, err = c.Service.RankJobsFromIndex(ctx, candidate, rankLimit)
			} else {
				ranking, err = c.Service.RankJobsForCandidate(ctx, candidate, catalog.Jobs, rankLimit)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ranking)
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Embed the profiles of a catalog into the similarity index",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd, func(ctx context.Context, c *Container) error {
			catalog, err := c.LoadProfiles(ctx, profilesPath)
			if err != nil {
				return err
			}

			if asyncSync {
				job, err := c.Service.EnqueueSync(ctx, catalog.Jobs, catalog.Candidates)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), job)
			}

			report := c.Service.SyncProfiles(ctx, catalog.Jobs, catalog.Candidates)
			logx.Infof("Sync finished: Embedded=%d, Unchanged=%d, Failed=%d", report.Embedded, report.Unchanged, report.Failed)
			return writeJSON(cmd.OutOrStdout(), report)
		})
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process queued embedding sync jobs until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c, err := NewContainer(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		if c.Queue == nil {
			return errors.New("worker requires redis.addr to be configured")
		}

		srv := startMetricsServer(c.Config.App.MetricsAddr)

		w := worker.NewSyncWorker(c.Service, c.Queue, worker.Config{
			Workers:       c.Config.Worker.Count,
			PollTimeout:   c.Config.Worker.PollTimeout,
			DelayedTicker: c.Config.Worker.DelayedTicker,
		})
		w.Start(ctx)

		<-ctx.Done()
		logx.Info("Shutdown signal received, stopping workers...")
		w.Wait()

		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logx.Errorf("Metrics server forced to shutdown: %v", err)
			}
		}
		logx.Info("Worker stopped gracefully")
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractType, "type", "", "file type (pdf, docx, txt or a MIME type); defaults to the file extension")

	for _, cmd := range []*cobra.Command{rankCandidatesCmd, rankJobsCmd, syncCmd} {
		cmd.Flags().StringVarP(&profilesPath, "profiles", "p", "", "JSON catalog with jobs and candidates")
		_ = cmd.MarkFlagRequired("profiles")
	}
	for _, cmd := range []*cobra.Command{rankCandidatesCmd, rankJobsCmd} {
		cmd.Flags().IntVarP(&rankLimit, "limit", "n", 0, "number of results (default ranking.default_limit)")
		cmd.Flags().BoolVar(&fromIndex, "from-index", false, "collect the pool from the similarity index instead of the whole catalog")
	}

	rankCandidatesCmd.Flags().StringVar(&jobID, "job", "", "id of the job to rank candidates for")
	rankCandidatesCmd.Flags().BoolVar(&useAI, "ai", false, "re-rank with the LLM (default ranking.ai_enabled)")
	_ = rankCandidatesCmd.MarkFlagRequired("job")

	rankJobsCmd.Flags().StringVar(&candidateID, "candidate", "", "id of the candidate to rank jobs for")
	_ = rankJobsCmd.MarkFlagRequired("candidate")

	syncCmd.Flags().BoolVar(&asyncSync, "async", false, "queue the sync for the worker instead of running it inline")
}

func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *Container) error) error {
	ctx := cmd.Context()
	c, err := NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

// warmIndex fills an in-memory index from the catalog; it starts empty on
// every run. Persistent backends are kept current by the sync command.
func warmIndex(ctx context.Context, c *Container, catalog *matchinginfra.Catalog) {
	if _, ok := c.Index.(*matchinginfra.MemoryIndex); !ok {
		return
	}
	report := c.Service.SyncProfiles(ctx, catalog.Jobs, catalog.Candidates)
	if report.Failed > 0 {
		logx.Warnf("Index warm-up left %d profiles unembedded", report.Failed)
	}
}

func findJob(catalog *matchinginfra.Catalog, id string) (matching.JobProfile, error) {
	for _, j := range catalog.Jobs {
		if j.ID == kernel.NewJobID(id) {
			return j, nil
		}
	}
	return matching.JobProfile{}, matching.ErrProfileNotFound().
		WithDetail("owner_type", matching.OwnerJob).
		WithDetail("owner_id", id)
}

func findCandidate(catalog *matchinginfra.Catalog, id string) (matching.CandidateProfile, error) {
	for _, cand := range catalog.Candidates {
		if cand.ID == kernel.NewCandidateID(id) {
			return cand, nil
		}
	}
	return matching.CandidateProfile{}, matching.ErrProfileNotFound().
		WithDetail("owner_type", matching.OwnerCandidate).
		WithDetail("owner_id", id)
}

func startMetricsServer(addr string) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = writeJSON(w, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logx.Infof("Metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Errorf("Metrics server failed: %v", err)
		}
	}()
	return srv
}
