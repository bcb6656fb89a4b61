package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/docker/docker/api/types/container"
	imagetypes "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	nc "github.com/nats-io/nats.go"

	submissionevents "github.com/girder/covalic/app/modules/submission/domain/events"
	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/config"
)

// Worker consumes dispatch events and runs one scoring container per job.
type Worker struct {
	natsConn *nc.Conn
	docker   *client.Client
	http     *http.Client
	logger   *slog.Logger
}

// NewWorker connects to NATS and the local Docker daemon.
func NewWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Worker, error) {
	natsConn, err := nc.Connect(cfg.NATS.URL, nc.RetryOnFailedConnect(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	return &Worker{
		natsConn: natsConn,
		docker:   dockerClient,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}, nil
}

// Run subscribes to dispatch events and blocks until the context ends.
func (w *Worker) Run(ctx context.Context) error {
	sub, err := w.natsConn.QueueSubscribe(submissionevents.ScoringJobDispatchSubject, "scoreworkers", func(msg *nc.Msg) {
		var event submissionevents.ScoringJobDispatchEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			w.logger.Error("Malformed dispatch event", "error", err)
			return
		}
		w.handleDispatch(ctx, &event)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	w.logger.Info("Listening for scoring jobs", "subject", submissionevents.ScoringJobDispatchSubject)
	<-ctx.Done()
	w.natsConn.Close()
	return nil
}

func (w *Worker) handleDispatch(ctx context.Context, event *submissionevents.ScoringJobDispatchEvent) {
	logger := w.logger.With("job_id", event.JobID, "submission_id", event.SubmissionID)
	logger.Info("Running scoring job", "image", event.Image)

	w.postStatus(event, shared.JobStatusRunning)

	stdout, logLines, err := w.runContainer(ctx, event)
	if len(logLines) > 0 {
		w.postLog(event, logLines)
	}
	if err != nil {
		logger.Error("Scoring container failed", "error", err)
		w.postLog(event, []string{shared.JobLogPrefix + "scoring container failed: " + err.Error()})
		w.postStatus(event, shared.JobStatusError)
		return
	}

	if err := w.postScore(event, stdout); err != nil {
		logger.Error("Score callback failed", "error", err)
		w.postLog(event, []string{shared.JobLogPrefix + "posting the score failed: " + err.Error()})
		w.postStatus(event, shared.JobStatusError)
		return
	}

	w.postStatus(event, shared.JobStatusSuccess)
	logger.Info("Scoring job finished")
}

// runContainer pulls the metrics image, runs it with the job's args and
// returns the container's stdout. Stderr becomes job log lines.
func (w *Worker) runContainer(ctx context.Context, event *submissionevents.ScoringJobDispatchEvent) ([]byte, []string, error) {
	pullCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	rc, err := w.docker.ImagePull(pullCtx, event.Image, imagetypes.PullOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("pull image %q: %w", event.Image, err)
	}
	io.Copy(io.Discard, rc)
	rc.Close()

	args := append([]string{}, event.Args...)
	args = append(args, "--token="+event.Token)

	created, err := w.docker.ContainerCreate(ctx, &container.Config{
		Image: event.Image,
		Cmd:   args,
	}, nil, nil, nil, "")
	if err != nil {
		return nil, nil, fmt.Errorf("create container: %w", err)
	}
	defer w.docker.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true})

	if err := w.docker.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return nil, nil, fmt.Errorf("start container: %w", err)
	}

	statusCh, errCh := w.docker.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		return nil, nil, fmt.Errorf("wait for container: %w", err)
	case status := <-statusCh:
		exitCode = status.StatusCode
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	logs, err := w.docker.ContainerLogs(ctx, created.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read container logs: %w", err)
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return nil, nil, fmt.Errorf("demultiplex container logs: %w", err)
	}

	var logLines []string
	scanner := bufio.NewScanner(&stderr)
	for scanner.Scan() {
		logLines = append(logLines, scanner.Text())
	}

	if exitCode != 0 {
		return nil, logLines, fmt.Errorf("container exited with status %d", exitCode)
	}
	return stdout.Bytes(), logLines, nil
}

// postScore delivers the container's stdout, which must already be the JSON
// score matrix, to the score callback.
func (w *Worker) postScore(event *submissionevents.ScoringJobDispatchEvent, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, event.ScoreURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Girder-Token", event.Token)

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("score callback returned %s", resp.Status)
	}
	return nil
}

func (w *Worker) postStatus(event *submissionevents.ScoringJobDispatchEvent, status shared.JobStatus) {
	payload, _ := json.Marshal(map[string]string{"status": string(status)})
	if err := w.postJSON(event.StatusURL, event.Token, payload); err != nil {
		w.logger.Error("Status callback failed", "job_id", event.JobID, "error", err)
	}
}

func (w *Worker) postLog(event *submissionevents.ScoringJobDispatchEvent, lines []string) {
	payload, _ := json.Marshal(map[string][]string{"log": lines})
	if err := w.postJSON(event.LogURL, event.Token, payload); err != nil {
		w.logger.Error("Log callback failed", "job_id", event.JobID, "error", err)
	}
}

func (w *Worker) postJSON(url, token string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Girder-Token", token)

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned %s", resp.Status)
	}
	return nil
}
