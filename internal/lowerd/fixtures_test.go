package lowerd

import (
	"context"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/seqcsp/pkg/config"
)

const validModel = `format_version: "1.0.0"
name: minimal
components:
  - name: C
    kind: controller
    events: [{name: go}]
groups:
  - name: G
    target: C
    actors:
      - {name: T, kind: target}
      - {name: W, kind: world}
    interactions:
      - name: I
        lifelines: [T, W]
        fragments:
          - {kind: message, from: W, to: T, event: go}
          - {kind: deadlock}
    properties:
      - {name: p, kind: holds, interaction: I}
`

func newTestExecutor() *Executor {
	cfg := config.DefaultConfig()
	cfg.Workers = 2
	return NewExecutor(NewJobStore(), cfg)
}

func waitJob(t *testing.T, e *Executor, id string) Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := e.Wait(ctx, id)
	if err != nil {
		t.Fatalf("wait for job %s: %v", id, err)
	}
	return job
}
