package lowerd

import (
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/seqcsp/internal/engine"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

func TestJobStoreCreateGet(t *testing.T) {
	s := NewJobStore()
	job, err := s.Create(&JobInput{ModelYAML: validModel})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if job.ID == "" || job.Status != JobPending || job.CreatedAtUnixMs == 0 {
		t.Fatalf("unexpected job %+v", job)
	}
	got, ok := s.Get(job.ID)
	if !ok || got.ID != job.ID {
		t.Fatalf("expected to get job %s", job.ID)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("expected missing job")
	}
}

func TestJobStoreCreateRequiresModel(t *testing.T) {
	s := NewJobStore()
	if _, err := s.Create(nil); err == nil {
		t.Fatalf("expected error for nil input")
	}
	if _, err := s.Create(&JobInput{}); err == nil {
		t.Fatalf("expected error for empty model")
	}
}

func TestJobStoreStatusLifecycle(t *testing.T) {
	s := NewJobStore()
	job, _ := s.Create(&JobInput{ModelYAML: validModel})

	running, err := s.SetStatus(job.ID, JobRunning, "")
	if err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if running.StartedAtUnixMs == 0 {
		t.Fatalf("expected start time to be set")
	}
	failed, err := s.SetStatus(job.ID, JobFailed, "boom")
	if err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if failed.Error != "boom" || failed.EndedAtUnixMs == 0 {
		t.Fatalf("unexpected failed job %+v", failed)
	}
	if _, err := s.SetStatus(job.ID, JobRunning, ""); !errors.Is(err, ErrJobTerminal) {
		t.Fatalf("expected ErrJobTerminal, got %v", err)
	}
	if _, err := s.SetStatus("missing", JobRunning, ""); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestJobStoreCompleteAndOutput(t *testing.T) {
	s := NewJobStore()
	job, _ := s.Create(&JobInput{ModelYAML: validModel})

	if _, err := s.Output(job.ID); !errors.Is(err, ErrJobRunning) {
		t.Fatalf("expected ErrJobRunning before completion, got %v", err)
	}

	res := &engine.Result{
		Output: "module G\nendmodule\n",
		Diagnostics: []engine.Diagnostic{
			{Group: "G", Interaction: "I", Err: errors.New("ambiguous"), Recoverable: true},
		},
		Metrics: &models.GenerationMetrics{InteractionsLowered: 1},
	}
	done, err := s.Complete(job.ID, res)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if done.Status != JobCompleted || len(done.Diagnostics) != 1 || done.Metrics.InteractionsLowered != 1 {
		t.Fatalf("unexpected completed job %+v", done)
	}
	if d := done.Diagnostics[0]; d.Interaction != "I" || d.Error != "ambiguous" || !d.Recoverable {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	out, err := s.Output(job.ID)
	if err != nil || out != res.Output {
		t.Fatalf("expected output %q, got %q (%v)", res.Output, out, err)
	}
	if _, err := s.Complete(job.ID, res); !errors.Is(err, ErrJobTerminal) {
		t.Fatalf("expected ErrJobTerminal on second completion, got %v", err)
	}
}

func TestJobStoreList(t *testing.T) {
	s := NewJobStore()
	var ids []string
	for i := 0; i < 5; i++ {
		job, err := s.Create(&JobInput{ModelYAML: validModel})
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
		ids = append(ids, job.ID)
	}
	if _, err := s.SetStatus(ids[1], JobCancelled, ""); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}

	tests := []struct {
		name   string
		limit  int
		offset int
		status JobStatus
		want   int
	}{
		{"all", 0, 0, "", 5},
		{"limited", 2, 0, "", 2},
		{"offset", 10, 3, "", 2},
		{"past end", 10, 9, "", 0},
		{"filtered", 10, 0, JobCancelled, 1},
		{"pending", 10, 0, JobPending, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.List(tt.limit, tt.offset, tt.status)
			if len(got) != tt.want {
				t.Fatalf("expected %d jobs, got %d", tt.want, len(got))
			}
		})
	}

	all := s.List(10, 0, "")
	for k := 1; k < len(all); k++ {
		if all[k-1].ID >= all[k].ID {
			t.Fatalf("expected jobs ordered by ID, got %s before %s", all[k-1].ID, all[k].ID)
		}
	}
}

func TestParseJobStatus(t *testing.T) {
	tests := []struct {
		in   string
		want JobStatus
	}{
		{"completed", JobCompleted},
		{"RUNNING", JobRunning},
		{"Cancelled", JobCancelled},
		{"", ""},
		{"unknown", ""},
	}
	for _, tt := range tests {
		if got := ParseJobStatus(tt.in); got != tt.want {
			t.Fatalf("ParseJobStatus(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
