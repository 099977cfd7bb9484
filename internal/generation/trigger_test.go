package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/spigell/job-tailor/internal/jobs"
)

type memSink struct {
	docs map[string]string
	err  error
}

func (m *memSink) PutDocument(jobID, name string, content []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.docs == nil {
		m.docs = map[string]string{}
	}
	m.docs[jobID+"/"+name] = string(content)
	return jobID + "/" + name, nil
}

func TestTriggerGeneratesConfiguredKinds(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{response: "tailored"}
	g, _ := newTestGenerator(t, ai, nil)
	sink := &memSink{}

	trigger := NewTrigger(g, map[Kind]string{KindResume: "resume.md"}, sink, nil)
	if err := trigger.Trigger(context.Background(), testJob(), &jobs.Score{OverallScore: 91}); err != nil {
		t.Fatalf("trigger: %v", err)
	}

	if ai.callCount() != 1 {
		t.Fatalf("expected only the resume to be generated, got %d calls", ai.callCount())
	}
	if sink.docs["job-42/resume.md"] != "tailored\n" {
		t.Fatalf("unexpected documents %#v", sink.docs)
	}
}

func TestTriggerJoinsErrors(t *testing.T) {
	t.Parallel()

	g, _ := newTestGenerator(t, &fakeAI{err: errors.New("boom")}, nil)
	trigger := NewTrigger(g, map[Kind]string{
		KindResume:      "resume.md",
		KindCoverLetter: "resume.md",
	}, nil, nil)

	err := trigger.Trigger(context.Background(), testJob(), nil)
	if err == nil {
		t.Fatalf("expected error")
	}

	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) || len(joined.Unwrap()) != 2 {
		t.Fatalf("expected one error per kind, got %v", err)
	}
}

func TestTriggerSinkFailure(t *testing.T) {
	t.Parallel()

	g, _ := newTestGenerator(t, &fakeAI{response: "ok"}, nil)
	trigger := NewTrigger(g, map[Kind]string{KindResume: "resume.md"}, &memSink{err: errors.New("disk full")}, nil)

	if err := trigger.Trigger(context.Background(), testJob(), nil); err == nil {
		t.Fatalf("expected sink error")
	}
}
