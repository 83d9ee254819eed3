package cli

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

type fakeSpinner struct {
	mu        sync.Mutex
	text      string
	stopped   bool
	successes []string
	failures  []string
}

func (f *fakeSpinner) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeSpinner) Success(message ...any) {
	f.mu.Lock()
	f.successes = append(f.successes, fmt.Sprint(message...))
	f.mu.Unlock()
	_ = f.Stop()
}

func (f *fakeSpinner) Fail(message ...any) {
	f.mu.Lock()
	f.failures = append(f.failures, fmt.Sprint(message...))
	f.mu.Unlock()
	_ = f.Stop()
}

func (f *fakeSpinner) UpdateText(text string) {
	f.mu.Lock()
	f.text = text
	f.mu.Unlock()
}

// spinnerRecorder hands out fake spinners and keeps them for inspection.
type spinnerRecorder struct {
	spinners []*fakeSpinner
}

func (r *spinnerRecorder) factory() progressSpinnerFactory {
	return func(text string) (progressSpinner, error) {
		fs := &fakeSpinner{text: text}
		r.spinners = append(r.spinners, fs)
		return fs, nil
	}
}

func newTestProgressManager(steps []*Step, opts ...ProgressManagerOption) (*ProgressManager, *spinnerRecorder, *bytes.Buffer) {
	var out bytes.Buffer
	rec := &spinnerRecorder{}
	opts = append(opts, withProgressSpinnerFactory(rec.factory()))
	return NewProgressManager(&out, steps, opts...), rec, &out
}

func TestGetPrefix(t *testing.T) {
	test.That(t, getPrefix(&Step{IndentLevel: 0}), test.ShouldEqual, "")
	test.That(t, getPrefix(&Step{IndentLevel: 1}), test.ShouldEqual, "  → ")
	test.That(t, getPrefix(&Step{IndentLevel: 2}), test.ShouldEqual, "    → ")
}

func TestProgressManagerSteps(t *testing.T) {
	steps := []*Step{
		{ID: "parent", Message: "Converting"},
		{ID: "child", Message: "uploading images", IndentLevel: 1},
	}
	pm, rec, out := newTestProgressManager(steps)
	defer pm.Stop()

	test.That(t, pm.Start("parent"), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "Converting")
	test.That(t, rec.spinners, test.ShouldBeEmpty)
	test.That(t, steps[0].Status, test.ShouldEqual, StepRunning)

	test.That(t, pm.Start("child"), test.ShouldBeNil)
	test.That(t, rec.spinners, test.ShouldHaveLength, 1)
	test.That(t, rec.spinners[0].text, test.ShouldEqual, "   → uploading images")

	pm.UpdateText("halfway")
	test.That(t, rec.spinners[0].text, test.ShouldEqual, "halfway")

	test.That(t, pm.Complete("child"), test.ShouldBeNil)
	test.That(t, steps[1].Status, test.ShouldEqual, StepCompleted)
	test.That(t, rec.spinners[0].successes, test.ShouldHaveLength, 1)
	test.That(t, rec.spinners[0].successes[0], test.ShouldContainSubstring, "uploading images (0s)")
	test.That(t, rec.spinners[0].stopped, test.ShouldBeTrue)

	test.That(t, pm.Start("missing"), test.ShouldNotBeNil)
	test.That(t, pm.Complete("missing"), test.ShouldNotBeNil)
	test.That(t, pm.Fail("missing", errors.New("x")), test.ShouldNotBeNil)
}

func TestProgressManagerFail(t *testing.T) {
	steps := []*Step{{ID: "child", Message: "uploading depth", IndentLevel: 1}}
	pm, rec, _ := newTestProgressManager(steps)

	test.That(t, pm.Start("child"), test.ShouldBeNil)
	test.That(t, pm.Fail("child", errors.New("quota exceeded")), test.ShouldBeNil)
	test.That(t, steps[0].Status, test.ShouldEqual, StepFailed)
	test.That(t, rec.spinners[0].failures, test.ShouldResemble, []string{"   → uploading depth: quota exceeded"})
}

func TestProgressManagerDisabled(t *testing.T) {
	steps := []*Step{
		{ID: "parent", Message: "Converting"},
		{ID: "child", Message: "uploading images", IndentLevel: 1},
	}
	pm, rec, out := newTestProgressManager(steps, WithProgressOutput(false))

	test.That(t, pm.Start("parent"), test.ShouldBeNil)
	test.That(t, pm.Start("child"), test.ShouldBeNil)
	pm.UpdateText("ignored")
	test.That(t, pm.Complete("child"), test.ShouldBeNil)
	test.That(t, pm.Complete("parent"), test.ShouldBeNil)

	test.That(t, out.Len(), test.ShouldEqual, 0)
	test.That(t, rec.spinners, test.ShouldBeEmpty)
	test.That(t, steps[0].Status, test.ShouldEqual, StepCompleted)
	test.That(t, steps[1].Status, test.ShouldEqual, StepCompleted)
}

func TestFolderProgress(t *testing.T) {
	folders := []*Step{
		{ID: "images", Message: "uploading images", IndentLevel: 1},
		{ID: "depth", Message: "uploading depth", IndentLevel: 1},
	}
	pm, rec, _ := newTestProgressManager(folders)
	progress := newFolderProgress(pm, folders)

	progress.Start(45, "uploading images")
	test.That(t, rec.spinners[0].text, test.ShouldEqual, "   → uploading images (0/45)")
	progress.Advance(30)
	test.That(t, rec.spinners[0].text, test.ShouldEqual, "   → uploading images (30/45)")
	progress.Advance(15)
	progress.Done()
	test.That(t, folders[0].Status, test.ShouldEqual, StepCompleted)

	progress.Start(10, "uploading depth")
	progress.Advance(5)
	progress.Done()
	// An unfinished folder is left running for fail.
	test.That(t, folders[1].Status, test.ShouldEqual, StepRunning)
	progress.fail(errors.New("boom"))
	test.That(t, folders[1].Status, test.ShouldEqual, StepFailed)
	test.That(t, rec.spinners[1].failures, test.ShouldHaveLength, 1)

	// Extra steps are ignored.
	progress.Start(1, "more")
	test.That(t, rec.spinners, test.ShouldHaveLength, 2)
}
