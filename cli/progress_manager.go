package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
)

type progressSpinner interface {
	Stop() error
	Success(...any)
	Fail(...any)
	UpdateText(string)
}

type progressSpinnerFactory func(string) (progressSpinner, error)

var defaultSpinnerFactory progressSpinnerFactory = func(text string) (progressSpinner, error) {
	spinner, err := pterm.DefaultSpinner.
		WithRemoveWhenDone(false).
		WithText(text).
		Start()
	if err != nil {
		return nil, err
	}
	return spinner, nil
}

// StepStatus represents the state of a progress step.
type StepStatus int

const (
	// StepPending indicates a step has not yet started.
	StepPending StepStatus = iota
	// StepRunning indicates a step is currently in progress.
	StepRunning
	// StepCompleted indicates a step finished successfully.
	StepCompleted
	// StepFailed indicates a step encountered an error.
	StepFailed
)

// Step is one line of the progress display.
type Step struct {
	ID          string
	Message     string
	Status      StepStatus
	IndentLevel int // 0 = root, 1 = child (→)
	startTime   time.Time
}

// ProgressManager draws a sequence of steps, one spinner at a time.
type ProgressManager struct {
	steps          []*Step
	stepMap        map[string]*Step
	currentSpinner progressSpinner
	spinnerFactory progressSpinnerFactory
	out            io.Writer
	mu             sync.Mutex
	disabled       bool
}

// ProgressManagerOption allows customizing ProgressManager behavior at creation time.
type ProgressManagerOption func(*ProgressManager)

// WithProgressOutput enables or disables terminal output for a ProgressManager.
func WithProgressOutput(enabled bool) ProgressManagerOption {
	return func(pm *ProgressManager) {
		pm.disabled = !enabled
	}
}

func withProgressSpinnerFactory(factory progressSpinnerFactory) ProgressManagerOption {
	return func(pm *ProgressManager) {
		pm.spinnerFactory = factory
	}
}

// NewProgressManager creates a ProgressManager writing parent steps to out.
func NewProgressManager(out io.Writer, steps []*Step, opts ...ProgressManagerOption) *ProgressManager {
	pterm.Success.Prefix = pterm.Prefix{
		Text:  "✓",
		Style: pterm.NewStyle(pterm.FgGreen),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "✗",
		Style: pterm.NewStyle(pterm.FgRed),
	}
	pterm.DefaultSpinner.Style = pterm.NewStyle(pterm.FgCyan)

	pm := &ProgressManager{
		steps:          steps,
		stepMap:        make(map[string]*Step, len(steps)),
		spinnerFactory: defaultSpinnerFactory,
		out:            out,
	}
	for _, step := range steps {
		pm.stepMap[step.ID] = step
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

func getPrefix(step *Step) string {
	if step.IndentLevel == 0 {
		return ""
	}
	return strings.Repeat("  ", step.IndentLevel) + "→ "
}

func (pm *ProgressManager) step(stepID string) (*Step, error) {
	step, ok := pm.stepMap[stepID]
	if !ok {
		return nil, errors.Errorf("step %q not found", stepID)
	}
	return step, nil
}

// Start marks a step as running. Child steps get a spinner, parent steps a plain line.
func (pm *ProgressManager) Start(stepID string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, err := pm.step(stepID)
	if err != nil {
		return err
	}
	step.Status = StepRunning
	step.startTime = time.Now()
	if pm.disabled {
		return nil
	}

	if step.IndentLevel == 0 {
		printf(pm.out, " …  %s", step.Message)
		return nil
	}
	if pm.currentSpinner != nil {
		_ = pm.currentSpinner.Stop() //nolint:errcheck
	}
	// pterm puts a space after the spinner character.
	spinner, err := pm.spinnerFactory(" " + getPrefix(step) + step.Message)
	if err != nil {
		return errors.Wrap(err, "failed to start spinner")
	}
	pm.currentSpinner = spinner
	return nil
}

// Complete marks a step as completed, with the elapsed time when it was started.
func (pm *ProgressManager) Complete(stepID string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, err := pm.step(stepID)
	if err != nil {
		return err
	}
	step.Status = StepCompleted
	if pm.disabled {
		return nil
	}

	msg := getPrefix(step) + step.Message
	if !step.startTime.IsZero() {
		msg += fmt.Sprintf(" (%s)", time.Since(step.startTime).Round(time.Second))
	}
	if pm.currentSpinner != nil && step.IndentLevel > 0 {
		pm.currentSpinner.Success(" " + msg)
		pm.currentSpinner = nil
		return nil
	}
	pterm.Success.Println(msg)
	return nil
}

// Fail marks a step as failed.
func (pm *ProgressManager) Fail(stepID string, cause error) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	step, err := pm.step(stepID)
	if err != nil {
		return err
	}
	step.Status = StepFailed
	if pm.disabled {
		return nil
	}

	msg := fmt.Sprintf("%s%s: %v", getPrefix(step), step.Message, cause)
	if pm.currentSpinner != nil && step.IndentLevel > 0 {
		pm.currentSpinner.Fail(" " + msg)
		pm.currentSpinner = nil
		return nil
	}
	pterm.Error.Println(msg)
	return nil
}

// UpdateText replaces the text of the active spinner.
func (pm *ProgressManager) UpdateText(text string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.disabled || pm.currentSpinner == nil {
		return
	}
	pm.currentSpinner.UpdateText(text)
}

// Stop stops any active spinner.
func (pm *ProgressManager) Stop() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.currentSpinner != nil {
		_ = pm.currentSpinner.Stop() //nolint:errcheck
		pm.currentSpinner = nil
	}
}

// folderProgress shows the upload of each source folder as a child step. Steps are consumed in
// the order the folders are uploaded.
type folderProgress struct {
	pm      *ProgressManager
	pending []*Step
	current *Step
	total   int
	done    int
}

func newFolderProgress(pm *ProgressManager, folders []*Step) *folderProgress {
	return &folderProgress{pm: pm, pending: folders}
}

func (p *folderProgress) Start(total int, message string) {
	if len(p.pending) == 0 {
		return
	}
	p.current, p.pending = p.pending[0], p.pending[1:]
	p.total, p.done = total, 0
	_ = p.pm.Start(p.current.ID) //nolint:errcheck
	p.pm.UpdateText(fmt.Sprintf(" %s%s (0/%d)", getPrefix(p.current), message, total))
}

func (p *folderProgress) Advance(n int) {
	if p.current == nil {
		return
	}
	p.done += n
	p.pm.UpdateText(fmt.Sprintf(" %s%s (%d/%d)", getPrefix(p.current), p.current.Message, p.done, p.total))
}

func (p *folderProgress) Done() {
	if p.current == nil || p.current.Status != StepRunning {
		return
	}
	// A folder left unfinished failed; the caller reports it through fail.
	if p.done < p.total {
		return
	}
	_ = p.pm.Complete(p.current.ID) //nolint:errcheck
}

// fail marks the running folder, if any, as failed.
func (p *folderProgress) fail(err error) {
	if p.current != nil && p.current.Status == StepRunning {
		_ = p.pm.Fail(p.current.ID, err) //nolint:errcheck
	}
}
