package listing

// GenericErrorMessage is the only failure text users ever see; the cause
// goes to the log.
const GenericErrorMessage = "An error occurred while generating the description. Please try again."

// ProgressPhrases are shown in order while a submission is pending. They
// signal perceived progress only; the service reports no milestones.
var ProgressPhrases = [2]string{
	"Picking-out key highlights about the area...",
	"Writing your bespoke property description...",
}

// ListingResult is the structured copy returned by the generation service.
type ListingResult struct {
	Title              string `json:"title"`
	MainDescription    string `json:"mainDescription"`
	PropertyHighlights string `json:"propertyHighlights"`
	AdditionalFeatures string `json:"additionalFeatures"`
	LocationAdvantages string `json:"locationAdvantages"`
	Conclusion         string `json:"conclusion"`
}

// Segment is one named section of a ListingResult.
type Segment struct {
	Name string
	Text string
}

// Segments returns the result in rendering order. Empty segments are kept
// so they render as empty paragraphs.
func (r ListingResult) Segments() []Segment {
	return []Segment{
		{Name: "title", Text: r.Title},
		{Name: "mainDescription", Text: r.MainDescription},
		{Name: "propertyHighlights", Text: r.PropertyHighlights},
		{Name: "additionalFeatures", Text: r.AdditionalFeatures},
		{Name: "locationAdvantages", Text: r.LocationAdvantages},
		{Name: "conclusion", Text: r.Conclusion},
	}
}

func (r ListingResult) IsEmpty() bool {
	return r == ListingResult{}
}

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Status is the submission lifecycle as one tagged value. Step is only
// meaningful while pending, Message only when failed.
type Status struct {
	Phase   Phase  `json:"phase"`
	Step    int    `json:"step,omitempty"`
	Message string `json:"message,omitempty"`
}

func Idle() Status { return Status{Phase: PhaseIdle} }

func Pending(step int) Status { return Status{Phase: PhasePending, Step: step} }

func Succeeded() Status { return Status{Phase: PhaseSucceeded} }

func Failed(message string) Status { return Status{Phase: PhaseFailed, Message: message} }

func (s Status) IsPending() bool { return s.Phase == PhasePending }

// ProgressPhrase returns the phrase for the current step, or "" when not
// pending.
func (s Status) ProgressPhrase() string {
	if !s.IsPending() {
		return ""
	}
	if s.Step < 0 || s.Step >= len(ProgressPhrases) {
		return ProgressPhrases[len(ProgressPhrases)-1]
	}
	return ProgressPhrases[s.Step]
}

// ErrorMessage is the banner text, "" unless the last submission failed.
func (s Status) ErrorMessage() string {
	if s.Phase != PhaseFailed {
		return ""
	}
	return s.Message
}

// State is everything the page shows for one form instance.
type State struct {
	Form       FormState     `json:"form"`
	Errors     ErrorState    `json:"errors"`
	Status     Status        `json:"status"`
	Result     ListingResult `json:"result"`
	Submission uint64        `json:"submission"`
}

// NewState is the state at mount: empty fields, no errors, idle, empty
// result.
func NewState() State {
	return State{
		Errors: NewErrorState(),
		Status: Idle(),
	}
}

func (s State) Clone() State {
	next := s
	if s.Errors == nil {
		next.Errors = NewErrorState()
	} else {
		next.Errors = s.Errors.Clone()
	}
	return next
}

// ResultPolicy decides what a failed submission does to a previously
// generated result.
type ResultPolicy struct {
	ClearResultOnFailure bool
}

// ApplyValidation runs Validate and stores the complete ErrorState.
func ApplyValidation(state State) (State, bool) {
	next := state.Clone()
	errs, ok := Validate(next.Form)
	next.Errors = errs
	return next, ok
}

// StartSubmission enters pending at step 0 under a new submission number.
func StartSubmission(state State) State {
	next := state.Clone()
	next.Submission++
	next.Status = Pending(0)
	return next
}

// AdvanceProgress moves submission seq to the second phrase. Any other
// state is returned unchanged.
func AdvanceProgress(state State, seq uint64) State {
	if state.Submission != seq || !state.Status.IsPending() || state.Status.Step != 0 {
		return state
	}
	next := state.Clone()
	next.Status = Pending(1)
	return next
}

// ApplySubmissionResult settles submission seq. A nil err replaces the
// result wholesale; a non-nil err records the generic message and, per
// policy, keeps or clears the last result. Results of superseded
// submissions are dropped.
func ApplySubmissionResult(state State, seq uint64, result *ListingResult, err error, policy ResultPolicy) State {
	if state.Submission != seq {
		return state
	}
	next := state.Clone()
	if err == nil && result != nil {
		next.Result = *result
		next.Status = Succeeded()
		return next
	}
	next.Status = Failed(GenericErrorMessage)
	if policy.ClearResultOnFailure {
		next.Result = ListingResult{}
	}
	return next
}

// AbandonSubmission settles a pending state whose submission can no longer
// finish, e.g. the process running it died. The result is kept.
func AbandonSubmission(state State) State {
	if !state.Status.IsPending() {
		return state
	}
	next := state.Clone()
	next.Status = Failed(GenericErrorMessage)
	return next
}
